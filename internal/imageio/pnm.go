package imageio

import (
	"bufio"
	"bytes"

	"github.com/aprilgo/apriltag/internal/imagebuf"
)

// decodePGM decodes a raw (P5) or plain (P2) PGM grayscale image, the
// format the reference apriltag demo tooling reads test fixtures from.
// Returns ok=false if data doesn't start with a recognized PGM magic.
func decodePGM(data []byte) (*imagebuf.Image8, bool) {
	if len(data) < 2 || data[0] != 'P' || (data[1] != '5' && data[1] != '2') {
		return nil, false
	}
	raw := data[1] == '5'

	r := bufio.NewReader(bytes.NewReader(data[2:]))
	width, ok := readPNMInt(r)
	if !ok {
		return nil, false
	}
	height, ok := readPNMInt(r)
	if !ok {
		return nil, false
	}
	maxVal, ok := readPNMInt(r)
	if !ok || maxVal <= 0 || maxVal > 255 {
		return nil, false
	}

	img := imagebuf.NewImage8(width, height)
	if raw {
		buf := make([]byte, width*height)
		if _, ok := readFull(r, buf); !ok {
			return nil, false
		}
		for y := range height {
			for x := range width {
				img.Set(x, y, buf[y*width+x])
			}
		}
		return img, true
	}

	for y := range height {
		for x := range width {
			v, ok := readPNMInt(r)
			if !ok {
				return nil, false
			}
			img.Set(x, y, uint8(v*255/maxVal))
		}
	}
	return img, true
}

// readPNMInt reads the next whitespace-delimited token as an integer,
// skipping '#'-prefixed comment lines per the PNM header grammar.
func readPNMInt(r *bufio.Reader) (int, bool) {
	skipPNMWhitespaceAndComments(r)
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			break
		}
		if isPNMSpace(b) {
			_ = r.UnreadByte()
			break
		}
		tok = append(tok, b)
	}
	if len(tok) == 0 {
		return 0, false
	}
	n := 0
	for _, b := range tok {
		if b < '0' || b > '9' {
			return 0, false
		}
		n = n*10 + int(b-'0')
	}
	return n, true
}

func skipPNMWhitespaceAndComments(r *bufio.Reader) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		if b == '#' {
			for {
				c, err := r.ReadByte()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		if !isPNMSpace(b) {
			_ = r.UnreadByte()
			return
		}
	}
}

func isPNMSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// readFull reads the final single separator byte between the header and
// raw pixel data, then fills buf from the remaining bytes.
func readFull(r *bufio.Reader, buf []byte) (int, bool) {
	// The integer reader leaves the single trailing whitespace byte after
	// maxVal unconsumed; discard exactly one before the raw pixel stream.
	if _, err := r.ReadByte(); err != nil {
		return 0, false
	}
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			break
		}
	}
	if n != len(buf) {
		return n, false
	}
	return n, true
}
