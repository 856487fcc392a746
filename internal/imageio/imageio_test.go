package imageio

import (
	"bytes"
	"testing"

	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGray8_RawPGMRoundTrips(t *testing.T) {
	header := "P5\n2 2\n255\n"
	pixels := []byte{10, 20, 30, 40}
	data := append([]byte(header), pixels...)

	img, err := DecodeGray8(data)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, uint8(10), img.At(0, 0))
	assert.Equal(t, uint8(40), img.At(1, 1))
}

func TestDecodeGray8_PlainPGM(t *testing.T) {
	data := []byte("P2\n2 1\n255\n0 255\n")
	img, err := DecodeGray8(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), img.At(0, 0))
	assert.Equal(t, uint8(255), img.At(1, 0))
}

func TestDecodeGray8_PGMWithCommentLine(t *testing.T) {
	data := []byte("P5\n# a comment\n2 1\n255\n")
	data = append(data, []byte{5, 9}...)
	img, err := DecodeGray8(data)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), img.At(0, 0))
	assert.Equal(t, uint8(9), img.At(1, 0))
}

func TestWritePNG_ProducesValidPNGHeader(t *testing.T) {
	img := imagebuf.NewImage8(4, 4)
	defer img.Release()
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}))
}
