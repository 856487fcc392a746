package testutilx

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/decode"
	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCenteredTag_DecodesToSourceCode(t *testing.T) {
	fam := family.Tag36h11
	img, corners := RenderCenteredTag(fam, 0, 256, 6)
	t.Cleanup(img.Release)

	q := quad.Quad{Corners: corners, H: geom.FitSquareToQuad(corners)}
	result, ok := decode.Decode(img, q, fam, 127)
	require.True(t, ok)
	assert.Equal(t, 0, result.ID)
	assert.Equal(t, 0, result.Hamming)
}

func TestPasteTagPerspective_DecodesUnderRotation(t *testing.T) {
	fam := family.Tag36h11
	canvas := NewBlankImage(256, 256, 255)
	t.Cleanup(canvas.Release)

	corners := [4]geom.Point{
		{X: 60, Y: 60},
		{X: 196, Y: 80},
		{X: 176, Y: 216},
		{X: 40, Y: 196},
	}
	PasteTagPerspective(canvas, fam, 3, corners)

	q := quad.Quad{Corners: corners, H: geom.FitSquareToQuad(corners)}
	result, ok := decode.Decode(canvas, q, fam, 127)
	require.True(t, ok)
	assert.Equal(t, 3, result.ID)
}

func TestRotateImage90CW_SwapsDimensions(t *testing.T) {
	img := NewBlankImage(4, 2, 0)
	t.Cleanup(img.Release)
	img.Set(0, 0, 10)
	img.Set(1, 0, 20)

	rotated := RotateImage90CW(img)
	t.Cleanup(rotated.Release)

	assert.Equal(t, 2, rotated.Width)
	assert.Equal(t, 4, rotated.Height)
	assert.Equal(t, uint8(10), rotated.At(0, 0))
	assert.Equal(t, uint8(20), rotated.At(0, 1))
}

func TestAddGaussianNoise_ClampsToByteRange(t *testing.T) {
	img := NewBlankImage(2, 2, 250)
	t.Cleanup(img.Release)

	i := 0
	samples := []float64{100, -100, 0, 1}
	AddGaussianNoise(img, 1.0, func() float64 {
		v := samples[i%len(samples)]
		i++
		return v
	})

	assert.Equal(t, uint8(255), img.At(0, 0))
	assert.Equal(t, uint8(150), img.At(1, 0))
}
