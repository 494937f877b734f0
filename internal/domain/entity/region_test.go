package entity

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionRect(t *testing.T) {
	r := Region{X: 5, Y: 7, Width: 10, Height: 4}
	require.Equal(t, image.Rect(5, 7, 15, 11), r.Rect())
	require.Equal(t, 40, r.Rect().Dx()*r.Rect().Dy())
}
