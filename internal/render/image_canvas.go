package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// ImageCanvas rasterizes bars into an RGBA image with anti-aliased edges
type ImageCanvas struct {
	img        *image.RGBA
	background color.Color
	raster     *vector.Rasterizer
}

// NewImageCanvas creates a width x height canvas cleared to background.
// A nil background means transparent.
func NewImageCanvas(width, height int, background color.Color) *ImageCanvas {
	if background == nil {
		background = color.Transparent
	}
	c := &ImageCanvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: background,
		raster:     vector.NewRasterizer(width, height),
	}
	c.Clear()
	return c
}

// Size returns the canvas size in pixels
func (c *ImageCanvas) Size() (float64, float64) {
	b := c.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Clear fills the whole image with the background color
func (c *ImageCanvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
}

// FillRect paints an axis-aligned rectangle
func (c *ImageCanvas) FillRect(x, y, w, h float64, col color.Color) {
	c.FillRoundRect(x, y, w, h, 0, col)
}

// FillRoundRect paints a rectangle whose corners are rounded by radius,
// clamped to half the shorter side
func (c *ImageCanvas) FillRoundRect(x, y, w, h, radius float64, col color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	r := float32(math.Max(0, math.Min(radius, math.Min(w, h)/2)))
	x0, y0 := float32(x), float32(y)
	x1, y1 := float32(x+w), float32(y+h)

	b := c.img.Bounds()
	c.raster.Reset(b.Dx(), b.Dy())
	c.raster.DrawOp = draw.Over

	c.raster.MoveTo(x0+r, y0)
	c.raster.LineTo(x1-r, y0)
	c.raster.QuadTo(x1, y0, x1, y0+r)
	c.raster.LineTo(x1, y1-r)
	c.raster.QuadTo(x1, y1, x1-r, y1)
	c.raster.LineTo(x0+r, y1)
	c.raster.QuadTo(x0, y1, x0, y1-r)
	c.raster.LineTo(x0, y0+r)
	c.raster.QuadTo(x0, y0, x0+r, y0)
	c.raster.ClosePath()

	c.raster.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// Image returns the underlying image
func (c *ImageCanvas) Image() *image.RGBA {
	return c.img
}

// EncodePNG writes the canvas as a PNG
func (c *ImageCanvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}
