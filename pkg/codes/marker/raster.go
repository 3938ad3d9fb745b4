package marker

import (
	"image"
	"image/color"
	"image/draw"
)

// composeOnWhite creates a white w x h canvas and draws src at (x, y).
func composeOnWhite(w, h int, src image.Image, x, y int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	b := src.Bounds()
	draw.Draw(out, image.Rect(x, y, x+b.Dx(), y+b.Dy()), src, b.Min, draw.Src)
	return out
}

// fillRect paints a solid rectangle on the canvas.
func fillRect(dst *image.Gray, r image.Rectangle, c color.Gray) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
