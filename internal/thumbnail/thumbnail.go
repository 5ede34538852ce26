// Package thumbnail shrinks cover images into the JPEG thumbnails shown in
// the library listing.
package thumbnail

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	"golang.org/x/image/draw"
)

const (
	// DefaultSize is the longest side of a thumbnail in pixels.
	DefaultSize = 400
	quality     = 85
)

// Contain flattens img onto white and scales it down, aspect preserved, so
// that neither side exceeds size. Smaller images keep their dimensions.
func Contain(img image.Image, size int) *image.RGBA {
	if size <= 0 {
		size = DefaultSize
	}
	src := img.Bounds()
	w, h := fit(src.Dx(), src.Dy(), size)

	flat := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, src.Min, draw.Over)
	if w == src.Dx() && h == src.Dy() {
		return flat
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), flat, flat.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes img as a contained JPEG.
func Encode(w io.Writer, img image.Image, size int) error {
	if img == nil {
		return fmt.Errorf("failed to encode thumbnail: no image")
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("failed to encode thumbnail: empty image")
	}
	if err := jpeg.Encode(w, Contain(img, size), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return nil
}

// fit returns the dimensions of a w x h box scaled down to fit size x size.
func fit(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return w, h
	}
	if w >= h {
		nh := h * size / w
		if nh < 1 {
			nh = 1
		}
		return size, nh
	}
	nw := w * size / h
	if nw < 1 {
		nw = 1
	}
	return nw, size
}
