package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	// Decoders for every image type found in archives and EPUB covers.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth   = 300
	cardHeight  = 400
	cardMargin  = 12
	cardColumns = 38
	cardLines   = 26
	// TextCardRunes is how much text a card is expected to show.
	TextCardRunes = 200
)

// DecodeImage decodes any of the registered raster formats.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, kind, nil
}

// TextCard lays text out as lines of a fixed-width font on a white page.
// Glyphs outside the font's range are drawn as boxes.
func TextCard(text string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil() + 2
	for i, line := range wrapRunes(text, cardColumns, cardLines) {
		d.Dot = fixed.P(cardMargin, cardMargin+face.Metrics().Ascent.Ceil()+i*lineHeight)
		d.DrawString(line)
	}
	return img
}

// Placeholder is the blank cover used when a document carries none.
func Placeholder() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 0xee}), image.Point{}, draw.Src)
	return img
}

// wrapRunes splits text into at most maxLines lines of at most width runes,
// breaking at spaces where possible.
func wrapRunes(text string, width, maxLines int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		runes := []rune(strings.TrimSpace(para))
		for len(runes) > 0 {
			if len(lines) == maxLines {
				return lines
			}
			if len(runes) <= width {
				lines = append(lines, string(runes))
				break
			}
			cut := width
			for i := width; i > width/2; i-- {
				if runes[i] == ' ' {
					cut = i
					break
				}
			}
			lines = append(lines, strings.TrimSpace(string(runes[:cut])))
			runes = []rune(strings.TrimLeft(string(runes[cut:]), " "))
		}
	}
	return lines
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
