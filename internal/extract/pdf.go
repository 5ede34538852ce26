package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"fmfm/internal/tokenizer"
)

// ErrPageOutOfRange is returned when a page index is past the end of a document.
var ErrPageOutOfRange = errors.New("page out of range")

// PDF extracts one chunk per page. Structure, metadata and embedded images
// come from pdfcpu; the text layer comes from ledongthuc/pdf with a raw
// content-stream scan for pages it cannot decode.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

func (p *PDF) Extract(ctx context.Context, path string) (*Result, error) {
	doc, err := openPDF(path)
	if err != nil {
		return nil, err
	}

	res := &Result{
		PageCount: doc.ctx.PageCount,
		TitleHint: strings.TrimSpace(doc.ctx.Title),
		Chunks:    make([]Chunk, 0, doc.ctx.PageCount),
	}
	for i := 0; i < doc.ctx.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Chunks = append(res.Chunks, Chunk{
			Position: float64(i),
			Text:     tokenizer.CleanText(doc.pageText(i)),
		})
	}

	if doc.ctx.PageCount == 0 {
		res.Cover = Placeholder()
	} else {
		res.Cover = doc.pageImage(0)
	}
	return res, nil
}

// PageImage returns the zero-based page as an image: its largest embedded
// raster (scanned documents) or a text card of the page text.
func (p *PDF) PageImage(path string, page int) (image.Image, error) {
	doc, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	if page < 0 || page >= doc.ctx.PageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, doc.ctx.PageCount)
	}
	return doc.pageImage(page), nil
}

type pdfDoc struct {
	ctx   *model.Context
	texts []string
}

func openPDF(path string) (*pdfDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}

	return &pdfDoc{ctx: ctx, texts: textLayer(data)}, nil
}

// pageText returns the text of the zero-based page.
func (d *pdfDoc) pageText(page int) string {
	if page < len(d.texts) && strings.TrimSpace(d.texts[page]) != "" {
		return d.texts[page]
	}
	r, err := pdfcpu.ExtractPageContent(d.ctx, page+1)
	if err != nil || r == nil {
		return ""
	}
	stream, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return contentStreamText(stream)
}

func (d *pdfDoc) pageImage(page int) image.Image {
	if img := d.largestImage(page); img != nil {
		return img
	}
	return TextCard(truncateRunes(tokenizer.CleanText(d.pageText(page)), TextCardRunes*4))
}

func (d *pdfDoc) largestImage(page int) image.Image {
	images, err := pdfcpu.ExtractPageImages(d.ctx, page+1, false)
	if err != nil {
		return nil
	}

	var best image.Image
	bestArea := 0
	for _, candidate := range images {
		if candidate.Reader == nil {
			continue
		}
		data, err := io.ReadAll(candidate)
		if err != nil {
			continue
		}
		img, _, err := DecodeImage(data)
		if err != nil {
			continue
		}
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	return best
}

// textLayer decodes every page's text with ledongthuc/pdf. The library panics
// on some malformed files; such pages come back empty.
func textLayer(data []byte) (texts []string) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}

	n := reader.NumPage()
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		texts[i-1] = plainText(reader, i)
	}
	return texts
}

func plainText(reader *pdf.Reader, pageNr int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
