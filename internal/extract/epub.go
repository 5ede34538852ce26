package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"math"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"fmfm/internal/tokenizer"
)

// DefaultEPUBChunkBudget is the sub-chunk length in runes and the
// denominator of sub-chunk positions.
const DefaultEPUBChunkBudget = 100

var errNoRootfile = errors.New("epub has no rootfile")

// EPUB extracts one section per linear spine item, each split into
// sub-chunks of at most budget runes.
type EPUB struct {
	budget int
}

func NewEPUB(budget int) *EPUB {
	if budget <= 0 {
		budget = DefaultEPUBChunkBudget
	}
	return &EPUB{budget: budget}
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfPackage struct {
	Metadata struct {
		Titles []string `xml:"title"`
		Metas  []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest []opfItem `xml:"manifest>item"`
	Spine    []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

func (e *EPUB) Extract(ctx context.Context, path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer zr.Close()

	book, err := openEPUB(&zr.Reader)
	if err != nil {
		return nil, err
	}

	res := &Result{TitleHint: book.title()}
	for _, item := range book.linearItems() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := book.read(item.Href)
		if err != nil {
			return nil, err
		}
		text, err := sectionText(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", item.Href, err)
		}
		res.Chunks = append(res.Chunks, SplitSection(res.PageCount, text, e.budget)...)
		res.PageCount++
	}

	res.Cover = book.cover()
	return res, nil
}

// SplitSection cuts the text of one section into pieces of budget runes,
// or of len/budget runes when that would give more than budget pieces, and
// positions piece i at section + i/budget. Positions are rounded to two
// decimals when budget allows it without merging neighbours, so every piece
// sorts strictly between section and section+1.
func SplitSection(section int, text string, budget int) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if budget <= 0 {
		budget = DefaultEPUBChunkBudget
	}
	size := budget
	if len(runes) > budget*budget {
		size = (len(runes) + budget - 1) / budget
	}
	count := (len(runes) + size - 1) / size

	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		end := min((i+1)*size, len(runes))
		offset := float64(i) / float64(budget)
		if budget <= 100 {
			offset = math.Round(offset*100) / 100
		}
		chunks = append(chunks, Chunk{
			Position: float64(section) + offset,
			Text:     string(runes[i*size : end]),
		})
	}
	return chunks
}

type epubBook struct {
	opfDir  string
	pkg     opfPackage
	byID    map[string]opfItem
	members map[string]*zip.File
}

func openEPUB(zr *zip.Reader) (*epubBook, error) {
	b := &epubBook{members: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		b.members[f.Name] = f
	}

	data, err := b.readMember("META-INF/container.xml")
	if err != nil {
		return nil, err
	}
	var container epubContainer
	if err := xml.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("failed to parse container.xml: %w", err)
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, errNoRootfile
	}
	opfPath := container.Rootfiles[0].FullPath
	b.opfDir = path.Dir(opfPath)

	data, err = b.readMember(opfPath)
	if err != nil {
		return nil, err
	}
	if err := xml.Unmarshal(data, &b.pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", opfPath, err)
	}

	b.byID = make(map[string]opfItem, len(b.pkg.Manifest))
	for _, item := range b.pkg.Manifest {
		b.byID[item.ID] = item
	}
	return b, nil
}

func (b *epubBook) title() string {
	for _, t := range b.pkg.Metadata.Titles {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return ""
}

// linearItems returns the manifest items of the spine, skipping linear="no".
func (b *epubBook) linearItems() []opfItem {
	var items []opfItem
	for _, ref := range b.pkg.Spine {
		if strings.EqualFold(strings.TrimSpace(ref.Linear), "no") {
			continue
		}
		if item, ok := b.byID[ref.IDRef]; ok {
			items = append(items, item)
		}
	}
	return items
}

// cover finds the EPUB3 cover-image item, then the EPUB2 cover meta, and
// falls back to a blank placeholder.
func (b *epubBook) cover() image.Image {
	var href string
	for _, item := range b.pkg.Manifest {
		if hasProperty(item.Properties, "cover-image") {
			href = item.Href
			break
		}
	}
	if href == "" {
		for _, m := range b.pkg.Metadata.Metas {
			if m.Name == "cover" {
				if item, ok := b.byID[m.Content]; ok {
					href = item.Href
				}
				break
			}
		}
	}
	if href == "" {
		return Placeholder()
	}

	data, err := b.read(href)
	if err != nil {
		return Placeholder()
	}
	img, _, err := DecodeImage(data)
	if err != nil {
		return Placeholder()
	}
	return img
}

// read opens a manifest href relative to the package document.
func (b *epubBook) read(href string) ([]byte, error) {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return b.readMember(path.Join(b.opfDir, href))
}

func (b *epubBook) readMember(name string) ([]byte, error) {
	f, ok := b.members[strings.TrimPrefix(name, "./")]
	if !ok {
		return nil, fmt.Errorf("epub member %s not found", name)
	}
	return readMember(f)
}

func hasProperty(properties, want string) bool {
	for _, p := range strings.Fields(properties) {
		if p == want {
			return true
		}
	}
	return false
}

// sectionText returns the visible text of an XHTML section with each line
// trimmed and the lines joined by spaces, then cleaned for indexing.
func sectionText(data []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteByte('\n')
		}
	}
	walk(doc)

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return tokenizer.CleanText(strings.Join(lines, " ")), nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "blockquote": true, "pre": true,
}
