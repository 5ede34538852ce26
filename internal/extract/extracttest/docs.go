// Package extracttest builds small, valid documents of every supported
// format for tests.
package extracttest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
)

// PDF returns an uncompressed PDF with one page per argument, each showing
// its text in Helvetica.
func PDF(pages ...string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	// 1 catalog, 2 pages, 3 font, then a page and a content stream per page.
	total := 3 + 2*len(pages)
	offsets := make([]int, total+1)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, text := range pages {
		pageObj, contentObj := 4+2*i, 5+2*i
		stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escapePDF(text) + ") Tj\nET"

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", pageObj, contentObj)

		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return []byte(b.String())
}

func escapePDF(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

// PNG returns a w x h solid image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0x30, G: 0x60, B: 0x90, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Member is one archive entry. A name ending in "/" is a directory.
type Member struct {
	Name string
	Data []byte
}

// Zip archives members in the given order.
func Zip(members ...Member) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		w, err := zw.Create(m.Name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(m.Data); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Section is one spine item of a test EPUB.
type Section struct {
	Text      string
	NonLinear bool
}

// Book describes a test EPUB.
type Book struct {
	Title    string
	Sections []Section
	Cover    []byte
	// EPUB3 marks the cover with the cover-image property instead of the
	// EPUB2 cover meta.
	EPUB3 bool
}

// EPUB builds a minimal EPUB with its package document under OEBPS/.
func EPUB(book Book) []byte {
	var manifest, spine strings.Builder
	members := []Member{
		{Name: "mimetype", Data: []byte("application/epub+zip")},
		{Name: "META-INF/container.xml", Data: []byte(`<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)},
	}

	for i, s := range book.Sections {
		id := "s" + strconv.Itoa(i)
		href := "text/" + id + ".xhtml"
		fmt.Fprintf(&manifest, `<item id="%s" href="%s" media-type="application/xhtml+xml"/>`+"\n", id, href)
		linear := ""
		if s.NonLinear {
			linear = ` linear="no"`
		}
		fmt.Fprintf(&spine, `<itemref idref="%s"%s/>`+"\n", id, linear)
		members = append(members, Member{Name: "OEBPS/" + href, Data: []byte(`<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>x</title><style>p{}</style></head>
<body><p>` + s.Text + `</p></body></html>`)})
	}

	var meta string
	if book.Cover != nil {
		props := ""
		if book.EPUB3 {
			props = ` properties="cover-image"`
		} else {
			meta = `<meta name="cover" content="cover-img"/>`
		}
		fmt.Fprintf(&manifest, `<item id="cover-img" href="images/cover.png" media-type="image/png"%s/>`+"\n", props)
		members = append(members, Member{Name: "OEBPS/images/cover.png", Data: book.Cover})
	}

	opf := `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>` + book.Title + `</dc:title>
    ` + meta + `
  </metadata>
  <manifest>
` + manifest.String() + `  </manifest>
  <spine>
` + spine.String() + `  </spine>
</package>`
	members = append(members, Member{Name: "OEBPS/content.opf", Data: []byte(opf)})
	return Zip(members...)
}
