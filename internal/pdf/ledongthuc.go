package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// Open opens a PDF with the ledongthuc reader. The library panics on some
// malformed inputs, so everything that touches it runs under a recover guard
// and surfaces ErrCorrupt instead.
func Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	var reader *pdf.Reader
	err = guard(func() error {
		var rerr error
		reader, rerr = pdf.NewReader(f, info.Size())
		return rerr
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	return &document{file: f, reader: reader, path: path}, nil
}

type document struct {
	file   *os.File
	reader *pdf.Reader
	path   string
	closed bool
}

func (d *document) NumPages() int {
	return d.reader.NumPage()
}

func (d *document) Page(n int) (Page, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if n < 1 || n > d.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, d.reader.NumPage())
	}

	var p pdf.Page
	err := guard(func() error {
		p = d.reader.Page(n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s page %d: %v", ErrCorrupt, d.path, n, err)
	}
	if p.V.IsNull() {
		return nil, fmt.Errorf("%w: %s page %d is null", ErrCorrupt, d.path, n)
	}

	return &page{doc: d, page: p, number: n}, nil
}

func (d *document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

type page struct {
	doc    *document
	page   pdf.Page
	number int
}

func (p *page) Number() int {
	return p.number
}

func (p *page) Text() (string, error) {
	var text string
	err := guard(func() error {
		var terr error
		text, terr = p.page.GetPlainText(nil)
		return terr
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s page %d text: %v", ErrCorrupt, p.doc.path, p.number, err)
	}
	return text, nil
}

// Images walks the page resource dictionary for XObject streams with an
// Image subtype. Streams behind filters the library cannot decode keep their
// metadata but carry no payload.
func (p *page) Images() ([]ImageRef, error) {
	var refs []ImageRef

	err := guard(func() error {
		resources := p.page.V.Key("Resources")
		if resources.IsNull() {
			return nil
		}
		xobjects := resources.Key("XObject")
		if xobjects.IsNull() {
			return nil
		}

		index := 0
		for _, name := range xobjects.Keys() {
			obj := xobjects.Key(name)
			if obj.Kind() != pdf.Stream {
				continue
			}
			if obj.Key("Subtype").Name() != "Image" {
				continue
			}
			index++

			ref := ImageRef{
				Name: fmt.Sprintf("image_page%d_%d", p.number, index),
				Ext:  extForFilter(obj.Key("Filter")),
			}
			ref.Data = readStream(obj)
			if ref.Data == nil {
				logrus.Debugf("image %s in %s uses an undecodable filter, keeping metadata only", ref.Name, p.doc.path)
			}
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s page %d images: %v", ErrCorrupt, p.doc.path, p.number, err)
	}

	return refs, nil
}

// readStream pulls the decoded stream bytes, absorbing the library's panics
// for filters it does not implement.
func readStream(v pdf.Value) (data []byte) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
		}
	}()

	r := v.Reader()
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	if len(buf) == 0 {
		return nil
	}
	return buf
}

func extForFilter(filter pdf.Value) string {
	name := ""
	switch filter.Kind() {
	case pdf.Name:
		name = filter.Name()
	case pdf.Array:
		if filter.Len() > 0 {
			name = filter.Index(filter.Len() - 1).Name()
		}
	}

	switch strings.ToLower(name) {
	case "dctdecode":
		return "jpg"
	case "jpxdecode":
		return "jp2"
	case "ccittfaxdecode":
		return "tiff"
	default:
		return "png"
	}
}

func guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()
	return f()
}
