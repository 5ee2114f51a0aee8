package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// DocumentExtension is the only file type offered for selection.
	DocumentExtension = ".pdf"
	// SizeHint is advertised to the user but not enforced.
	SizeHint = 5 << 20
)

var ErrUnsupportedType = errors.New("only PDF documents can be selected")

// Document is the resume chosen for upload.
type Document struct {
	Name string
	Data []byte
	// Pages is zero when the page count could not be read.
	Pages int
}

// OpenDocument reads the file at path, accepting PDF files only.
func OpenDocument(path string) (*Document, error) {
	if !strings.EqualFold(filepath.Ext(path), DocumentExtension) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	return NewDocument(filepath.Base(path), data), nil
}

// NewDocument wraps in-memory content as a Document.
func NewDocument(name string, data []byte) *Document {
	return &Document{
		Name:  name,
		Data:  data,
		Pages: countPages(data),
	}
}

func (d *Document) Size() int {
	return len(d.Data)
}

// ExceedsSizeHint reports whether the document is larger than SizeHint.
func (d *Document) ExceedsSizeHint() bool {
	return d.Size() > SizeHint
}

func countPages(data []byte) (pages int) {
	if len(data) == 0 {
		return 0
	}

	// pdf panics on some malformed inputs.
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}

	return r.NumPage()
}
