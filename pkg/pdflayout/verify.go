package pdflayout

import (
	"bytes"
	"fmt"

	pdfread "github.com/ledongthuc/pdf"
)

// PageCount parses a rendered PDF and returns its page count. A document
// that cannot be read back is reported as an error.
func PageCount(data []byte) (int, error) {
	r, err := pdfread.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read back pdf: %w", err)
	}
	return r.NumPage(), nil
}

// PageCountFile is PageCount for a file on disk.
func PageCountFile(path string) (int, error) {
	f, r, err := pdfread.Open(path)
	if err != nil {
		return 0, fmt.Errorf("read back %s: %w", path, err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
