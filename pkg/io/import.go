package io

import (
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/synthroute/pkg/errors"
	"github.com/matzehuels/synthroute/pkg/normalize"
	"github.com/matzehuels/synthroute/pkg/route"
)

// MaxDocumentSize bounds the size of documents read from disk or the network.
const MaxDocumentSize = 64 << 20

// DecodeDocument reads a JSON document from r and normalizes it.
func DecodeDocument(r io.Reader, format normalize.Format) (*route.Document, *normalize.Report, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "document exceeds %d bytes", MaxDocumentSize)
	}
	return normalize.Normalize(data, format)
}

// ReadDocument reads the JSON file at path and returns the normalized
// document. A missing file is reported as FILE_NOT_FOUND.
func ReadDocument(path string, format normalize.Format) (*route.Document, *normalize.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeDocument(f, format)
}
