// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package document extracts plain text from uploaded blood-test reports.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// Reader returns the plain text of the document at path.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, path string) (string, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, path string) (string, error) { return f(ctx, path) }

// PDFReader extracts text from PDF files page by page.
type PDFReader struct{}

// NewPDFReader returns a PDF reader.
func NewPDFReader() *PDFReader { return &PDFReader{} }

// Read concatenates the text of every page in document order, one page per
// line group. Pages without content are skipped.
func (r *PDFReader) Read(ctx context.Context, path string) (text string, err error) {
	// the pdf parser panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", errors.New(errors.CodeDocument, "malformed pdf", fmt.Errorf("%v", rec)).
				WithContext("path", path)
		}
	}()

	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", errors.New(errors.CodeDocument, "open pdf", err).WithContext("path", path)
	}
	defer f.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", errors.New(errors.CodeContextLost, "pdf extraction cancelled", err)
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.New(errors.CodeDocument, "extract page text", err).
				WithContext("path", path).
				WithContext("page", i)
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}

var _ Reader = (*PDFReader)(nil)
