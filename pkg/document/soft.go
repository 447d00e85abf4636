// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"context"
	"fmt"
)

// SoftErrorPrefix starts the text returned in place of a report that could
// not be read.
const SoftErrorPrefix = "Error reading PDF: "

// SoftReader converts read failures into descriptive text so a broken upload
// becomes part of the prompt instead of aborting the crew run.
type SoftReader struct {
	next Reader
}

// Soft wraps r with the soft-failure contract.
func Soft(r Reader) *SoftReader {
	return &SoftReader{next: r}
}

// Read returns the extracted text, or SoftErrorPrefix followed by the error.
// The returned error is the original failure, kept for logging; the text is
// always usable.
func (s *SoftReader) Read(ctx context.Context, path string) (string, error) {
	text, err := s.next.Read(ctx, path)
	if err != nil {
		return fmt.Sprintf("%s%v", SoftErrorPrefix, err), err
	}
	return text, nil
}
