// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

func TestPDFReaderPagesInOrder(t *testing.T) {
	text, err := NewPDFReader().Read(context.Background(), filepath.Join("testdata", "lipid_panel.pdf"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	ldl := strings.Index(text, "LDL: 130 mg/dL")
	hdl := strings.Index(text, "HDL: 45 mg/dL")
	if ldl < 0 || hdl < 0 {
		t.Fatalf("expected both pages in the text, got %q", text)
	}
	if ldl > hdl {
		t.Fatalf("pages out of order: %q", text)
	}
	if !strings.Contains(text[ldl:hdl], "\n") {
		t.Fatalf("pages should be separated by a newline: %q", text)
	}
}

func TestPDFReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDFReader().Read(ctx, filepath.Join("testdata", "lipid_panel.pdf"))
	if !kerrors.IsCode(err, kerrors.CodeContextLost) {
		t.Fatalf("expected context lost, got %v", err)
	}
}

func TestPDFReaderMissingFile(t *testing.T) {
	_, err := NewPDFReader().Read(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !kerrors.IsCode(err, kerrors.CodeDocument) {
		t.Fatalf("expected document error code, got %v", err)
	}
}

func TestPDFReaderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("LDL: 130 mg/dL, definitely not a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewPDFReader().Read(context.Background(), path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestSoftReader(t *testing.T) {
	failing := ReaderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("unsupported format")
	})
	text, err := Soft(failing).Read(context.Background(), "x.pdf")
	if err == nil {
		t.Fatal("expected underlying error to be reported")
	}
	if text != "Error reading PDF: unsupported format" {
		t.Fatalf("unexpected soft text: %q", text)
	}

	ok := ReaderFunc(func(_ context.Context, path string) (string, error) {
		return "LDL: 130 mg/dL", nil
	})
	text, err = Soft(ok).Read(context.Background(), "x.pdf")
	if err != nil || text != "LDL: 130 mg/dL" {
		t.Fatalf("unexpected result %q, %v", text, err)
	}
}

func TestSoftReaderWrapsPDFFailures(t *testing.T) {
	text, _ := Soft(NewPDFReader()).Read(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if !strings.HasPrefix(text, SoftErrorPrefix) {
		t.Fatalf("expected soft error text, got %q", text)
	}
}
