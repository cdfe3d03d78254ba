// Package testsupport holds fixture and golden helpers shared by package
// tests.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/model"
)

// MustLoadStructure reads a JSON form structure fixture.
func MustLoadStructure(t *testing.T, path string) model.FormStructure {
	t.Helper()

	structure, err := LoadStructure(path)
	if err != nil {
		t.Fatalf("load structure: %v", err)
	}
	return structure
}

// LoadStructure reads a JSON fixture into a FormStructure without requiring
// testing.T. A bare attribute array is accepted as well as {"attrs": [...]}.
func LoadStructure(path string) (model.FormStructure, error) {
	if path == "" {
		return model.FormStructure{}, errors.New("testsupport: structure path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.FormStructure{}, fmt.Errorf("testsupport: read structure: %w", err)
	}
	var out model.FormStructure
	if err := json.Unmarshal(data, &out); err == nil {
		return out, nil
	}
	if err := json.Unmarshal(data, &out.Attrs); err != nil {
		return model.FormStructure{}, fmt.Errorf("testsupport: unmarshal structure: %w", err)
	}
	return out, nil
}

// MustLoadRecord reads a JSON object fixture into a Record.
func MustLoadRecord(t *testing.T, path string) model.Record {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var out model.Record
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	return out
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	writeFile(t, path, payload)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	writeFile(t, path, data)
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any, opts ...cmp.Option) string {
	return cmp.Diff(want, got, opts...)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}
