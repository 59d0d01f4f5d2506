package codec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeusync/skilltree/internal/core/ir"
)

// FileExt is the extension of persisted IR documents.
const FileExt = ".bytes"

// WriteFile persists doc at path all-or-nothing: the document is encoded fully
// in memory, written to a temporary file beside the target, synced, then
// renamed over the target. Readers see either the old file or the new one.
func WriteFile(path string, doc *ir.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("ir codec: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("ir codec: write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("ir codec: sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("ir codec: close %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("ir codec: rename into %s: %w", path, err)
	}
	return nil
}

// ReadFile loads and decodes the document stored at path.
func ReadFile(path string) (*ir.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ir codec: read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// PathFor returns the file a document named name is stored in under dir.
func PathFor(dir, name string) string {
	return filepath.Join(dir, name+FileExt)
}
