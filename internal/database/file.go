package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/sl"
)

// JSONFile keeps the document in a single JSON file. It does no locking;
// callers serialise load-mutate-save themselves.
type JSONFile struct {
	path string
	log  *slog.Logger
}

func NewJSONFile(path string, log *slog.Logger) *JSONFile {
	return &JSONFile{
		path: path,
		log:  log.With(sl.Module("database.file"), slog.String("path", path)),
	}
}

// Load returns the stored document. A missing or unparsable file yields an
// empty document; other read errors are returned.
func (f *JSONFile) Load(_ context.Context) (*entity.Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return entity.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return entity.NewDocument(), nil
	}

	var doc entity.Document
	if err = json.Unmarshal(data, &doc); err != nil {
		f.log.Warn("corrupt document, starting empty", sl.Err(err))
		return entity.NewDocument(), nil
	}
	return doc.Normalize(), nil
}

// Save writes the document to a temporary file and renames it over the old one.
func (f *JSONFile) Save(_ context.Context, doc *entity.Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
