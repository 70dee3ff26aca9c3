// Package export writes exported entry sets to a destination: a local file,
// an S3-compatible bucket, or a presigned upload URL.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const contentType = "application/json"

// Document is the export file format. Import accepts the same shape.
type Document struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Entries    []models.Entry `json:"entries"`
}

// Sink stores one export and reports where it went.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Marshal renders entries as an indented export document.
func Marshal(entries []models.Entry, now time.Time) ([]byte, error) {
	if entries == nil {
		entries = []models.Entry{}
	}
	return json.MarshalIndent(Document{ExportedAt: now.UTC(), Entries: entries}, "", "  ")
}

// Parse reads an export document. A bare JSON array of entries is accepted
// as well.
func Parse(data []byte) ([]models.Entry, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc.Entries, nil
	}

	var list []models.Entry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.New("not an export document or entry list")
	}
	return list, nil
}

// ObjectName is the name of an export taken at now.
func ObjectName(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("exports/%d/%02d/%02d/medialog-%s.json", now.Year(), now.Month(), now.Day(), uuid.NewString())
}

// FileSink writes exports to a path on disk. When Path names a directory,
// the object name's base is used inside it.
type FileSink struct {
	Path string
}

func (s FileSink) Put(_ context.Context, name string, data []byte) (string, error) {
	path := s.Path
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, filepath.Base(name))
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
