package storage

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the path uploaded files are served under.
const URLPrefix = "/uploads/"

// Store saves uploaded files and reads them back by name.
type Store interface {
	// Save stores r and returns the URL clients use to fetch it.
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}

// objectName returns a fresh unique name keeping the extension of original.
func objectName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.New().String() + ext
}

// validName accepts only the flat names produced by objectName.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

func contentTypeFor(name, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
