// Package fs loads files from the local filesystem as chat attachments.
package fs

import (
	"fmt"
	iofs "io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/chatrelay"
)

// MaxAttachmentSize bounds the size of an attached file.
const MaxAttachmentSize = 20 << 20

// extTypes covers extensions whose MIME type is missing from Go's built-in
// table and may be missing from the system's.
var extTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/x-m4a",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// Attach resolves pattern, a path or doublestar glob, against root and loads
// the single matching file. Zero or several matches are validation errors.
func Attach(root, pattern string) (*chatrelay.Attachment, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("attach: path is required: %w", chatrelay.ErrValidation)
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(root, pattern)
	}
	base, pat := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if !doublestar.ValidatePattern(pat) {
		return nil, fmt.Errorf("attach: invalid glob pattern %q: %w", pattern, chatrelay.ErrValidation)
	}

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(filepath.FromSlash(base)), pat, func(p string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		matches = append(matches, filepath.FromSlash(path.Join(base, p)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("attach: no file matches %q: %w", pattern, chatrelay.ErrValidation)
	case 1:
	default:
		return nil, fmt.Errorf("attach: %q matches %d files: %w", pattern, len(matches), chatrelay.ErrValidation)
	}
	return load(matches[0])
}

func load(name string) (*chatrelay.Attachment, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	if info.Size() > MaxAttachmentSize {
		return nil, fmt.Errorf("attach: %s is %d bytes, limit is %d: %w", info.Name(), info.Size(), MaxAttachmentSize, chatrelay.ErrValidation)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return &chatrelay.Attachment{
		Name:     filepath.Base(name),
		MIMEType: DetectType(name, data),
		Data:     data,
	}, nil
}

// DetectType returns the MIME type for a file, by extension first and by
// content sniffing otherwise.
func DetectType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
