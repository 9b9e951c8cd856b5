package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrResumeNotFound is returned when no résumé exists for an identifier.
var ErrResumeNotFound = errors.New("resume not found")

// ResumeSource returns the plain-text résumé for an identifier.
type ResumeSource interface {
	Resume(ctx context.Context, resumeID string) (string, error)
}

var resumeExtensions = []string{".md", ".txt"}

// DirResumes reads résumés from <Dir>/<id>.md or <Dir>/<id>.txt.
type DirResumes struct {
	Dir string
}

func (d DirResumes) Resume(_ context.Context, resumeID string) (string, error) {
	resumeID = strings.TrimSpace(resumeID)
	if resumeID == "" || resumeID != filepath.Base(resumeID) || strings.HasPrefix(resumeID, ".") {
		return "", fmt.Errorf("invalid resume id %q", resumeID)
	}

	for _, ext := range resumeExtensions {
		path := filepath.Join(d.Dir, resumeID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read resume %s: %w", path, err)
		}

		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("resume %s is empty", path)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %s in %s", ErrResumeNotFound, resumeID, d.Dir)
}
