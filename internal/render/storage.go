package render

import (
	"context"
	"errors"
	"strings"

	localstorage "github.com/goliatone/go-localize/internal/storage"
	"github.com/goliatone/go-localize/pkg/storage"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes one output routed through the artifact writer.
type writeFileRequest struct {
	Path     string
	Content  []byte
	Category writeCategory
}

// artifactWriter hides the storage provider from the build loop.
type artifactWriter interface {
	WriteFile(ctx context.Context, req writeFileRequest) error
}

func newArtifactWriter(provider storage.Provider, dryRun bool) artifactWriter {
	if provider == nil || dryRun {
		return noopWriter{}
	}
	return &storageWriter{storage: provider}
}

type storageWriter struct {
	storage storage.Provider
}

func (w *storageWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("render: write requires path")
	}
	return localstorage.WriteFile(ctx, w.storage, req.Path, req.Content)
}

type noopWriter struct{}

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }
