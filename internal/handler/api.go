package handler

import (
	"github.com/rs/zerolog"
	"github.com/vegcrib/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	backend  *service.Backend
	markdown goldmark.Markdown
	log      zerolog.Logger
}

// NewAPI constructs a handler set around a loaded Backend.
func NewAPI(backend *service.Backend, log zerolog.Logger) *API {
	return &API{
		backend: backend,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
		log: log.With().Str("component", "http").Logger(),
	}
}

// Backend exposes the orchestrator for callers outside the HTTP layer.
func (a *API) Backend() *service.Backend {
	return a.backend
}
