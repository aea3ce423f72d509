package tpl2pdf

import (
	"errors"

	"github.com/alnah/go-tpl2pdf/internal/assets"
	"github.com/alnah/go-tpl2pdf/internal/pipeline"
)

// Sentinel errors for library operations. All wrapped errors use %w so
// callers can match with errors.Is.
var (
	ErrEmptyTemplate  = errors.New("template content cannot be empty")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidRecord  = errors.New("invalid template record")
	ErrInvalidOptions = errors.New("invalid print options")

	// Engine errors.
	ErrEngineUnavailable = errors.New("rendering engine unavailable")
	ErrRenderFailed      = errors.New("PDF rendering failed")

	// I/O errors, shared with the internal file access collaborator.
	ErrTemplateRead = assets.ErrTemplateRead
	ErrAssetRead    = assets.ErrAssetRead

	// Hard template parse failures. Everything else the pipeline observes
	// about a template/record mismatch is a Diagnostic, not an error.
	ErrNestedTableMarker = pipeline.ErrNestedMarker
	ErrTableMarkerSyntax = pipeline.ErrMarkerSyntax
)
