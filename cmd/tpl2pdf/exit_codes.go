package main

import (
	"errors"
	"os"

	tpl2pdf "github.com/alnah/go-tpl2pdf"
	"github.com/alnah/go-tpl2pdf/internal/config"
)

// Exit codes for the tpl2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful generation
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitEngine  = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine errors (exit 4)
	if errors.Is(err, tpl2pdf.ErrEngineUnavailable) ||
		errors.Is(err, tpl2pdf.ErrRenderFailed) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, tpl2pdf.ErrTemplateRead) ||
		errors.Is(err, tpl2pdf.ErrAssetRead) ||
		errors.Is(err, ErrReadData) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) ||
		errors.Is(err, tpl2pdf.ErrEmptyTemplate) ||
		errors.Is(err, tpl2pdf.ErrInvalidInput) ||
		errors.Is(err, tpl2pdf.ErrInvalidRecord) ||
		errors.Is(err, tpl2pdf.ErrInvalidOptions) ||
		errors.Is(err, tpl2pdf.ErrNestedTableMarker) ||
		errors.Is(err, tpl2pdf.ErrTableMarkerSyntax) ||
		errors.Is(err, ErrNoTemplate) ||
		errors.Is(err, ErrInvalidDataFile) ||
		errors.Is(err, ErrUnknownAssetKind) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) {
		return ExitUsage
	}

	return ExitGeneral
}
