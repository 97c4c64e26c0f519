// Package extract turns resume documents into plain text. Extraction never
// fails loudly: an unreadable document yields an empty string.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "skillmatch/internal/errors"
)

// Kind is a supported document format
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
	mimeZip  = "application/zip"
)

// Detect sniffs the document content, falling back to the file extension
// when the content alone is ambiguous (e.g. a DOCX reported as a zip).
// Text subtypes such as HTML or JSON count as plain text.
func Detect(name string, data []byte) Kind {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is(mimePDF):
		return KindPDF
	case mtype.Is(mimeDOCX):
		return KindDOCX
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is(mimeText) {
			return KindText
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".docx" && mtype.Is(mimeZip) {
		return KindDOCX
	}
	return KindUnknown
}

// MIME returns the sniffed content type of data, e.g. for logging
func MIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// Supported reports whether a document kind can be extracted
func Supported(kind Kind) bool {
	return kind == KindPDF || kind == KindDOCX || kind == KindText
}

// Extractor converts document content into text
type Extractor struct {
	logger *apperrors.Logger
}

// New creates an Extractor. A nil logger disables failure logging.
func New(logger *apperrors.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the document's text, or "" when nothing could be read
func (e *Extractor) Extract(ctx context.Context, name string, data []byte) string {
	if ctx.Err() != nil {
		return ""
	}

	kind := Detect(name, data)
	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
	case KindDOCX:
		text, err = extractDOCX(data)
	case KindText:
		text = string(data)
	default:
		err = apperrors.NewExtractionError(apperrors.ErrCodeUnsupportedType, "unsupported document type", nil).
			WithContext("mime", MIME(data))
	}

	if err != nil {
		if e.logger != nil {
			e.logger.LogError(err, "Failed to extract document text", "file", name, "kind", string(kind))
		}
		return ""
	}
	return text
}
