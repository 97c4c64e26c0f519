package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewIOError(ErrCodeFileNotFound, "File not found: resume.pdf", nil)
	assert.Equal(t, "FILE_NOT_FOUND: File not found: resume.pdf", err.Error())

	cause := fmt.Errorf("permission denied")
	err = NewIOError(ErrCodeFileNotReadable, "Cannot read file: resume.pdf", cause)
	assert.Equal(t, "FILE_NOT_READABLE: Cannot read file: resume.pdf (caused by: permission denied)", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	extraction := NewExtractionError(ErrCodeExtractionFailed, "no text", nil)
	wrapped := fmt.Errorf("analyze: %w", extraction)

	assert.True(t, IsType(extraction, ErrorTypeExtraction))
	assert.True(t, IsType(wrapped, ErrorTypeExtraction))
	assert.False(t, IsType(wrapped, ErrorTypeStorage))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeExtraction))
	assert.False(t, IsType(nil, ErrorTypeExtraction))
}

func TestWithContext(t *testing.T) {
	err := NewStorageError(ErrCodeStorageFetch, "fetch failed", nil).
		WithContext("bucket", "resumes").
		WithContext("key", "a.pdf")

	assert.Equal(t, map[string]any{"bucket": "resumes", "key": "a.pdf"}, err.Context)
}

func TestLogErrorIncludesAppErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewValidationError(ErrCodeInvalidRequest, "bad role", nil).WithContext("role", "x")
	logger.LogError(err, "request rejected", "endpoint", "/api/resume/analyze")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request rejected", entry["msg"])
	assert.Equal(t, "validation", entry["error_type"])
	assert.Equal(t, ErrCodeInvalidRequest, entry["error_code"])
	assert.Equal(t, "x", entry["role"])
	assert.Equal(t, "/api/resume/analyze", entry["endpoint"])
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}
