package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"skillmatch/internal/analyzer"
	"skillmatch/internal/errors"
	"skillmatch/internal/extract"
	"skillmatch/internal/utils"
)

const (
	resumeField = "resume"
	roleField   = "targetRole"
)

// analyzeForm holds the text fields of an analyze request
type analyzeForm struct {
	TargetRole string `validate:"max=64"`
}

var formValidator = validator.New()

// analyzeHandler accepts a multipart upload and returns the keyword analysis
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := s.Logger.With("request_id", requestID)
	w.Header().Set("X-Request-ID", requestID)

	data, filename, ok := s.readUpload(w, r, logger)
	if !ok {
		return
	}

	kind := extract.Detect(filename, data)
	if !extract.Supported(kind) {
		logger.Info("Rejected unsupported upload",
			"filename", filename,
			"mime", extract.MIME(data))
		writeErrorResponse(w, "Only PDF, DOCX and plain text files are allowed", "", http.StatusBadRequest)
		return
	}

	form := analyzeForm{TargetRole: strings.TrimSpace(r.FormValue(roleField))}
	if err := formValidator.Struct(&form); err != nil {
		logger.Debug("Rejected analyze form", "error", err)
		writeErrorResponse(w, "Invalid target role", "", http.StatusBadRequest)
		return
	}
	role := form.TargetRole
	if role == "" {
		role = s.DefaultRole
	}

	logger.Info("Analyzing uploaded resume",
		"filename", filename,
		"kind", kind,
		"size", utils.FormatFileSize(int64(len(data))),
		"target_role", role)

	report, err := s.Analyzer.AnalyzeUpload(r.Context(), filename, bytes.NewReader(data), role)
	status := analysisStatus(err)
	if err != nil {
		logger.LogError(err, "Resume analysis failed", "status", status)
	} else {
		logger.Info("Resume analysis completed",
			"score", report.Result.Score,
			"match_count", report.Result.MatchCount)
	}

	writeJSON(w, status, analyzer.Respond(report, err))
}

// readUpload returns the content of the resume file part. It writes the error
// response itself and reports false when the request cannot be used.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, logger *errors.Logger) ([]byte, string, bool) {
	file, header, err := r.FormFile(resumeField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxBytesErr):
			writeErrorResponse(w, "File too large",
				fmt.Sprintf("Uploads are limited to %s", utils.FormatFileSize(s.MaxFileSize)),
				http.StatusRequestEntityTooLarge)
		case stderrors.Is(err, http.ErrMissingFile):
			writeErrorResponse(w, "No resume file uploaded", "", http.StatusBadRequest)
		default:
			logger.Debug("Invalid multipart request", "error", err)
			writeErrorResponse(w, "Invalid multipart request", err.Error(), http.StatusBadRequest)
		}
		return nil, "", false
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Debug("Failed to close uploaded file", "error", err)
		}
	}()

	if s.MaxFileSize > 0 && header.Size > s.MaxFileSize {
		writeErrorResponse(w, "File too large",
			fmt.Sprintf("Uploads are limited to %s", utils.FormatFileSize(s.MaxFileSize)),
			http.StatusRequestEntityTooLarge)
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.LogError(err, "Failed to read uploaded file")
		writeErrorResponse(w, "Failed to read uploaded file", "", http.StatusBadRequest)
		return nil, "", false
	}
	return data, header.Filename, true
}

// analysisStatus maps a pipeline error to its HTTP status
func analysisStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsType(err, errors.ErrorTypeExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// rolesHandler lists the role catalog
func (s *Server) rolesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Analyzer.Roles())
}

// writeJSON writes v as the response body. HTML is left unescaped so
// recommendation markup reaches the client as written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	// Status is already sent; a failed write means the client went away
	_ = encoder.Encode(v)
}
