// Package analyzer runs the resume analysis pipeline: text extraction,
// keyword matching, scoring and recommendations.
package analyzer

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"skillmatch/internal/errors"
	"skillmatch/internal/keywords"
	"skillmatch/internal/observability"
	"skillmatch/internal/roles"
	"skillmatch/internal/scoring"
	"skillmatch/internal/types"
	"skillmatch/internal/utils"
)

// ExtractionFailedMessage is the error text returned when a document has no readable text
const ExtractionFailedMessage = "Could not extract text from PDF"

// Extractor turns document content into text, returning "" on failure
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) string
}

// DocumentSource fetches documents by location
type DocumentSource interface {
	Fetch(ctx context.Context, location string) (types.Document, error)
}

// Report is a completed analysis
type Report struct {
	Role            string
	Result          types.AnalysisResult
	Summary         types.ResumeSummary
	Recommendations []string
}

// Service analyses resumes against role target keywords
type Service struct {
	extractor  Extractor
	roles      *roles.Table
	vocabulary []string
	uploadDir  string
	source     DocumentSource
	metrics    *observability.Metrics
	logger     *errors.Logger
}

// Option configures a Service
type Option func(*Service)

// WithVocabulary replaces the built-in keyword vocabulary
func WithVocabulary(vocabulary []string) Option {
	return func(s *Service) { s.vocabulary = vocabulary }
}

// WithUploadDir sets where uploads are spooled
func WithUploadDir(dir string) Option {
	return func(s *Service) { s.uploadDir = dir }
}

// WithSource enables AnalyzeSource
func WithSource(source DocumentSource) Option {
	return func(s *Service) { s.source = source }
}

// WithMetrics records analysis metrics
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// NewService creates an analysis service. A nil table uses the built-in roles.
func NewService(extractor Extractor, table *roles.Table, logger *errors.Logger, opts ...Option) *Service {
	if table == nil {
		table = roles.Default()
	}
	s := &Service{
		extractor:  extractor,
		roles:      table,
		vocabulary: keywords.DefaultVocabulary(),
		uploadDir:  os.TempDir(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if logger != nil {
		logger.Debug("Initialized analysis service",
			"vocabulary_size", len(s.vocabulary),
			"roles", s.roles.Len(),
			"upload_dir", s.uploadDir,
			"source_enabled", s.source != nil)
	}
	return s
}

// Roles returns the role catalog response
func (s *Service) Roles() types.RolesResponse {
	return types.RolesResponse{Success: true, Roles: s.roles.Catalog()}
}

// HasRole reports whether role has a catalog entry
func (s *Service) HasRole(role string) bool {
	return s.roles.Has(role)
}

// Analyze runs the pipeline on a document. A document without readable
// text yields an extraction error and no partial result.
func (s *Service) Analyze(ctx context.Context, doc types.Document, role string) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = errors.NewInternalError(errors.ErrCodePipelinePanic,
				fmt.Sprintf("analysis failed: %v", r), nil)
			if s.logger != nil {
				s.logger.LogError(err, "Recovered from panic in analysis pipeline",
					"file", doc.Name, "stack", string(debug.Stack()))
			}
		}
	}()

	trackErr := s.metrics.TrackAnalysis(ctx, s.roleLabel(role), func(ctx context.Context) *observability.AnalysisOutcome {
		outcome := &observability.AnalysisOutcome{DocumentSize: len(doc.Data)}
		report, err = s.analyze(ctx, doc, role)
		outcome.Error = err
		outcome.ExtractionFailed = errors.IsType(err, errors.ErrorTypeExtraction)
		if report != nil {
			outcome.Score = report.Result.Score
		}
		return outcome
	})
	if trackErr != nil {
		return nil, trackErr
	}
	return report, nil
}

func (s *Service) analyze(ctx context.Context, doc types.Document, role string) (*Report, error) {
	text := s.extractor.Extract(ctx, doc.Name, doc.Data)
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeNetworkTimeout, "analysis cancelled", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewExtractionError(errors.ErrCodeExtractionFailed, ExtractionFailedMessage, nil).
			WithContext("file", doc.Name)
	}

	found := keywords.Match(text, s.vocabulary)
	result := scoring.Score(found, s.roles.TargetKeywords(role))

	report := &Report{
		Role:   role,
		Result: result,
		Summary: types.ResumeSummary{
			WordCount:    len(strings.Fields(text)),
			KeywordCount: len(found),
		},
		Recommendations: scoring.Recommendations(result, role),
	}

	if s.logger != nil {
		s.logger.Debug("Analysed resume",
			"file", doc.Name,
			"role", role,
			"score", result.Score,
			"matched", result.MatchCount,
			"targets", result.TotalTargetKeywords,
			"keywords_found", len(found))
	}
	return report, nil
}

// AnalyzeUpload spools an uploaded document to the upload directory,
// analyses it and removes the spool file on every path
func (s *Service) AnalyzeUpload(ctx context.Context, name string, r io.Reader, role string) (*Report, error) {
	path, err := s.spool(name, r)
	if err != nil {
		return nil, err
	}
	defer s.removeSpool(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeSpoolFailed, "Failed to read uploaded file", err)
	}

	return s.Analyze(ctx, types.Document{Name: name, Data: data}, role)
}

func (s *Service) spool(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeSpoolFailed,
			fmt.Sprintf("Cannot create upload directory: %s", s.uploadDir), err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+utils.SpoolExtension(name))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeSpoolFailed, "Failed to store uploaded file", err)
	}

	_, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if err := stderrors.Join(copyErr, closeErr); err != nil {
		s.removeSpool(path)
		return "", errors.NewIOError(errors.ErrCodeSpoolFailed, "Failed to store uploaded file", err)
	}
	return path, nil
}

// removeSpool deletes a spooled upload; failures are only logged
func (s *Service) removeSpool(path string) {
	if err := os.Remove(path); err != nil && s.logger != nil {
		s.logger.Debug("Failed to remove spooled upload", "path", path, "error", err)
	}
}

// AnalyzeSource reads a document from a local path or object storage and analyses it
func (s *Service) AnalyzeSource(ctx context.Context, location, role string) (*Report, error) {
	if s.source == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "no document source configured", nil)
	}

	doc, err := s.source.Fetch(ctx, location)
	s.metrics.RecordStorageFetch(ctx, backendOf(location), err)
	if err != nil {
		return nil, err
	}

	return s.Analyze(ctx, doc, role)
}

func backendOf(location string) string {
	if strings.HasPrefix(strings.TrimSpace(location), "s3://") {
		return "s3"
	}
	return "local"
}

// roleLabel keeps metric cardinality bounded to catalog roles
func (s *Service) roleLabel(role string) string {
	if s.roles.Has(role) {
		return strings.ToLower(role)
	}
	return "unknown"
}

// Respond converts an analysis outcome into its wire shape
func Respond(report *Report, err error) types.AnalysisResponse {
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeExtraction) {
			return types.AnalysisResponse{Error: ExtractionFailedMessage}
		}
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return types.AnalysisResponse{Error: appErr.Message}
		}
		return types.AnalysisResponse{Error: err.Error()}
	}
	if report == nil {
		return types.AnalysisResponse{Error: "analysis produced no result"}
	}

	result := report.Result
	summary := report.Summary
	return types.AnalysisResponse{
		Success:         true,
		Analysis:        &result,
		ResumeSummary:   &summary,
		Recommendations: report.Recommendations,
	}
}
