package analyzer

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/errors"
	"skillmatch/internal/extract"
	"skillmatch/internal/types"
)

type fakeExtractor struct {
	text  string
	panic bool
	names []string
}

func (f *fakeExtractor) Extract(_ context.Context, name string, _ []byte) string {
	f.names = append(f.names, name)
	if f.panic {
		panic("corrupt document")
	}
	return f.text
}

type fakeSource struct {
	doc       types.Document
	err       error
	locations []string
}

func (f *fakeSource) Fetch(_ context.Context, location string) (types.Document, error) {
	f.locations = append(f.locations, location)
	return f.doc, f.err
}

func newTestService(t *testing.T, text string, opts ...Option) (*Service, *fakeExtractor) {
	t.Helper()
	ext := &fakeExtractor{text: text}
	opts = append([]Option{WithUploadDir(t.TempDir())}, opts...)
	return NewService(ext, nil, nil, opts...), ext
}

func TestAnalyzeFullStackScenario(t *testing.T) {
	svc, _ := newTestService(t, "Experienced in Python, React, and AWS. Led Agile teams.")

	report, err := svc.Analyze(context.Background(), types.Document{Name: "resume.pdf"}, "full_stack")
	require.NoError(t, err)

	assert.Equal(t, []string{"react", "aws"}, report.Result.MatchingKeywords)
	assert.Equal(t, 14.29, report.Result.Score)
	assert.Equal(t, 2, report.Result.MatchCount)
	assert.Equal(t, 14, report.Result.TotalTargetKeywords)
	assert.Len(t, report.Result.MissingKeywords, 12)
	assert.Equal(t, 9, report.Summary.WordCount)
	assert.Equal(t, 4, report.Summary.KeywordCount) // python, react, aws, agile
	require.Len(t, report.Recommendations, 4)
	assert.Equal(t, "Your resume is <strong>14.29%</strong> aligned with Full Stack role", report.Recommendations[0])
}

func TestAnalyzeEVEngineerScenario(t *testing.T) {
	svc, _ := newTestService(t, "MATLAB, Simulink, and SolidWorks experience in battery thermal management")

	report, err := svc.Analyze(context.Background(), types.Document{Name: "ev.txt"}, "ev_engineer")
	require.NoError(t, err)

	assert.Equal(t, []string{"matlab", "simulink", "solidworks", "battery"}, report.Result.MatchingKeywords)
	assert.Equal(t, 25.0, report.Result.Score)
	assert.Equal(t, "Consider taking foundational courses in core technologies", report.Recommendations[1])
}

func TestAnalyzeUnknownRole(t *testing.T) {
	svc, _ := newTestService(t, "Python and Docker")

	report, err := svc.Analyze(context.Background(), types.Document{Name: "cv.txt"}, "astronaut")
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Result.Score)
	assert.Empty(t, report.Result.MissingKeywords)
	assert.Equal(t, 0, report.Result.TotalTargetKeywords)
	assert.Equal(t, 2, report.Summary.KeywordCount)
}

func TestAnalyzeRoleIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t, "React and AWS")

	lower, err := svc.Analyze(context.Background(), types.Document{}, "full_stack")
	require.NoError(t, err)
	upper, err := svc.Analyze(context.Background(), types.Document{}, "FULL_STACK")
	require.NoError(t, err)

	assert.Equal(t, lower.Result, upper.Result)
}

func TestAnalyzeEmptyTextIsExtractionFailure(t *testing.T) {
	for _, text := range []string{"", "   \n\t "} {
		svc, _ := newTestService(t, text)

		report, err := svc.Analyze(context.Background(), types.Document{Name: "scan.pdf"}, "full_stack")
		assert.Nil(t, report)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
		assert.Equal(t, types.AnalysisResponse{Error: ExtractionFailedMessage}, Respond(report, err))
	}
}

func TestAnalyzeRecoversFromPanics(t *testing.T) {
	svc, ext := newTestService(t, "")
	ext.panic = true

	report, err := svc.Analyze(context.Background(), types.Document{Name: "bad.pdf"}, "full_stack")
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, Respond(report, err).Error, "corrupt document")
}

func TestAnalyzeCancelledContext(t *testing.T) {
	svc, _ := newTestService(t, "Python")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, types.Document{}, "full_stack")
	require.Error(t, err)
	assert.False(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func TestAnalyzeWithRealExtractor(t *testing.T) {
	svc := NewService(extract.New(nil), nil, nil)

	report, err := svc.Analyze(context.Background(), types.Document{
		Name: "resume.txt",
		Data: []byte("Skilled in C++ and Python; shipped TypeScript services"),
	}, "data_scientist")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, report.Result.MatchingKeywords)

	_, err = svc.Analyze(context.Background(), types.Document{Name: "corrupt.pdf", Data: []byte("%PDF-1.4 garbage")}, "data_scientist")
	assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
}

func TestAnalyzeUploadRemovesSpoolFile(t *testing.T) {
	dir := t.TempDir()
	svc, ext := newTestService(t, "Python, TensorFlow and Docker", WithUploadDir(dir))

	report, err := svc.AnalyzeUpload(context.Background(), "resume.pdf", strings.NewReader("%PDF-1.4"), "ml_engineer")
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "tensorflow", "docker"}, report.Result.MatchingKeywords)
	assert.Equal(t, []string{"resume.pdf"}, ext.names)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeUploadRemovesSpoolFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, "", WithUploadDir(dir))

	_, err := svc.AnalyzeUpload(context.Background(), "resume.pdf", strings.NewReader("%PDF-1.4"), "full_stack")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeUploadSpoolFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	svc, _ := newTestService(t, "Python", WithUploadDir(blocker))

	_, err := svc.AnalyzeUpload(context.Background(), "resume.pdf", strings.NewReader("data"), "full_stack")
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrCodeSpoolFailed, appErr.Code)
}

func TestAnalyzeSource(t *testing.T) {
	src := &fakeSource{doc: types.Document{Name: "cv.txt", Data: []byte("x")}}
	svc, ext := newTestService(t, "Python and Docker on Linux", WithSource(src))

	report, err := svc.AnalyzeSource(context.Background(), "s3://resumes/cv.txt", "cybersecurity")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, report.Result.MatchingKeywords)
	assert.Equal(t, 2, report.Summary.KeywordCount)
	assert.Equal(t, []string{"s3://resumes/cv.txt"}, src.locations)
	assert.Equal(t, []string{"cv.txt"}, ext.names)
}

func TestAnalyzeSourceErrors(t *testing.T) {
	svc, _ := newTestService(t, "Python")
	_, err := svc.AnalyzeSource(context.Background(), "cv.pdf", "full_stack")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	fetchErr := errors.NewStorageError(errors.ErrCodeStorageFetch, "failed to fetch document", nil)
	svc, ext := newTestService(t, "Python", WithSource(&fakeSource{err: fetchErr}))
	_, err = svc.AnalyzeSource(context.Background(), "s3://resumes/cv.pdf", "full_stack")
	assert.ErrorIs(t, err, fetchErr)
	assert.Empty(t, ext.names)
	assert.Equal(t, types.AnalysisResponse{Error: "failed to fetch document"}, Respond(nil, err))
}

func TestRespond(t *testing.T) {
	report := &Report{
		Result:          types.AnalysisResult{Score: 50, MatchingKeywords: []string{"go"}, MissingKeywords: []string{"rust"}, MatchCount: 1, TotalTargetKeywords: 2},
		Summary:         types.ResumeSummary{WordCount: 3, KeywordCount: 1},
		Recommendations: []string{"Good start!"},
	}

	resp := Respond(report, nil)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, report.Result, *resp.Analysis)
	assert.Equal(t, report.Summary, *resp.ResumeSummary)

	assert.Equal(t, "plain failure", Respond(nil, stderrors.New("plain failure")).Error)
	assert.True(t, Respond(nil, nil).Failed())
}

func TestRoles(t *testing.T) {
	svc, _ := newTestService(t, "")
	resp := svc.Roles()
	assert.True(t, resp.Success)
	assert.Len(t, resp.Roles, 8)
	assert.True(t, svc.HasRole("EV_ENGINEER"))
	assert.False(t, svc.HasRole("astronaut"))
}
