package types

// AnalysisResult is the outcome of comparing found keywords with a role's targets
type AnalysisResult struct {
	Score               float64  `json:"score"`                 // 0-100, two decimals
	MatchingKeywords    []string `json:"matching_keywords"`     // Targets present in the resume
	MissingKeywords     []string `json:"missing_keywords"`      // Targets absent from the resume
	MatchCount          int      `json:"match_count"`           // len(MatchingKeywords)
	TotalTargetKeywords int      `json:"total_target_keywords"` // Distinct target keywords
}

// ResumeSummary describes the extracted text
type ResumeSummary struct {
	WordCount    int `json:"word_count"`
	KeywordCount int `json:"keyword_count"`
}

// AnalysisResponse is the wire shape of an analysis. A failed analysis carries
// only Error.
type AnalysisResponse struct {
	Success         bool            `json:"success,omitempty"`
	Analysis        *AnalysisResult `json:"analysis,omitempty"`
	ResumeSummary   *ResumeSummary  `json:"resume_summary,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Failed reports whether the response carries an error
func (r AnalysisResponse) Failed() bool {
	return r.Error != ""
}

// RoleInfo is a role catalog entry
type RoleInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// RolesResponse lists the available target roles
type RolesResponse struct {
	Success bool       `json:"success"`
	Roles   []RoleInfo `json:"roles"`
}

// Document is a resume as read from an upload, a local file or object storage
type Document struct {
	Name string // Original file name, used as a type hint
	Data []byte
}
