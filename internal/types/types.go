package types

import "errors"

var (
	// ErrNoRecords indicates the input held no parseable email:password lines.
	ErrNoRecords = errors.New("no valid email data found in the file")
	// ErrNothingToExport indicates the filter matched no emails.
	ErrNothingToExport = errors.New("no emails to download")
)

// BounceStatus is the simulated liveness verdict of one address.
// The zero value means the address has not been checked yet.
type BounceStatus string

const (
	StatusValid   BounceStatus = "valid"
	StatusBounced BounceStatus = "bounced"
	StatusUnknown BounceStatus = "unknown"
)

// EmailRecord is one accepted line of an upload.
type EmailRecord struct {
	Email        string       `json:"email"`
	Password     string       `json:"-"`
	BounceStatus BounceStatus `json:"bounce_status,omitempty"`
}

// ProviderCount is the number of records classified under one provider tag.
type ProviderCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

type BounceSummary struct {
	Valid   int `json:"valid"`
	Bounced int `json:"bounced"`
	Unknown int `json:"unknown"`
}

// Add increments the counter matching s. Unchecked records count as unknown.
func (b *BounceSummary) Add(s BounceStatus) {
	switch s {
	case StatusValid:
		b.Valid++
	case StatusBounced:
		b.Bounced++
	default:
		b.Unknown++
	}
}

func (b BounceSummary) Total() int { return b.Valid + b.Bounced + b.Unknown }

// ProcessingResult is the output of one pipeline run over an upload.
type ProcessingResult struct {
	ProviderCounts []ProviderCount `json:"provider_counts"`
	TotalCount     int             `json:"total_count"`
	AllRecords     []EmailRecord   `json:"-"`
	BounceSummary  BounceSummary   `json:"bounce_summary"`
}

// ParseStats describes how many lines an upload yielded.
type ParseStats struct {
	Lines    int `json:"lines"`    // non-empty lines seen
	Accepted int `json:"accepted"` // lines that became records
	Dropped  int `json:"dropped"`  // malformed lines skipped
}

// DomainCount is one entry of the per-domain breakdown.
type DomainCount struct {
	Domain  string `json:"domain"`
	Display string `json:"display"` // unicode form for IDN domains
	Count   int    `json:"count"`
}

// WorkflowParams is the input of ComboSortWorkflow.
type WorkflowParams struct {
	InputURI       string   `json:"input_uri"`  // file:// or s3://
	OutputURI      string   `json:"output_uri"` // export destination; manifest.json is written alongside
	Providers      []string `json:"providers"`  // empty selects every provider
	IncludeBounced bool     `json:"include_bounced"`
	// Relative subdirectory under the scratch root for the snapshot.
	ScratchSubdir string `json:"scratch_subdir"`
	KeepScratch   bool   `json:"keep_scratch"`
}

// AnalyzeResult is what AnalyzeCombos hands to the export step. Records stay
// in the scratch snapshot so they never pass through workflow history.
type AnalyzeResult struct {
	SnapshotURI    string          `json:"snapshot_uri"`
	Parse          ParseStats      `json:"parse"`
	ProviderCounts []ProviderCount `json:"provider_counts"`
	TotalCount     int             `json:"total_count"`
	BounceSummary  BounceSummary   `json:"bounce_summary"`
}

type ExportParams struct {
	SnapshotURI    string        `json:"snapshot_uri"`
	OutURI         string        `json:"out_uri"`
	ManifestURI    string        `json:"manifest_uri"`
	Providers      []string      `json:"providers"`
	IncludeBounced bool          `json:"include_bounced"`
	Analyze        AnalyzeResult `json:"analyze"`
}

type ExportStats struct {
	OutURI  string `json:"out_uri"`
	Emitted int    `json:"emitted"`
}

// SortStats is the result of ComboSortWorkflow.
type SortStats struct {
	Analyze AnalyzeResult `json:"analyze"`
	Export  ExportStats   `json:"export"`
}

// CleanupParams instructs the cleanup activity which subdir to remove.
type CleanupParams struct {
	ScratchSubdir string
}
