package model

import "time"

// RunStatistics aggregates counters across one detection run. It is
// created at run start, updated by each stage as groups are finalized,
// and read by report writers and the run history database.
type RunStatistics struct {
	// TotalImages is the number of candidate images considered.
	TotalImages int `json:"total_images"`

	// DuplicateGroups is the number of groups found across all stages.
	DuplicateGroups int `json:"duplicate_groups"`

	// DuplicateImages counts redundant copies: members minus one per
	// group, summed.
	DuplicateImages int `json:"duplicate_images"`

	// PureColorImages is the number of near-uniform images detected,
	// whether or not they formed a reportable group.
	PureColorImages int `json:"pure_color_images"`

	// Reasons is a histogram of group label → group count.
	Reasons map[string]int `json:"reasons"`

	// SkippedFiles counts per-file read or decode failures that were
	// logged and skipped.
	SkippedFiles int `json:"skipped_files"`

	// CompletedStages lists the stages that ran to completion, in order.
	CompletedStages []string `json:"completed_stages"`

	// Stopped is true when the run was cancelled; groups and stage
	// counters reflect only the work finished before the stop.
	Stopped bool `json:"stopped,omitempty"`

	// StartedAt and FinishedAt bound the run wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRunStatistics creates statistics for a run starting now.
func NewRunStatistics(totalImages int) *RunStatistics {
	return &RunStatistics{
		TotalImages: totalImages,
		Reasons:     make(map[string]int),
		StartedAt:   time.Now(),
	}
}

// AddGroup records a finalized duplicate group.
func (s *RunStatistics) AddGroup(g *DuplicateGroup) {
	s.DuplicateGroups++
	s.DuplicateImages += len(g.Members) - 1
	s.Reasons[g.Label()]++
}

// StageCompleted records that a stage ran to completion.
func (s *RunStatistics) StageCompleted(name string) {
	s.CompletedStages = append(s.CompletedStages, name)
}

// Finish stamps the end of the run.
func (s *RunStatistics) Finish() {
	s.FinishedAt = time.Now()
}

// Elapsed returns the run duration.
func (s *RunStatistics) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
