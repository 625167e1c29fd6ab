// Package etl holds the shared per-unit result vocabulary used by every
// pipeline stage (ingest, clean, build, load) and by the orchestrator that
// sequences them.
package etl

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Status describes the outcome of one unit of stage work (one source, one
// table).
type Status string

const (
	StatusSuccess Status = "success"
	StatusMissing Status = "missing"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Stage names, in pipeline order.
const (
	StageIngest = "ingest"
	StageClean  = "clean"
	StageBuild  = "build"
	StageLoad   = "load"
)

// UnitResult is the outcome of processing one unit within a stage.
type UnitResult struct {
	Unit     string // source name or table name
	Status   Status
	Rows     int64 // rows written (accepted rows for the clean stage)
	Rejected int64 // rejected rows (clean stage only)
	Message  string
	Err      error
	Elapsed  time.Duration
}

// AllSucceeded reports whether every unit finished with StatusSuccess.
// Skipped and missing units count as failures: a stage only succeeds when
// all of its units produced output.
func AllSucceeded(results []UnitResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// JoinErrors accumulates the unit errors into a single error, tagging each
// with its unit name. Returns nil when no unit carried an error.
func JoinErrors(results []UnitResult) error {
	var joined error
	for _, r := range results {
		if r.Err != nil {
			joined = errors.Join(joined, fmt.Errorf("%s: %w", r.Unit, r.Err))
		}
	}
	return joined
}

// RenderSummary prints a fixed-width per-unit summary table for a stage,
// followed by the aggregate verdict.
func RenderSummary(w io.Writer, stage string, results []UnitResult) {
	fmt.Fprintf(w, "--- %s summary ---\n", stage)
	fmt.Fprintf(w, "%-35s | %-8s | %10s | %10s | %10s | %s\n", "Unit", "Status", "Rows", "Rejected", "Elapsed", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range results {
		detail := r.Message
		if r.Err != nil {
			detail = r.Err.Error()
		}
		fmt.Fprintf(w, "%-35s | %-8s | %10d | %10d | %10s | %s\n",
			r.Unit, r.Status, r.Rows, r.Rejected, r.Elapsed.Round(time.Millisecond), detail)
	}
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	parts := make([]string, 0, 4)
	for _, s := range []Status{StatusSuccess, StatusSkipped, StatusMissing, StatusFailed} {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	fmt.Fprintf(w, "%s: %s (%d units)\n", stage, strings.Join(parts, ", "), len(results))
}
