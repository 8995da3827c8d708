package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/msageha/mgapi/internal/model"
)

// FileSummary renders the outcome-count breakdown for one file.
func FileSummary(input string, s model.FileStats) string {
	successRate := 0.0
	if s.Total > 0 {
		successRate = float64(s.Success) / float64(s.Total) * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", filepath.Base(input))
	fmt.Fprintf(&b, "├─ Total: %d rows\n", s.Total)
	fmt.Fprintf(&b, "├─ Success: %d (%.1f%%)\n", s.Success, successRate)
	fmt.Fprintf(&b, "├─ Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "├─ Validation Failed: %d\n", s.ValidationFailed)
	fmt.Fprintf(&b, "├─ No Response: %d\n", s.NoResponse)
	fmt.Fprintf(&b, "├─ Exception: %d\n", s.Exception)
	fmt.Fprintf(&b, "├─ Dry Run: %d\n", s.DryRun)
	fmt.Fprintf(&b, "└─ Skipped: %d\n", s.Skipped)
	return b.String()
}

// BatchSummary renders aggregated totals plus the per-file success/failure
// list with result paths.
func BatchSummary(stats model.BatchStats, results []FileResult) string {
	successRate := 0.0
	if stats.Rows.Total > 0 {
		successRate = float64(stats.Rows.Success) / float64(stats.Rows.Total) * 100
	}

	var b strings.Builder
	b.WriteString("Batch Processing Complete\n\n")
	fmt.Fprintf(&b, "Files:\n")
	fmt.Fprintf(&b, "├─ Processed: %d/%d\n", stats.FilesProcessed, len(results))
	fmt.Fprintf(&b, "└─ Failed: %d\n\n", stats.FilesFailed)
	fmt.Fprintf(&b, "Total Rows:\n")
	fmt.Fprintf(&b, "├─ Total: %d\n", stats.Rows.Total)
	fmt.Fprintf(&b, "├─ Success: %d (%.1f%%)\n", stats.Rows.Success, successRate)
	fmt.Fprintf(&b, "├─ Failed: %d\n", stats.Rows.Failed)
	fmt.Fprintf(&b, "├─ Validation Failed: %d\n", stats.Rows.ValidationFailed)
	fmt.Fprintf(&b, "├─ No Response: %d\n", stats.Rows.NoResponse)
	fmt.Fprintf(&b, "├─ Exception: %d\n", stats.Rows.Exception)
	fmt.Fprintf(&b, "├─ Dry Run: %d\n", stats.Rows.DryRun)
	fmt.Fprintf(&b, "└─ Skipped: %d\n\n", stats.Rows.Skipped)
	b.WriteString("Result Files:\n")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(&b, "  ✗ %s - %v\n", res.Input, res.Err)
		} else {
			fmt.Fprintf(&b, "  ✓ %s\n", res.ResultPath)
		}
	}
	return b.String()
}
