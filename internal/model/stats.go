package model

// FileStats counts row outcomes for one processed file.
// Invariant: Total == Success + Failed + NoResponse + ValidationFailed +
// Exception + DryRun + Skipped + rows left unprocessed by an early halt.
type FileStats struct {
	Total            int
	Success          int
	Failed           int
	NoResponse       int
	ValidationFailed int
	Exception        int
	DryRun           int
	Skipped          int
}

// Resolved returns the number of rows that received an outcome this pass or
// were skipped as already resolved.
func (s FileStats) Resolved() int {
	return s.Success + s.Failed + s.NoResponse + s.ValidationFailed +
		s.Exception + s.DryRun + s.Skipped
}

// BatchStats aggregates FileStats across every completed file in a batch.
type BatchStats struct {
	FilesProcessed int
	FilesFailed    int
	Rows           FileStats
}

// Add folds one file's counters into the batch totals.
func (b *BatchStats) Add(s FileStats) {
	b.Rows.Total += s.Total
	b.Rows.Success += s.Success
	b.Rows.Failed += s.Failed
	b.Rows.NoResponse += s.NoResponse
	b.Rows.ValidationFailed += s.ValidationFailed
	b.Rows.Exception += s.Exception
	b.Rows.DryRun += s.DryRun
	b.Rows.Skipped += s.Skipped
}
