// Package engine implements the per-file row processing loop: validate each
// row against a spec definition, submit the generated command (or dry-run),
// classify the outcome into the exit-code taxonomy, and record it on the row.
package engine

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/spec"
	"github.com/msageha/mgapi/internal/table"
)

// SubmitFunc sends one encoded command to the remote executor. A nil response
// with a nil error means the executor gave no response (transport failure);
// a non-nil error is classified as a client-side exception.
type SubmitFunc func(ctx context.Context, command string) (*model.Response, error)

// Options configures one processing pass.
type Options struct {
	Submit SubmitFunc

	// DryRun validates and generates commands but never submits.
	DryRun bool

	// ContinueOnError keeps processing after a row outcome that is not
	// success, dry-run, or skipped. When false the loop halts at the first
	// such row; later rows stay unprocessed.
	ContinueOnError bool

	// ResubmitDryRun re-processes rows whose prior outcome was a dry run.
	// Dry runs are previews, not completions, so this defaults on in the
	// CLI; turning it off treats them as already resolved.
	ResubmitDryRun bool

	// Now is the timestamp source for processed_at. Defaults to time.Now.
	Now func() time.Time

	// Logger receives row-level progress. Nil disables logging.
	Logger *log.Logger
}

const (
	msgDryRun     = "Dry run - not executed"
	msgNoResponse = "No response from server"
)

// Process runs the state machine over every row of tbl in order, mutating
// rows in place. Rows whose exit_code is already set are skipped without
// re-validation or re-submission, which makes resumed runs idempotent.
//
// The returned error is non-nil only when ctx ended; the stats and the rows
// resolved so far remain valid and should still be saved.
func Process(ctx context.Context, def spec.Definition, tbl *table.Table, opts Options) (model.FileStats, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	stats := model.FileStats{Total: len(tbl.Rows)}

	for i, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			logf(opts.Logger, "stopping at row %d: %v", i+1, err)
			return stats, err
		}

		if row.Get(table.ColExitCode) != "" && !eligibleForResubmit(row, opts) {
			stats.Skipped++
			continue
		}

		valid, reason := def.Validate(row)
		if !valid {
			record(row, model.ExitValidationFailed, reason, now())
			stats.ValidationFailed++
			if !opts.ContinueOnError {
				logf(opts.Logger, "row %d: validation failed, stopping: %s", i+1, reason)
				break
			}
			continue
		}

		command, err := encodeCommand(def, row)
		if err != nil {
			record(row, model.ExitException, err.Error(), now())
			stats.Exception++
			if !opts.ContinueOnError {
				logf(opts.Logger, "row %d: command generation failed, stopping: %v", i+1, err)
				break
			}
			continue
		}

		if opts.DryRun {
			logf(opts.Logger, "[dry-run] row %d: %s", i+1, truncate(command, 100))
			record(row, model.ExitDryRun, msgDryRun, now())
			stats.DryRun++
			continue
		}

		resp, err := opts.Submit(ctx, command)
		switch {
		case err != nil:
			record(row, model.ExitException, err.Error(), now())
			stats.Exception++
		case resp == nil:
			record(row, model.ExitNoResponse, msgNoResponse, now())
			stats.NoResponse++
		default:
			record(row, resp.ExitCode, resp.Text(), now())
			switch {
			case resp.ExitCode == model.ExitSuccess:
				stats.Success++
			case resp.ExitCode == model.ExitNoResponse:
				stats.NoResponse++
			default:
				stats.Failed++
			}
		}

		code, _ := row.ExitCode()
		if code != model.ExitSuccess && !opts.ContinueOnError {
			logf(opts.Logger, "row %d: exit_code=%d, stopping", i+1, code)
			break
		}
	}

	return stats, nil
}

// eligibleForResubmit reports whether an already-resolved row should run
// again. Only prior dry runs qualify, and only under the resubmit policy.
func eligibleForResubmit(row table.Row, opts Options) bool {
	if !opts.ResubmitDryRun {
		return false
	}
	code, ok := row.ExitCode()
	return ok && code == model.ExitDryRun
}

func encodeCommand(def spec.Definition, row table.Row) (string, error) {
	cmd, err := def.ToCommand(row)
	if err != nil {
		return "", err
	}
	return cmd.Encode()
}

func record(row table.Row, code int, message string, at time.Time) {
	row.Set(table.ColExitCode, strconv.Itoa(code))
	row.Set(table.ColMessage, message)
	row.Set(table.ColProcessedAt, at.UTC().Format(time.RFC3339))
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
