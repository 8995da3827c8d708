// Package batch drives the row-processing engine across one or more input
// files, aggregating per-file statistics into batch totals and enforcing the
// file-level stop/continue policy.
package batch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/msageha/mgapi/internal/engine"
	"github.com/msageha/mgapi/internal/lock"
	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/resultfile"
	"github.com/msageha/mgapi/internal/spec"
)

// LogLevel controls coordinator logging verbosity.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Options configures one batch run.
type Options struct {
	DryRun          bool
	ContinueOnError bool
	ResubmitDryRun  bool
	StopOnFileError bool
}

// FileResult records the outcome for one input file: a result path with
// stats on success, or the file-level error that aborted it.
type FileResult struct {
	Input      string
	ResultPath string
	Stats      model.FileStats
	Err        error
}

// Coordinator runs batches. Single-file and multi-file batches share
// identical per-file semantics; the coordinator only adds aggregation and
// stop policy.
type Coordinator struct {
	registry *spec.Registry
	submit   engine.SubmitFunc
	logger   *log.Logger
	logLevel LogLevel
	now      func() time.Time
}

func New(registry *spec.Registry, submit engine.SubmitFunc, logger *log.Logger, level LogLevel) *Coordinator {
	return &Coordinator{
		registry: registry,
		submit:   submit,
		logger:   logger,
		logLevel: level,
		now:      time.Now,
	}
}

// Run processes inputs in argument order. An unknown spec name fails before
// any file is touched. The returned error is non-nil only when ctx ended;
// per-file failures are reported through FileResult.Err and FilesFailed.
func (c *Coordinator) Run(ctx context.Context, specName string, inputs []string, opts Options) (model.BatchStats, []FileResult, error) {
	def, err := c.registry.Get(specName)
	if err != nil {
		return model.BatchStats{}, nil, err
	}

	var stats model.BatchStats
	results := make([]FileResult, 0, len(inputs))

	for i, input := range inputs {
		c.log(LogLevelInfo, "processing file %d/%d: %s", i+1, len(inputs), input)

		res := c.processFile(ctx, def, input, opts)
		results = append(results, res)

		if res.Err != nil {
			c.log(LogLevelError, "file %s failed: %v", input, res.Err)
			stats.FilesFailed++
			if opts.StopOnFileError {
				c.log(LogLevelWarn, "stopping batch after file error")
				break
			}
			continue
		}

		stats.FilesProcessed++
		stats.Add(res.Stats)

		if ctx.Err() != nil {
			// Shutdown mid-file: the partial pass was saved, so a later
			// resume picks up exactly where this one stopped.
			return stats, results, ctx.Err()
		}
	}

	return stats, results, nil
}

func (c *Coordinator) processFile(ctx context.Context, def spec.Definition, input string, opts Options) FileResult {
	store := resultfile.NewStore(input)

	fl := lock.New(store.ResultPath() + ".lock")
	if err := fl.TryLock(); err != nil {
		return FileResult{Input: input, Err: fmt.Errorf("lock result file: %w", err)}
	}
	defer func() { _ = fl.Unlock() }()

	tbl, resumed, err := store.LoadForResume(def.RequiredColumns)
	if err != nil {
		return FileResult{Input: input, Err: err}
	}
	if resumed {
		c.log(LogLevelInfo, "resuming from %s", store.ResultPath())
	}

	stats, procErr := engine.Process(ctx, def, tbl, engine.Options{
		Submit:          c.submit,
		DryRun:          opts.DryRun,
		ContinueOnError: opts.ContinueOnError,
		ResubmitDryRun:  opts.ResubmitDryRun,
		Now:             c.now,
		Logger:          c.engineLogger(),
	})
	if procErr != nil {
		c.log(LogLevelWarn, "pass interrupted for %s, saving partial results: %v", input, procErr)
	}

	resultPath, err := store.Save(tbl)
	if err != nil {
		// Persistence failures must surface; silent data loss is worse
		// than an aborted file.
		return FileResult{Input: input, Err: fmt.Errorf("save results: %w", err)}
	}

	return FileResult{Input: input, ResultPath: resultPath, Stats: stats}
}

// engineLogger passes row-level logging through only at debug level.
func (c *Coordinator) engineLogger() *log.Logger {
	if c.logger != nil && c.logLevel <= LogLevelDebug {
		return c.logger
	}
	return nil
}

func (c *Coordinator) log(level LogLevel, format string, args ...any) {
	if c.logger == nil || level < c.logLevel {
		return
	}
	c.logger.Printf(format, args...)
}
