package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/msageha/mgapi/internal/batch"
	"github.com/msageha/mgapi/internal/client"
	"github.com/msageha/mgapi/internal/config"
	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/spec"
	"github.com/msageha/mgapi/internal/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "batch":
		runBatch(os.Args[2:])
	case "specs":
		runSpecs(os.Args[2:])
	case "health":
		runHealth(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "version":
		fmt.Printf("mgapi %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runBatch(args []string) {
	var specName string
	var inputs []string
	opts := batch.Options{}
	optsSet := struct{ stopOnError, stopOnFileError, resubmitDryRun bool }{}
	var resubmitDryRun bool

	for _, a := range args {
		switch {
		case a == "--dry-run":
			opts.DryRun = true
		case a == "--stop-on-error":
			optsSet.stopOnError = true
		case a == "--stop-on-file-error":
			optsSet.stopOnFileError = true
		case strings.HasPrefix(a, "--resubmit-dry-run="):
			v, err := strconv.ParseBool(strings.TrimPrefix(a, "--resubmit-dry-run="))
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid value for --resubmit-dry-run: %v\n", err)
				os.Exit(1)
			}
			resubmitDryRun = v
			optsSet.resubmitDryRun = true
		case strings.HasPrefix(a, "--"):
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n%s", a, batchUsage)
			os.Exit(1)
		case specName == "":
			specName = a
		default:
			inputs = append(inputs, a)
		}
	}

	if specName == "" || len(inputs) == 0 {
		fmt.Fprint(os.Stderr, batchUsage)
		os.Exit(1)
	}

	cfg, logger, level := loadEnvironment()
	opts.ContinueOnError = cfg.Batch.ContinueOnError && !optsSet.stopOnError
	opts.StopOnFileError = cfg.Batch.StopOnFileError || optsSet.stopOnFileError
	opts.ResubmitDryRun = cfg.Batch.ResubmitDryRun
	if optsSet.resubmitDryRun {
		opts.ResubmitDryRun = resubmitDryRun
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl := client.New(cfg.Server, logger)
	coord := batch.New(spec.Default(), cl.Submit, logger, level)

	stats, results, err := coord.Run(ctx, specName, inputs, opts)
	if err != nil && len(results) == 0 {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(1)
	}

	for _, res := range results {
		if res.Err == nil {
			fmt.Println(batch.FileSummary(res.Input, res.Stats))
		}
	}
	fmt.Println(batch.BatchSummary(stats, results))
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch interrupted: %v\n", err)
	}

	if stats.FilesFailed > 0 || stats.Rows.Failed > 0 || stats.Rows.Exception > 0 || err != nil {
		os.Exit(1)
	}
}

func runSpecs(_ []string) {
	registry := spec.Default()
	fmt.Println("Available spec types:")
	for _, name := range registry.Names() {
		def, err := registry.Get(name)
		if err != nil {
			continue
		}
		fmt.Printf("  %s - required columns: %s\n", name, strings.Join(def.RequiredColumns, ", "))
	}
}

func runHealth(_ []string) {
	cfg, logger, _ := loadEnvironment()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl := client.New(cfg.Server, logger)
	if cl.Healthy(ctx) {
		fmt.Printf("server at %s is healthy\n", cfg.Server.URL)
		return
	}
	fmt.Fprintf(os.Stderr, "server at %s is not responding\n", cfg.Server.URL)
	os.Exit(1)
}

func runWatch(args []string) {
	var specName, dir string
	opts := batch.Options{}
	for _, a := range args {
		switch {
		case a == "--dry-run":
			opts.DryRun = true
		case strings.HasPrefix(a, "--"):
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: mgapi watch <spec_type> <dir> [--dry-run]\n", a)
			os.Exit(1)
		case specName == "":
			specName = a
		case dir == "":
			dir = a
		default:
			fmt.Fprintln(os.Stderr, "usage: mgapi watch <spec_type> <dir> [--dry-run]")
			os.Exit(1)
		}
	}
	if specName == "" || dir == "" {
		fmt.Fprintln(os.Stderr, "usage: mgapi watch <spec_type> <dir> [--dry-run]")
		os.Exit(1)
	}

	cfg, logger, level := loadEnvironment()
	opts.ContinueOnError = cfg.Batch.ContinueOnError
	opts.ResubmitDryRun = cfg.Batch.ResubmitDryRun

	if _, err := spec.Default().Get(specName); err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cl := client.New(cfg.Server, logger)
	coord := batch.New(spec.Default(), cl.Submit, logger, level)
	w := watch.New(dir, specName, coord, opts, cfg.Watch, logger, level)

	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}
}

func loadEnvironment() (model.Config, *log.Logger, batch.LogLevel) {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	return cfg, logger, batch.ParseLogLevel(cfg.Logging.Level)
}

const batchUsage = `usage: mgapi batch <spec_type> <file.csv...> [--dry-run] [--stop-on-error] [--stop-on-file-error] [--resubmit-dry-run=<bool>]
`

func printUsage() {
	fmt.Fprintf(os.Stderr, `mgapi %s — batch row processing against a remote command executor

Usage: mgapi <command> [options]

Commands:
  batch <spec_type> <file.csv...>   Process CSV files row by row
      --dry-run                     Validate and generate commands without executing
      --stop-on-error               Halt a file at the first failing row
      --stop-on-file-error          Stop the batch after the first failing file
      --resubmit-dry-run=<bool>     Re-execute rows previously marked as dry run (default true)
  specs                             List available spec types
  health                            Check the executor service
  watch <spec_type> <dir>           Process CSV files as they appear in a directory
  version                           Print version

Results are saved to <filename>.result.csv beside each input, with exit_code,
message, and processed_at columns. Re-running resumes from the result file.

Exit codes recorded per row:
  0   success
  >0  server-reported failure (value preserved)
  -1  no response from server
  -2  validation failed (client-side)
  -3  exception during conversion/submission
  -4  dry run (not executed)

Configuration: mgapi.yaml discovered from the working directory upward;
MGAPI_URL overrides the server URL.
`, version)
}
