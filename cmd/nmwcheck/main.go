/*
main.go - Batch compliance check entry point

PURPOSE:
  Reads a JSON batch of worker/pay-period requests, runs them through the
  compliance engine, and writes one outcome per request.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the rate table (file, or SQLite when -db is set)
  3. Load classification rules (file, SQLite, or embedded default)
  4. Run the batch with bounded concurrency
  5. Archive outcomes (when -db is set) and write the report

COMMAND-LINE FLAGS:
  -input        Request batch JSON file ("-" for stdin)
  -output       Report JSON file ("-" for stdout)
  -rates        Rate table JSON file
  -rules        Classification rule table JSON file (default: embedded)
  -db           SQLite database path; overrides -rates and archives results
  -concurrency  Maximum in-flight calculations (default: 8)
  -timeout      Per-run deadline (default: 2m)
  -v            Debug logging

EXIT CODES:
  0  every request succeeded and none is RED
  1  at least one request failed or came back RED
  2  setup or I/O failure

EXAMPLES:
  # File-based run
  ./nmwcheck -input=payroll.json -rates=rates-2024.json -output=report.json

  # Database-backed run with archiving
  ./nmwcheck -input=payroll.json -db=./data/compliance.db

SEE ALSO:
  - compliance/batch.go: bounded-pool batch runner
  - store/sqlite/sqlite.go: configuration and archive store
*/
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/warp/compliance-engine/classify"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/nmw"
	"github.com/warp/compliance-engine/rates"
	"github.com/warp/compliance-engine/store/sqlite"
)

func main() {
	os.Exit(run())
}

func run() int {
	inputPath := flag.String("input", "-", "request batch JSON file, - for stdin")
	outputPath := flag.String("output", "-", "report JSON file, - for stdout")
	ratesPath := flag.String("rates", "", "rate table JSON file")
	rulesPath := flag.String("rules", "", "classification rule table JSON file")
	dbPath := flag.String("db", "", "SQLite database path; overrides -rates")
	concurrency := flag.Int("concurrency", compliance.DefaultBatchWorkers, "maximum in-flight calculations")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-run deadline")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var (
		src   rates.Source
		rules *classify.Ruleset
		db    *sqlite.Store
	)

	switch {
	case *dbPath != "":
		var err error
		db, err = sqlite.New(*dbPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to open database")
			return 2
		}
		defer db.Close()
		src = db
		rules, err = db.LoadRules(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to load classification rules")
			return 2
		}
	case *ratesPath != "":
		src = rates.NewFileSource(*ratesPath)
	default:
		log.Error().Msg("one of -rates or -db is required")
		return 2
	}

	if *rulesPath != "" {
		var err error
		rules, err = classify.LoadFile(*rulesPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to load classification rules")
			return 2
		}
	}

	reqs, err := readRequests(*inputPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read request batch")
		return 2
	}
	log.Info().Int("requests", len(reqs)).Msg("batch loaded")

	engine := compliance.NewEngine(
		rates.NewCachedSource(src, 0),
		rules,
		compliance.WithLogger(log),
	)
	report := engine.CalculateBatch(ctx, reqs, *concurrency)

	if db != nil {
		if err := db.ArchiveReport(context.Background(), report); err != nil {
			log.Warn().Err(err).Msg("failed to archive outcomes")
		}
	}

	if err := writeReport(*outputPath, report); err != nil {
		log.Error().Err(err).Msg("failed to write report")
		return 2
	}

	red := 0
	for _, out := range report.Outcomes {
		if out.Success && out.Result.Status == nmw.StatusRed {
			red++
		}
	}
	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("red", red).
		Msg("run complete")

	if report.Failed > 0 || red > 0 {
		return 1
	}
	return 0
}

func readRequests(path string) ([]compliance.Request, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var reqs []compliance.Request
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func writeReport(path string, report compliance.BatchReport) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
