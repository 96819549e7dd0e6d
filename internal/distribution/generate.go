package distribution

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/AIAleph/rodeo_rewards/internal/logging"
)

// Options configure one generation run.
type Options struct {
	Input  string // CSV path
	Week   string
	OutDir string
}

// Result summarises a completed run.
type Result struct {
	Record *Record
	Path   string
	Total  string
}

// Generate reads the CSV, builds the record and writes it to
// OutDir/<week>.json. Nothing is written unless every step succeeds.
//
// The total is logged for the operator to compare against the expected
// distribution size; it is not checked here.
func Generate(opts Options) (res Result, err error) {
	start := time.Now()
	logger := logging.Logger().With(
		"component", "distribution.generate",
		"run_id", uuid.NewString(),
		"week", opts.Week,
	)
	defer func() {
		if err != nil {
			logger.Error("distribution_failed", "input", opts.Input, "error", err.Error(), "elapsed_ms", time.Since(start).Milliseconds())
		}
	}()

	if err := ValidateWeek(opts.Week); err != nil {
		return Result{}, err
	}
	f, err := os.Open(opts.Input)
	if err != nil {
		return Result{}, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := ReadCSV(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", opts.Input, err)
	}
	total := Total(entries)
	logger.Info("distribution_parsed", "input", opts.Input, "entries", len(entries), "total", total.String())

	rec, err := Build(opts.Week, entries)
	if err != nil {
		return Result{}, err
	}
	path := Path(opts.OutDir, opts.Week)
	if err := Write(path, rec); err != nil {
		return Result{}, err
	}
	logger.Info("distribution_written",
		"path", path,
		"root", rec.Root.Hex(),
		"entries", len(rec.Users),
		"total", total.String(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Record: rec, Path: path, Total: total.String()}, nil
}
