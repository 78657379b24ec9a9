// Package main provides the zapdrive command, a batch message sender that
// drives an authenticated web messaging session from a spreadsheet of
// (recipient, message) rows and writes per-row delivery status back out.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zapdrive/zapdrive/pkg/batch"
	"github.com/zapdrive/zapdrive/pkg/browser"
	"github.com/zapdrive/zapdrive/pkg/config"
	"github.com/zapdrive/zapdrive/pkg/delivery"
	"github.com/zapdrive/zapdrive/pkg/observability"
	"github.com/zapdrive/zapdrive/pkg/recipients"
)

const version = "0.1.0"

// failureOutcomes fixes the breakdown order in the end-of-run summary.
var failureOutcomes = []delivery.Outcome{
	delivery.OutcomeInvalidNumber,
	delivery.OutcomeEmptyMessage,
	delivery.OutcomeTimeout,
	delivery.OutcomeTransportError,
	delivery.OutcomeUnknownError,
}

// Flags holds the parsed command line options.
type Flags struct {
	InputFile     string
	OutputFile    string
	ConfigFile    string
	ProfileDir    string
	WaitTimeout   float64
	ComposerTime  float64
	PostSendDelay float64
	LogLevel      string
	DryRun        bool
	ShowVersion   bool
}

func main() {
	flags := parseFlags()

	if flags.ShowVersion {
		fmt.Printf("zapdrive v%s\n", version)
		return
	}

	if err := flags.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.With(zap.String("runId", uuid.NewString()))

	if runErr := run(flags, cfg, logger); runErr != nil {
		logger.Fatal("run failed", zap.Error(runErr))
	}
}

// parseFlags parses command line flags.
func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.InputFile, "file", "", "Input spreadsheet with Número and Mensagem columns (required)")
	flag.StringVar(&flags.OutputFile, "out", "", "Output spreadsheet for per-row status (default: overwrite input)")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to YAML configuration file (optional)")
	flag.StringVar(&flags.ProfileDir, "profile", "", "Persistent browser profile directory with an authenticated session")
	flag.Float64Var(&flags.WaitTimeout, "timeout", 0, "Page-load landmark wait in seconds (default: 60)")
	flag.Float64Var(&flags.ComposerTime, "composer-timeout", 0, "Per-message fallback-chain budget in seconds (default: 15)")
	flag.Float64Var(&flags.PostSendDelay, "post-send-delay", -1, "Settle delay after each send in seconds (default: 3)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Validate the sheet without opening a browser")
	flag.BoolVar(&flags.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "zapdrive - spreadsheet-driven batch message sender\n\n")
		fmt.Fprintf(os.Stderr, "Usage: zapdrive -file contacts.xlsx [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  zapdrive -file contacts.xlsx -profile ~/.zapdrive/profile\n")
		fmt.Fprintf(os.Stderr, "  zapdrive -file contacts.xlsx -out status.xlsx -post-send-delay 5\n")
		fmt.Fprintf(os.Stderr, "  zapdrive -file contacts.xlsx -dry-run\n")
	}

	flag.Parse()
	return flags
}

// validate checks the flag combination before any work starts.
func (f *Flags) validate() error {
	if f.InputFile == "" {
		return fmt.Errorf("input file is required (use -file)")
	}
	if _, err := os.Stat(f.InputFile); err != nil {
		return fmt.Errorf("input file error: %w", err)
	}
	return nil
}

// buildConfig layers flag overrides on top of the (optional) config file
// and the defaults.
func buildConfig(flags *Flags) (config.Config, error) {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if flags.ProfileDir != "" {
		cfg.ProfileDir = flags.ProfileDir
	}
	if flags.WaitTimeout > 0 {
		cfg.WaitTimeoutSeconds = flags.WaitTimeout
	}
	if flags.ComposerTime > 0 {
		cfg.ComposerTimeoutSeconds = flags.ComposerTime
	}
	if flags.PostSendDelay >= 0 {
		cfg.PostSendDelaySeconds = flags.PostSendDelay
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}

	return cfg, cfg.Validate()
}

// run executes one batch end to end: load, send, export, summarize.
func run(flags *Flags, cfg config.Config, logger *zap.Logger) error {
	records, err := recipients.Load(flags.InputFile)
	if err != nil {
		return err
	}
	logger.Info("sheet loaded",
		zap.String("file", flags.InputFile),
		zap.Int("records", len(records)),
	)

	if flags.DryRun {
		return dryRun(records, logger)
	}

	controller := browser.NewController(cfg, logger)
	session, err := controller.Start()
	if err != nil {
		return err
	}
	// Teardown must happen exactly once, cancellation and errors included.
	defer controller.Stop(session)

	sender := delivery.NewSender(session.Page, delivery.Options{
		BaseURL:         cfg.ServiceURL,
		NavigateTimeout: cfg.WaitTimeout(),
		ComposerTimeout: cfg.ComposerTimeout(),
		PostSendDelay:   cfg.PostSendDelay(),
	}, logger)

	cancel := &batch.Flag{}
	stop := installCancelHandler(cancel, logger)
	defer stop()

	runner := batch.NewRunner(logger)
	result := runner.Run(records, sender, cancel, func(index, total int, number string) {
		logger.Info("sending",
			zap.Int("current", index+1),
			zap.Int("total", total),
			zap.String("number", number),
		)
	})

	outPath := flags.OutputFile
	if outPath == "" {
		outPath = flags.InputFile
	}
	if err := recipients.Export(records, outPath); err != nil {
		return err
	}

	fmt.Printf("Done: %d total, %d sent, %d failed", result.Total, result.Succeeded, result.Failed())
	if result.Cancelled() {
		fmt.Printf(", cancelled with %d remaining", result.Total-result.Attempted)
	}
	fmt.Printf(". Status written to %s\n", outPath)

	for _, outcome := range failureOutcomes {
		if n := result.Outcomes[outcome]; n > 0 {
			fmt.Printf("  %s: %d\n", outcome.Display(), n)
		}
	}
	return nil
}

// dryRun validates every record locally without opening a browser, so an
// operator can lint a sheet before committing to a run.
func dryRun(records []recipients.Record, logger *zap.Logger) error {
	invalid := 0
	for _, record := range records {
		if _, failure, ok := delivery.Validate(record.Number, record.Message); !ok {
			invalid++
			logger.Warn("record would be rejected",
				zap.Int("row", record.Row),
				zap.String("status", failure.String()),
			)
		}
	}
	fmt.Printf("Dry run: %d records, %d would be rejected by validation\n", len(records), invalid)
	return nil
}

// installCancelHandler flips the cancellation flag on the first interrupt
// and force-exits on the second. Cancellation is cooperative: the record in
// flight always completes before the batch stops.
func installCancelHandler(cancel *batch.Flag, logger *zap.Logger) (stop func()) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Warn("cancellation requested, finishing the record in flight")
		cancel.Set()
		<-sigChan
		logger.Error("second interrupt, exiting immediately")
		os.Exit(1)
	}()

	return func() { signal.Stop(sigChan) }
}
