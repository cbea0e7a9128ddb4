package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/inclusiveworks/inlint/internal/catalog"
	"github.com/inclusiveworks/inlint/internal/config"
	"github.com/inclusiveworks/inlint/internal/export"
	"github.com/inclusiveworks/inlint/internal/linter"
	"github.com/inclusiveworks/inlint/internal/llm"
	"github.com/inclusiveworks/inlint/internal/logger"
	"github.com/inclusiveworks/inlint/internal/pipeline"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputFile  = flag.String("input", "", "Posting text file to lint (- for stdin)")
		format     = flag.String("format", "markdown", "Report format: csv, json, markdown, parquet")
		outputFile = flag.String("output", "", "Output file (default stdout)")
		rulesFile  = flag.String("rules", "", "Extra rules JSON file (overrides config)")
		noLLM      = flag.Bool("no-llm", false, "Skip the smart rewrite even when a credential is set")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input posting.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input - --format json < posting.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input posting.txt --format csv --output report.csv\n", os.Args[0])
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *rulesFile != "" {
		cfg.Catalog.RulesFile = *rulesFile
	}
	if *noLLM {
		cfg.LLM.APIKey = ""
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	reportFormat, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	text, err := readInput(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling...")
		cancel()
	}()

	cat, err := catalog.Load(catalog.Options{
		RulesFile:  cfg.Catalog.RulesFile,
		Categories: cfg.Catalog.Categories,
	}, log.WithComponent("catalog"))
	if err != nil {
		log.Fatal("Failed to load rule catalog", zap.Error(err))
	}

	engine := linter.New(cat, log.WithComponent("linter"))
	llmClient := llm.New(cfg.LLM, log.WithComponent("llm"))
	runner := pipeline.New(engine, llmClient, nil, nil, log.WithComponent("pipeline"))

	result, err := runner.Run(ctx, text)
	if err != nil {
		log.Fatal("Lint run failed", zap.Error(err))
	}

	out := os.Stdout
	if *outputFile != "" {
		out, err = os.Create(*outputFile)
		if err != nil {
			log.Fatal("Failed to create output file", zap.Error(err))
		}
		defer out.Close()
	}

	if err := export.Write(out, reportFormat, result); err != nil {
		log.Fatal("Failed to write report", zap.Error(err))
	}

	if result.Notice != "" {
		fmt.Fprintln(os.Stderr, result.Notice)
	}
}

// readInput reads the posting text from a file or stdin
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
