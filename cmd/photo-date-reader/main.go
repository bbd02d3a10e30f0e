package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ironsheep/photo-date-reader/internal/config"
	"github.com/ironsheep/photo-date-reader/internal/imaging"
	"github.com/ironsheep/photo-date-reader/internal/logging"
	"github.com/ironsheep/photo-date-reader/internal/ocr"
	"github.com/ironsheep/photo-date-reader/internal/pipeline"
	"github.com/ironsheep/photo-date-reader/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("photo-date-reader - read the date stamps cameras print on photos")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  photo-date-reader [serve] [-config FILE]")
	fmt.Println("  photo-date-reader scan [-config FILE] [-annotate-dir DIR] <folder>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    Run as an MCP server over stdin/stdout (default)")
	fmt.Println("  scan     Print <path>\\t<date or FAILED code> for every photo in a folder")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Println("  PHOTO_DATE_CONFIG=path.yaml       YAML configuration file")
	fmt.Println("  PHOTO_DATE_TESSDATA_DIR=dir       Directory holding <language>.traineddata")
	fmt.Println("  PHOTO_DATE_LANGUAGE=7seg          Tesseract language")
	fmt.Println("  PHOTO_DATE_ENGINE_POOL_SIZE=n     Number of OCR engines")
	fmt.Println("  PHOTO_DATE_LOG_LEVEL=debug        debug, info, warn or error")
	fmt.Println()
	fmt.Println("OCR needs a build with -tags ocr and Tesseract installed; the ocr_info")
	fmt.Println("tool reports whether this binary can recognise stamps.")
}

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("photo-date-reader %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "serve", "scan":
			cmd = args[0]
			args = args[1:]
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "scan":
		err = runScan(ctx, args)
	default:
		err = runServe(ctx, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "photo-date-reader: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the shared logger and engine pool.
// Logs go to stderr; stdout belongs to the protocol or the scan report.
func setup(configPath string) (*config.Config, *logging.Logger, *ocr.Pool, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.NewLogger("photo-date-reader", logging.ParseLevel(cfg.LogLevel))
	log.Debug("starting",
		"version", Version,
		"built", BuildTime,
		"commit", GitCommit,
		"tessdata", cfg.OCR.TrainedDataPath(),
		"engines", cfg.EnginePoolSize)

	pool := ocr.NewPool(cfg.OCR, cfg.EnginePoolSize)
	return cfg, log, pool, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, pool, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer pool.Close()

	server.Version = Version
	srv, err := server.New(cfg, pool, log)
	if err != nil {
		return err
	}
	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	annotateDir := fs.String("annotate-dir", "", "Write each annotated overlay crop here as <name>.png")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("scan needs exactly one folder, got %d arguments", fs.NArg())
	}

	cfg, log, pool, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer pool.Close()

	paths, err := pipeline.ListImages(fs.Arg(0))
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, pool, nil, log.With("component", "pipeline"))
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache(cfg.CacheCapacity)
	runner := pipeline.NewRunner(p, cache, cfg.DecodeWorkers, cfg.ProcessWorkers, log.With("component", "runner"))

	b := runner.Run(ctx, paths)
	for _, it := range b.Items {
		fmt.Printf("%s\t%s\n", it.Path, it.Status())

		if *annotateDir == "" || it.Result == nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(it.Path), filepath.Ext(it.Path)) + ".png"
		if err := imaging.SavePNG(it.Result.Annotated, filepath.Join(*annotateDir, name)); err != nil {
			log.Warn("failed to save annotation", "path", it.Path, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
