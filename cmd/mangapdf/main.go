package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"mangapdf/config"
	"mangapdf/internal/assembler"
	"mangapdf/internal/logger"
	"mangapdf/internal/normalizer"
	"mangapdf/internal/runner"
	"mangapdf/internal/sequence"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Config supplies defaults; flags override per invocation
	output := flag.String("o", "output.pdf", "output PDF path")
	pageSize := flag.String("page-size", cfg.Output.PageSize, "page size: native, a4 or letter")
	quality := flag.Int("quality", cfg.Output.Quality, "JPEG quality (1-100)")
	margin := flag.Float64("margin", cfg.Output.MarginMM, "page margin in millimeters (fixed page sizes only)")
	tail := flag.String("tail", cfg.Output.TailPage, "image appended as the last page")
	thumbnail := flag.String("thumbnail", "", "write a preview thumbnail of the first input to this path and exit")
	thumbWidth := flag.Int("thumb-width", cfg.Thumbnail.Width, "thumbnail width in pixels")
	logLevel := flag.String("log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	flag.Parse()

	// Setup logger
	cfg.Log.Level = *logLevel
	logger.Setup(&cfg.Log)

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: mangapdf [flags] <images... | directory>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	seq, err := collectInputs(flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to collect input images")
	}
	if len(seq.Paths) == 0 {
		log.Fatal().Msg("No supported image files among the inputs")
	}

	if *thumbnail != "" {
		if err := writeThumbnail(normalizer.New(), seq.Paths[0], *thumbnail, *thumbWidth); err != nil {
			log.Fatal().Err(err).Msg("Failed to write thumbnail")
		}
		return
	}

	// Create a context that will be canceled on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("Interrupt received, canceling job")
		cancel()
	}()

	r := runner.New(assembler.New(normalizer.New()))
	r.Start(ctx)

	outPath := sanitizeOutput(*output)
	job := assembler.Job{
		Paths:      seq.WithTail(*tail),
		OutputPath: outPath,
		PageSize:   assembler.PageSize(*pageSize),
		Quality:    *quality,
		MarginMM:   *margin,
	}

	done := r.Submit(job, printProgress)
	var outcome runner.Outcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		outcome = runner.Outcome{Err: ctx.Err()}
	}
	r.Stop()
	fmt.Println()

	if outcome.Err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", outcome.Err)
		os.Exit(1)
	}
	for _, s := range outcome.Result.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Path, s.Reason)
	}
	if info, err := os.Stat(outPath); err == nil {
		fmt.Printf("wrote %s (%d pages, %s)\n", outPath, outcome.Result.Pages, sequence.FormatFileSize(info.Size()))
	} else {
		fmt.Printf("wrote %s (%d pages)\n", outPath, outcome.Result.Pages)
	}
}

// writeThumbnail renders a preview of src at the given width and writes the
// JPEG buffer to dst.
func writeThumbnail(n *normalizer.Normalizer, src, dst string, width int) error {
	data, err := n.Thumbnail(src, width)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}

	size := sequence.FormatFileSize(int64(len(data)))
	if w, h := n.Dimensions(src); w > 0 && h > 0 {
		fmt.Printf("%s (%dx%d) -> %s (%s)\n", src, w, h, dst, size)
	} else {
		fmt.Printf("%s -> %s (%s)\n", src, dst, size)
	}
	return nil
}

// sanitizeOutput cleans the output file name while keeping its directory.
func sanitizeOutput(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, sequence.SanitizeFilename(base))
}

// collectInputs builds the sequence from the command line: a single directory
// argument is scanned in natural order, explicit file arguments keep their
// given order.
func collectInputs(args []string) (*sequence.Sequence, error) {
	seq := &sequence.Sequence{Name: "cli"}

	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			paths, err := sequence.CollectDir(args[0])
			if err != nil {
				return nil, err
			}
			seq.Add(paths...)
			return seq, nil
		}
	}

	for _, arg := range args {
		if !sequence.IsImageFile(arg) {
			log.Warn().Str("path", arg).Msg("Ignoring unsupported file")
			continue
		}
		seq.Add(arg)
	}
	return seq, nil
}

func printProgress(completed, total int, message string) {
	fmt.Printf("\r[%d/%d] %-50s", completed, total, message)
}
