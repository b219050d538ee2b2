// Package assembler turns an ordered list of image paths into a single PDF
// document, one page per image.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"mangapdf/internal/logger"
	"mangapdf/internal/normalizer"
)

// PageSize selects the physical size of output pages.
type PageSize string

const (
	// PageSizeNative sizes each page to its own image, one pixel per point.
	PageSizeNative PageSize = "native"
	PageSizeA4     PageSize = "a4"
	PageSizeLetter PageSize = "letter"
)

const ptPerMM = 2.834645669

// Fixed page dimensions in millimeters, width x height.
var pageDimsMM = map[PageSize][2]float64{
	PageSizeA4:     {210, 297},
	PageSizeLetter: {215.9, 279.4},
}

var (
	ErrNoInputs       = errors.New("no input images")
	ErrNoPages        = errors.New("no images could be processed")
	ErrUnknownSize    = errors.New("unknown page size")
	ErrNegativeMargin = errors.New("margin must not be negative")
	ErrMarginTooLarge = errors.New("margin leaves no printable area")
)

// Job describes one PDF generation request. A Job is consumed once and not
// reused.
type Job struct {
	Paths      []string
	OutputPath string
	PageSize   PageSize
	Quality    int
	MarginMM   float64
}

// SkippedFile records an input that was dropped from the output document.
type SkippedFile struct {
	Path   string
	Reason string
}

// Result reports a completed job. Pages is the number of pages actually
// written; Skipped lists the inputs that failed to process and were omitted.
type Result struct {
	Pages   int
	Skipped []SkippedFile
}

// ProgressFunc receives (completed, total, message) after each processed page
// and once more at completion or failure. It is called synchronously on the
// generating goroutine. A nil ProgressFunc is allowed.
type ProgressFunc func(completed, total int, message string)

type Assembler struct {
	normalizer *normalizer.Normalizer
	logger     zerolog.Logger
}

func New(n *normalizer.Normalizer) *Assembler {
	return &Assembler{
		normalizer: n,
		logger:     logger.GetLogger("assembler"),
	}
}

type page struct {
	path   string
	data   []byte
	width  int
	height int
}

// Generate compresses every input in order, lays each surviving image out as
// one PDF page and writes the document to job.OutputPath. The file is written
// to a temporary name and renamed into place, so a failed job never leaves a
// truncated output. Inputs that fail to decode or encode are omitted and
// reported in Result.Skipped; the job fails only when no input survives.
//
// ctx is checked between pages, never mid-decode. Page order always matches
// input order.
func (a *Assembler) Generate(ctx context.Context, job Job, progress ProgressFunc) (*Result, error) {
	if len(job.Paths) == 0 {
		return nil, ErrNoInputs
	}
	if _, ok := pageDimsMM[job.PageSize]; !ok && job.PageSize != PageSizeNative {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSize, job.PageSize)
	}

	total := len(job.Paths)
	report := func(completed int, message string) {
		if progress != nil {
			progress(completed, total, message)
		}
	}

	a.logger.Info().
		Int("images", total).
		Str("page_size", string(job.PageSize)).
		Int("quality", job.Quality).
		Float64("margin_mm", job.MarginMM).
		Str("output", job.OutputPath).
		Msg("Generating PDF")

	pages := make([]page, 0, total)
	var skipped []SkippedFile

	for i, path := range job.Paths {
		select {
		case <-ctx.Done():
			report(i, fmt.Sprintf("generation canceled: %v", ctx.Err()))
			return nil, ctx.Err()
		default:
		}

		data, err := a.normalizer.Compress(path, job.Quality)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Skipping image")
			skipped = append(skipped, SkippedFile{Path: path, Reason: err.Error()})
			report(i+1, fmt.Sprintf("processing page %d/%d (skipped)", i+1, total))
			continue
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Skipping image")
			skipped = append(skipped, SkippedFile{Path: path, Reason: err.Error()})
			report(i+1, fmt.Sprintf("processing page %d/%d (skipped)", i+1, total))
			continue
		}

		pages = append(pages, page{path: path, data: data, width: cfg.Width, height: cfg.Height})
		report(i+1, fmt.Sprintf("processing page %d/%d", i+1, total))
	}

	if len(pages) == 0 {
		report(total, "generation failed: no images could be processed")
		return nil, ErrNoPages
	}

	select {
	case <-ctx.Done():
		report(total, fmt.Sprintf("generation canceled: %v", ctx.Err()))
		return nil, ctx.Err()
	default:
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	for i, pg := range pages {
		layout, err := layoutPage(job.PageSize, pg.width, pg.height, job.MarginMM)
		if err != nil {
			report(total, fmt.Sprintf("generation failed: %v", err))
			return nil, err
		}

		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: layout.pageW, Ht: layout.pageH})
		name := fmt.Sprintf("page%d", i)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(pg.data))
		pdf.ImageOptions(name, layout.x, layout.y, layout.drawW, layout.drawH, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		if pdf.Err() {
			err := fmt.Errorf("embedding %s: %w", pg.path, pdf.Error())
			report(total, fmt.Sprintf("generation failed: %v", err))
			return nil, err
		}
	}

	if err := a.writeOutput(pdf, job.OutputPath); err != nil {
		report(total, fmt.Sprintf("generation failed: %v", err))
		return nil, err
	}

	a.logger.Info().
		Int("pages", len(pages)).
		Int("skipped", len(skipped)).
		Str("output", job.OutputPath).
		Msg("PDF written")
	report(total, fmt.Sprintf("done: %d pages written", len(pages)))

	return &Result{Pages: len(pages), Skipped: skipped}, nil
}

// writeOutput serializes the document next to the destination and renames it
// into place so the final path is either absent or complete.
func (a *Assembler) writeOutput(pdf *gofpdf.Fpdf, outputPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".mangapdf-*.pdf")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	tmpName := tmp.Name()

	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp output: %w", err)
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming output: %w", err)
	}
	return nil
}

type pageLayout struct {
	pageW, pageH float64
	x, y         float64
	drawW, drawH float64
}

// layoutPage computes the physical page size and the image placement for one
// page, in points. Native pages map pixels 1:1 to points with the image
// filling the page. Fixed pages scale the image to fit the margin-inset box,
// preserving aspect ratio and centering it; the image is never cropped.
func layoutPage(size PageSize, imgW, imgH int, marginMM float64) (pageLayout, error) {
	if marginMM < 0 {
		return pageLayout{}, fmt.Errorf("%w: %.1fmm", ErrNegativeMargin, marginMM)
	}
	if size == PageSizeNative {
		w := float64(imgW)
		h := float64(imgH)
		return pageLayout{pageW: w, pageH: h, drawW: w, drawH: h}, nil
	}

	dims, ok := pageDimsMM[size]
	if !ok {
		return pageLayout{}, fmt.Errorf("%w: %q", ErrUnknownSize, size)
	}

	pageW := dims[0] * ptPerMM
	pageH := dims[1] * ptPerMM
	margin := marginMM * ptPerMM

	innerW := pageW - 2*margin
	innerH := pageH - 2*margin
	if innerW <= 0 || innerH <= 0 {
		return pageLayout{}, fmt.Errorf("%w: %.1fmm", ErrMarginTooLarge, marginMM)
	}

	scale := innerW / float64(imgW)
	if s := innerH / float64(imgH); s < scale {
		scale = s
	}
	drawW := float64(imgW) * scale
	drawH := float64(imgH) * scale

	return pageLayout{
		pageW: pageW,
		pageH: pageH,
		x:     margin + (innerW-drawW)/2,
		y:     margin + (innerH-drawH)/2,
		drawW: drawW,
		drawH: drawH,
	}, nil
}
