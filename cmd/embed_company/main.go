// Command embed_company ingests a directory of company documents into the
// vector store, tagging every chunk with the company name.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/Carbaz/ai-technical-challenge/internal/app"
	"github.com/Carbaz/ai-technical-challenge/pkg/config"
	"github.com/Carbaz/ai-technical-challenge/pkg/pipeline"
)

type Options struct {
	ConfigPath string
	Sources    string
	Company    string
	Size       int
	Overlap    int
	sizeSet    bool
	overlapSet bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if err := validateSources(opts.Sources); err != nil {
		color.Red("Sources path is not a valid folder: %q", opts.Sources)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet("embed_company", flag.ContinueOnError)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&opts.Sources, "sources", "", "Directory with the company documents")
	fs.StringVar(&opts.Sources, "s", "", "Shorthand for --sources")
	fs.StringVar(&opts.Company, "company", "", "Company name stored with every chunk")
	fs.StringVar(&opts.Company, "c", "", "Shorthand for --company")
	fs.IntVar(&opts.Size, "size", 1000, "Chunk size in characters")
	fs.IntVar(&opts.Size, "z", 1000, "Shorthand for --size")
	fs.IntVar(&opts.Overlap, "overlap", 100, "Chunk overlap in characters")
	fs.IntVar(&opts.Overlap, "o", 100, "Shorthand for --overlap")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size", "z":
			opts.sizeSet = true
		case "overlap", "o":
			opts.overlapSet = true
		}
	})

	if opts.Sources == "" || opts.Company == "" {
		fmt.Fprintln(fs.Output(), "both --sources and --company are required")
		fs.Usage()
		return opts, errors.New("missing required flags")
	}
	return opts, nil
}

func validateSources(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %q", pipeline.ErrNotDirectory, dir)
	}
	return nil
}

// override applies the chunking flags on top of the loaded configuration.
// Flags left unset keep the configured values.
func (o Options) override(cfg *config.Config) {
	if o.sizeSet {
		cfg.Processor.ChunkSize = o.Size
	}
	if o.overlapSet {
		cfg.Processor.ChunkOverlap = o.Overlap
	}
}

func run(ctx context.Context, opts Options) error {
	cfg, logger, err := app.Setup(opts.ConfigPath, os.Stderr, opts.override)
	if err != nil {
		return err
	}

	vs, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer vs.Close()

	var bar *progressbar.ProgressBar
	onFile := func(path string, err error) {
		if bar == nil {
			return
		}
		if err != nil {
			bar.Describe(color.YellowString("Skipped %s", filepath.Base(path)))
		} else {
			bar.Describe(color.BlueString("Processed %s", filepath.Base(path)))
		}
		bar.Add(1)
	}

	in, err := app.NewIngestion(ctx, cfg, app.NewGateway(vs, cfg, logger), logger, onFile)
	if err != nil {
		return err
	}
	defer in.Close()

	files, err := in.Pipeline.Files(opts.Sources)
	if err != nil {
		return err
	}
	color.Cyan("Embedding %d files for %s (%s processing)", len(files), opts.Company, cfg.PDF.ProcessingLevel)
	bar = getProgressBar(len(files), "Processing files")

	res, err := in.Pipeline.EmbedDirectory(ctx, opts.Sources, map[string]any{"company": opts.Company})
	bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	if res.Skipped > 0 {
		color.Yellow("! Skipped %d of %d files, see the log for details", res.Skipped, res.Files)
	}
	if res.Chunks == 0 {
		color.Yellow("No content found under %s, nothing embedded", opts.Sources)
		return nil
	}
	color.Green("✓ Stored %d chunks from %d files", res.Stored, res.Files-res.Skipped)
	return nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
	)
}
