// Command cleanup_chroma deletes every embedding from the configured vector
// store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/Carbaz/ai-technical-challenge/internal/app"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	color.Green("✓ Vector store emptied")
}

func run(ctx context.Context, configPath string) error {
	cfg, logger, err := app.Setup(configPath, os.Stderr, nil)
	if err != nil {
		return err
	}

	vs, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer vs.Close()

	return app.NewGateway(vs, cfg, logger).Cleanup(ctx, nil)
}
