package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pdfchat/internal/bootstrap"
	"pdfchat/internal/cli"
	"pdfchat/internal/config"
	"pdfchat/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(openRuntime)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		os.Exit(1)
	}
}

func openRuntime(ctx context.Context) (*cli.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so answers on stdout stay clean.
	logger.InitWithOutput(logger.Config{Level: cfg.Log.Level, Format: "text"}, os.Stderr)

	a, err := bootstrap.Wire(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &cli.Runtime{
		Indexer:  a.Indexer,
		Answerer: a.Answerer,
		TopK:     cfg.RAG.TopK,
		Close:    a.Close,
	}, nil
}
