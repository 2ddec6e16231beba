package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/himanshuarya/portfolio-rag/internal/adapters/artifact"
	"github.com/himanshuarya/portfolio-rag/internal/adapters/embedding"
	"github.com/himanshuarya/portfolio-rag/internal/adapters/filewatcher"
	"github.com/himanshuarya/portfolio-rag/internal/adapters/loader"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
	"github.com/himanshuarya/portfolio-rag/internal/domain/usecases"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed the knowledge file and write the embeddings artifact",
	RunE:  runEmbed,
}

func init() {
	embedCmd.Flags().Bool("watch", false, "re-embed whenever the knowledge file changes")
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile(true)
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")

	ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
	defer stop()

	embedder := embedding.NewOpenAIAdapter(embedding.Config{
		APIKey:     p.OpenAIAPIKey,
		BaseURL:    p.OpenAIBaseURL,
		Model:      p.EmbeddingModel,
		Dimensions: p.EmbeddingDimensions,
		Timeout:    p.Timeout,
	})
	job := usecases.NewEmbedJob(loader.NewMultiLoader(), embedder, artifact.NewFileStore(p.Embeddings, p.EmbeddingModel), p.Knowledge)

	run := func() error {
		slog.Info("Embedding knowledge", "source", p.Knowledge, "model", p.EmbeddingModel)
		kb, err := job.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d entries (%d dimensions) into %s\n", kb.Len(), kb.Dimensions, p.Embeddings)
		return nil
	}

	if !watch {
		return run()
	}

	if err := run(); err != nil {
		slog.Error("Embedding failed, previous artifact kept", "error", err)
	}
	return watchAndRun(ctx, p.Knowledge, run)
}

// watchAndRun calls run after every change to path until ctx ends.
// A failed run is logged and the previous artifact stays in place.
func watchAndRun(ctx context.Context, path string, run func() error) error {
	watcher, err := filewatcher.NewFSNotifyWatcher(filewatcher.DefaultDebounce)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, path)
	if err != nil {
		return err
	}
	slog.Info("Watching knowledge file", "path", path)

	for event := range events {
		if event.Operation == ports.FileDeleted {
			slog.Warn("Knowledge file removed, waiting for it to return", "path", event.Path)
			continue
		}
		slog.Info("Knowledge file changed", "path", event.Path, "operation", event.Operation.String())
		if err := run(); err != nil {
			slog.Error("Embedding failed, previous artifact kept", "error", err)
		}
	}
	return nil
}
