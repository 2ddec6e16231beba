package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/himanshuarya/portfolio-rag/internal/adapters/artifact"
	"github.com/himanshuarya/portfolio-rag/internal/adapters/embedding"
	"github.com/himanshuarya/portfolio-rag/internal/adapters/llm"
	"github.com/himanshuarya/portfolio-rag/internal/adapters/vectordb"
	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/usecases"
	apphttp "github.com/himanshuarya/portfolio-rag/internal/infrastructure/http"
	"github.com/himanshuarya/portfolio-rag/internal/metrics"
	"github.com/himanshuarya/portfolio-rag/internal/profile"
	"github.com/himanshuarya/portfolio-rag/internal/version"
	"github.com/himanshuarya/portfolio-rag/pkg/client"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile(true)
	if err != nil {
		return err
	}

	// Trigger graceful shutdown on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
	defer stop()

	kb, err := artifact.NewFileStore(p.Embeddings, p.EmbeddingModel).Load(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load embeddings")
	}

	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	exporter.SetKnowledgeEntries(kb.Len())

	embedder := metrics.NewInstrumentedEmbedder(embedding.NewOpenAIAdapter(embedding.Config{
		APIKey:     p.OpenAIAPIKey,
		BaseURL:    p.OpenAIBaseURL,
		Model:      p.EmbeddingModel,
		Dimensions: p.EmbeddingDimensions,
		Timeout:    p.Timeout,
	}), exporter)
	completer := metrics.NewInstrumentedCompleter(llm.NewOpenAIAdapter(llm.Config{
		APIKey:      p.OpenAIAPIKey,
		BaseURL:     p.OpenAIBaseURL,
		Model:       p.ChatModel,
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
		Timeout:     p.Timeout,
	}), exporter)

	retriever := usecases.NewRetriever(embedder, vectordb.NewMemoryIndex(kb), p.TopK)
	chat := usecases.NewChatUseCase(retriever, usecases.NewPromptAssembler(p.Owner), completer)

	server := apphttp.NewServer(chat, apphttp.Config{
		Addr:           p.ListenAddr(),
		AllowedOrigins: p.AllowedOrigins,
		Metrics:        exporter,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		if err := waitReady(gctx, localURL(p)); err != nil {
			slog.Warn("Server did not report healthy", "error", err)
			return nil
		}
		printGreetings(cmd.OutOrStdout(), cmd.ErrOrStderr(), p, kb)
		return nil
	})

	return g.Wait()
}

// waitReady polls the health endpoint until it answers or ctx ends.
func waitReady(ctx context.Context, baseURL string) error {
	c := client.New(baseURL, client.WithTimeout(time.Second))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if h, err := c.Health(ctx); err == nil && h.OK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func localURL(p *profile.Profile) string {
	host := p.Addr
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, p.Port)
}

func printGreetings(out, errOut io.Writer, p *profile.Profile, kb *entities.KnowledgeBase) {
	fmt.Fprintf(out, "Portfolio RAG %s (commit %s) started successfully!\n", p.Version, version.GitCommit)

	if p.IsDev() {
		fmt.Fprint(errOut, "Development mode is enabled\n")
	}
	if !version.IsRelease(version.Version) {
		fmt.Fprint(errOut, "This is not a release build\n")
	}

	fmt.Fprintf(out, "Knowledge base: %d entries from %s\n", kb.Len(), p.Embeddings)
	if kb.Len() == 0 {
		fmt.Fprint(out, "Run `portfolio-rag embed` to build it; every answer will be the fallback until then\n")
	}
	fmt.Fprintf(out, "Chat model: %s, embedding model: %s\n", p.ChatModel, p.EmbeddingModel)
	fmt.Fprintf(out, "Server running on %s\n", localURL(p))
}
