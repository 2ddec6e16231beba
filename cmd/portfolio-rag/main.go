package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanshuarya/portfolio-rag/internal/profile"
	"github.com/himanshuarya/portfolio-rag/internal/version"
)

var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

var rootCmd = &cobra.Command{
	Use:           "portfolio-rag",
	Short:         "Answer questions about a portfolio owner from a precomputed knowledge base.",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Try to load .env file from current directory (ignore error if file doesn't exist)
		_ = godotenv.Load()

		if cfgFile := viper.GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return errors.Wrapf(err, "failed to read config file %s", cfgFile)
			}
		}
		return nil
	},
}

func init() {
	profile.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "optional config file (yaml, json or toml)")
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 5000, "port of server")
	flags.String("data", "server/data", "data directory")
	flags.String("knowledge", "", "knowledge file (default <data>/knowledge.json)")
	flags.String("embeddings", "", "embeddings artifact (default <data>/embeddings.json)")
	flags.String("openai-base-url", "", "OpenAI-compatible API base URL")
	flags.String("embedding-model", "text-embedding-3-small", "embedding model")
	flags.Int("embedding-dimensions", 0, "embedding vector size, 0 for the model default")
	flags.String("chat-model", "gpt-3.5-turbo", "chat completion model")
	flags.Float64("temperature", 0.6, "sampling temperature")
	flags.Int("max-tokens", 0, "reply token limit, 0 for the provider default")
	flags.Int("top-k", 2, "knowledge entries retrieved per question")
	flags.Duration("timeout", 0, "provider call timeout (default 1m)")
	flags.StringSlice("allowed-origins", []string{"http://localhost:5173"}, "CORS origins")
	flags.String("owner", "Himanshu Arya", "portfolio owner named in the system prompt")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	for _, name := range []string{
		"config", "mode", "addr", "port", "data", "knowledge", "embeddings",
		"openai-base-url", "embedding-model", "embedding-dimensions", "chat-model", "temperature", "max-tokens",
		"top-k", "timeout", "allowed-origins", "owner", "log-level",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("portfolio")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// PORTFOLIO_* first, then the conventional unprefixed names.
	bindEnvWithFallback := func(configKey, prefixedEnv, plainEnv string) {
		if err := viper.BindEnv(configKey, prefixedEnv, plainEnv); err != nil {
			panic(err)
		}
	}
	bindEnvWithFallback("openai-api-key", "PORTFOLIO_OPENAI_API_KEY", "OPENAI_API_KEY")
	bindEnvWithFallback("port", "PORTFOLIO_PORT", "PORT")

	rootCmd.AddCommand(serveCmd, embedCmd, askCmd)
}

// loadProfile reads the profile and installs the default logger.
// Commands that call the provider pass validate.
func loadProfile(validate bool) (*profile.Profile, error) {
	p := profile.FromViper(viper.GetViper())
	p.Version = version.GetCurrentVersion(p.Mode)

	if validate {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := p.NewLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return p, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
