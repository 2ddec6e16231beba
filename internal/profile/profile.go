package profile

import (
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is configuration for the server and the embedding job.
type Profile struct {
	Mode    string
	Addr    string
	Port    int
	Version string

	// Files
	Data       string
	Knowledge  string
	Embeddings string

	// OpenAI-compatible provider
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration

	// EmbeddingDimensions shortens vectors on models that support it; 0 keeps the model default.
	EmbeddingDimensions int

	// Retrieval and prompt
	TopK  int
	Owner string

	AllowedOrigins []string
	LogLevel       string
}

// SetDefaults registers every configuration key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 5000)
	v.SetDefault("data", filepath.Join("server", "data"))
	v.SetDefault("knowledge", "")
	v.SetDefault("embeddings", "")
	v.SetDefault("openai-api-key", "")
	v.SetDefault("openai-base-url", "")
	v.SetDefault("embedding-model", "text-embedding-3-small")
	v.SetDefault("embedding-dimensions", 0)
	v.SetDefault("chat-model", "gpt-3.5-turbo")
	v.SetDefault("temperature", 0.6)
	v.SetDefault("max-tokens", 0)
	v.SetDefault("top-k", 2)
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("allowed-origins", []string{"http://localhost:5173"})
	v.SetDefault("owner", "Himanshu Arya")
	v.SetDefault("log-level", "info")
}

// FromViper builds a Profile from v. File paths left empty are derived from the data directory.
func FromViper(v *viper.Viper) *Profile {
	p := &Profile{
		Mode:                v.GetString("mode"),
		Addr:                v.GetString("addr"),
		Port:                v.GetInt("port"),
		Data:                v.GetString("data"),
		Knowledge:           v.GetString("knowledge"),
		Embeddings:          v.GetString("embeddings"),
		OpenAIAPIKey:        v.GetString("openai-api-key"),
		OpenAIBaseURL:       v.GetString("openai-base-url"),
		EmbeddingModel:      v.GetString("embedding-model"),
		EmbeddingDimensions: v.GetInt("embedding-dimensions"),
		ChatModel:           v.GetString("chat-model"),
		Temperature:         v.GetFloat64("temperature"),
		MaxTokens:           v.GetInt("max-tokens"),
		Timeout:             v.GetDuration("timeout"),
		TopK:                v.GetInt("top-k"),
		Owner:               v.GetString("owner"),
		AllowedOrigins:      splitList(v.GetStringSlice("allowed-origins")),
		LogLevel:            v.GetString("log-level"),
	}

	if p.Knowledge == "" {
		p.Knowledge = filepath.Join(p.Data, "knowledge.json")
	}
	if p.Embeddings == "" {
		p.Embeddings = filepath.Join(p.Data, "embeddings.json")
	}
	return p
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// ListenAddr returns the host:port the server binds to.
func (p *Profile) ListenAddr() string {
	return net.JoinHostPort(p.Addr, strconv.Itoa(p.Port))
}

// Validate checks the settings every command needs.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		return errors.Errorf("invalid mode %q, want \"dev\" or \"prod\"", p.Mode)
	}
	if p.OpenAIAPIKey == "" {
		return errors.New("missing OpenAI API key, set OPENAI_API_KEY")
	}
	if p.TopK < 1 {
		return errors.Errorf("top-k must be at least 1, got %d", p.TopK)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return errors.Errorf("temperature must be within [0, 2], got %g", p.Temperature)
	}
	if p.EmbeddingDimensions < 0 {
		return errors.Errorf("embedding-dimensions must not be negative, got %d", p.EmbeddingDimensions)
	}
	if p.MaxTokens < 0 {
		return errors.Errorf("max-tokens must not be negative, got %d", p.MaxTokens)
	}
	if p.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", p.Timeout)
	}
	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if _, err := parseLevel(p.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewLogger returns a JSON logger in prod mode and a text logger otherwise.
func (p *Profile) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(p.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if p.IsDev() {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", s)
	}
	return level, nil
}

// splitList accepts both repeated values and comma-separated ones.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
