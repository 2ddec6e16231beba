package profile

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func validProfile() *Profile {
	v := newViper()
	v.Set("openai-api-key", "sk-test")
	return FromViper(v)
}

func TestFromViper_Defaults(t *testing.T) {
	p := FromViper(newViper())

	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, 5000, p.Port)
	assert.Equal(t, "text-embedding-3-small", p.EmbeddingModel)
	assert.Equal(t, "gpt-3.5-turbo", p.ChatModel)
	assert.InDelta(t, 0.6, p.Temperature, 1e-9)
	assert.Equal(t, 2, p.TopK)
	assert.Equal(t, 60*time.Second, p.Timeout)
	assert.Equal(t, 0, p.EmbeddingDimensions)
	assert.Equal(t, []string{"http://localhost:5173"}, p.AllowedOrigins)
	assert.Equal(t, filepath.Join("server", "data", "knowledge.json"), p.Knowledge)
	assert.Equal(t, filepath.Join("server", "data", "embeddings.json"), p.Embeddings)
	assert.Equal(t, ":5000", p.ListenAddr())
	assert.True(t, p.IsDev())
}

func TestFromViper_Overrides(t *testing.T) {
	v := newViper()
	v.Set("data", "/srv/portfolio")
	v.Set("embeddings", "/tmp/vectors.json")
	v.Set("allowed-origins", "https://a.example, https://b.example")
	v.Set("addr", "127.0.0.1")
	v.Set("port", 8080)
	v.Set("embedding-dimensions", 512)

	p := FromViper(v)

	assert.Equal(t, 512, p.EmbeddingDimensions)
	assert.Equal(t, filepath.Join("/srv/portfolio", "knowledge.json"), p.Knowledge)
	assert.Equal(t, "/tmp/vectors.json", p.Embeddings)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, p.AllowedOrigins)
	assert.Equal(t, "127.0.0.1:8080", p.ListenAddr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr string
	}{
		{"valid", func(p *Profile) {}, ""},
		{"missing key", func(p *Profile) { p.OpenAIAPIKey = "" }, "missing OpenAI API key"},
		{"bad mode", func(p *Profile) { p.Mode = "demo" }, "invalid mode"},
		{"top-k zero", func(p *Profile) { p.TopK = 0 }, "top-k must be at least 1"},
		{"temperature high", func(p *Profile) { p.Temperature = 2.5 }, "temperature must be within"},
		{"temperature negative", func(p *Profile) { p.Temperature = -0.1 }, "temperature must be within"},
		{"max tokens negative", func(p *Profile) { p.MaxTokens = -1 }, "max-tokens"},
		{"negative dimensions", func(p *Profile) { p.EmbeddingDimensions = -1 }, "embedding-dimensions must not be negative"},
		{"zero timeout", func(p *Profile) { p.Timeout = 0 }, "timeout must be positive"},
		{"bad port", func(p *Profile) { p.Port = 70000 }, "invalid port"},
		{"bad log level", func(p *Profile) { p.LogLevel = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)

			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_ProdIsJSON(t *testing.T) {
	p := validProfile()
	p.Mode = "prod"
	var buf bytes.Buffer

	logger, err := p.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hello", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "v", record["k"])
}

func TestNewLogger_Level(t *testing.T) {
	p := validProfile()
	p.LogLevel = "warn"
	var buf bytes.Buffer

	logger, err := p.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}
