package profile

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"LOCONOMY_LLM_PROVIDER", "LOCONOMY_LLM_API_KEY", "LOCONOMY_LLM_MODEL",
		"LOCONOMY_MEMORY_BACKEND", "LOCONOMY_TRACE_EXPORTER", "LOCONOMY_STALE_AFTER_DAYS",
	} {
		t.Setenv(key, "")
	}

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", p.LLMModel)
	assert.Equal(t, 60, p.LLMTimeout)
	assert.Equal(t, 8, p.LLMMaxConcurrent)
	assert.Equal(t, MemoryBackendInProcess, p.MemoryBackend)
	assert.Equal(t, "none", p.TraceExporter)
	assert.Equal(t, 7*24*time.Hour, p.StaleAfter())
	assert.Equal(t, 15*time.Second, p.CompletionTimeoutDuration())
	assert.False(t, p.IsAIEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) any
		expected any
	}{
		{"provider", "LOCONOMY_LLM_PROVIDER", "deepseek", func(p *Profile) any { return p.LLMModel }, "deepseek-chat"},
		{"api key", "LOCONOMY_LLM_API_KEY", "sk-test", func(p *Profile) any { return p.IsAIEnabled() }, true},
		{"rps", "LOCONOMY_LLM_RPS", "2.5", func(p *Profile) any { return p.LLMRequestsPerSecond }, 2.5},
		{"memory ttl", "LOCONOMY_MEMORY_TTL_SECONDS", "3600", func(p *Profile) any { return p.MemoryTTL }, 3600},
		{"bad int keeps default", "LOCONOMY_STALE_AFTER_DAYS", "soon", func(p *Profile) any { return p.StaleAfterDays }, 7},
		{"unknown provider", "LOCONOMY_LLM_PROVIDER", "acme", func(p *Profile) any { return p.LLMProvider }, "openai"},
		{"trace insecure", "LOCONOMY_TRACE_INSECURE", "true", func(p *Profile) any { return p.TraceInsecure }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.envValue)
			p := &Profile{}
			p.FromEnv()
			assert.Equal(t, tt.expected, tt.field(p))
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "weird", Data: dir}
	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, filepath.Join(dir, "loconomy_demo.db"), p.DSN)
	assert.Equal(t, MemoryBackendInProcess, p.MemoryBackend)
	assert.Equal(t, 15, p.CompletionTimeout)
	assert.True(t, p.IsDev())
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		profile Profile
	}{
		{"postgres without dsn", Profile{Data: dir, Driver: "postgres"}},
		{"unknown driver", Profile{Data: dir, Driver: "mysql"}},
		{"redis without addr", Profile{Data: dir, MemoryBackend: MemoryBackendRedis}},
		{"unknown memory backend", Profile{Data: dir, MemoryBackend: "memcached"}},
		{"missing data dir", Profile{Data: filepath.Join(dir, "nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			assert.Error(t, p.Validate())
		})
	}
}
