package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/store"
)

func newTestProfile(t *testing.T) *profile.Profile {
	t.Helper()
	t.Setenv("LOCONOMY_LLM_API_KEY", "")
	t.Setenv("LOCONOMY_LLM_PROVIDER", "openai")
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
	p.DSN = filepath.Join(p.Data, "cli.db")
	p.FromEnv()
	require.NoError(t, p.Validate())
	return p
}

func TestSeedListings(t *testing.T) {
	ctx := context.Background()
	s, err := openStore(ctx, newTestProfile(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	n, err := seedListings(ctx, s, false)
	require.NoError(t, err)
	assert.Equal(t, len(demoListings), n)

	n, err = seedListings(ctx, s, false)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := s.ListServiceListings(ctx, &store.FindServiceListing{Query: "cleaning", Location: "Austin"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sparkle Home", list[0].Name)
}

func TestNewApp_SearchesSeededListings(t *testing.T) {
	ctx := context.Background()
	p := newTestProfile(t)

	a, err := newApp(ctx, p)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Close(ctx)
		_ = a.store.Close()
	})

	_, err = seedListings(ctx, a.store, false)
	require.NoError(t, err)

	resp := a.agent.ProcessInput(ctx, "/find plumbing", &agent.Context{UserID: "u1", Location: "Austin"})
	assert.Equal(t, agent.KindUI, resp.Kind)
	assert.Contains(t, resp.Content, "Pipe Pros")
	assert.NotContains(t, resp.Content, "Drain Kings")
}

func TestCommandCompleter(t *testing.T) {
	a := agent.New(agent.DefaultConfig(), nil, nil)
	complete := commandCompleter(a)

	assert.Equal(t, []string{"/refer ", "/reschedule "}, complete("/re"))
	assert.Nil(t, complete("find"))
	assert.Nil(t, complete("/find plumb"))
}

func TestFormatResponse(t *testing.T) {
	resp := &agent.Response{
		Kind:    agent.KindAction,
		Content: "Cancelling booking b1.",
		Actions: []agent.Action{{Kind: agent.ActionCancel, Target: "b1"}, {Kind: agent.ActionFormFill}},
	}
	assert.Equal(t, "Cancelling booking b1.\n  [cancel -> b1]\n  [form_fill]", formatResponse(resp))
}
