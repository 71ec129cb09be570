package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dockopt/dockopt-backend/internal/optimizer/domain"
	"github.com/dockopt/dockopt-backend/internal/optimizer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupService(ai *fakeAssistant) (*OptimizerService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewOptimizerService(store, ai, nil), store
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	svc, store := setupService(&fakeAssistant{})

	t.Run("stores raw text under a new id", func(t *testing.T) {
		res, err := svc.Upload(ctx, "Dockerfile", []byte("FROM node:20\nRUN npm ci\n"))
		require.NoError(t, err)
		assert.NotEmpty(t, res.SessionID)
		assert.Equal(t, "Dockerfile", res.Filename)
		assert.Equal(t, "FROM node:20\nRUN npm ci\n", res.Dockerfile)

		sess, err := store.Get(ctx, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, res.Dockerfile, sess.Raw)
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			res, err := svc.Upload(ctx, "Dockerfile", []byte("FROM scratch"))
			require.NoError(t, err)
			assert.False(t, seen[res.SessionID], "duplicate id %s", res.SessionID)
			seen[res.SessionID] = true
		}
	})

	t.Run("rejects invalid utf-8", func(t *testing.T) {
		_, err := svc.Upload(ctx, "Dockerfile", []byte{0xff, 0xfe, 0x00})
		assert.ErrorIs(t, err, domain.ErrInvalidEncoding)
	})
}

func TestLintAndLayers_AlwaysEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(&fakeAssistant{})

	up, err := svc.Upload(ctx, "Dockerfile", []byte("FROM golang:1.25\nCOPY . .\n"))
	require.NoError(t, err)

	for _, id := range []string{up.SessionID, "unknown"} {
		lint, err := svc.Lint(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, lint)
		assert.Empty(t, lint)

		layers, err := svc.Layers(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, layers)
		assert.Empty(t, layers)
	}
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()

	t.Run("splits the model answer into lines", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{"FROM alpine\r\nRUN apk add curl\n"}}
		svc, _ := setupService(ai)
		up, err := svc.Upload(ctx, "Dockerfile", []byte("FROM ubuntu"))
		require.NoError(t, err)

		lines, err := svc.Suggestions(ctx, up.SessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"FROM alpine", "RUN apk add curl"}, lines)
		assert.Equal(t, []string{"FROM ubuntu"}, ai.optimizeCalls)
	})

	t.Run("recomputes even when an optimized text is stored", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{"first", "second"}}
		svc, store := setupService(ai)

		res, err := svc.Optimize(ctx, "", "FROM debian")
		require.NoError(t, err)

		lines, err := svc.Suggestions(ctx, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, []string{"second"}, lines)
		assert.Len(t, ai.optimizeCalls, 2)

		sess, err := store.Get(ctx, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "first", *sess.Optimized)
	})

	t.Run("unknown session optimizes an empty document", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{""}}
		svc, _ := setupService(ai)

		lines, err := svc.Suggestions(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, []string{}, lines)
		assert.Equal(t, []string{""}, ai.optimizeCalls)
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		ai := &fakeAssistant{err: errors.New("upstream down")}
		svc, _ := setupService(ai)

		_, err := svc.Suggestions(ctx, "missing")
		assert.ErrorContains(t, err, "upstream down")
	})
}

func TestOptimize(t *testing.T) {
	ctx := context.Background()

	t.Run("new session", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{"FROM alpine"}}
		svc, store := setupService(ai)

		res, err := svc.Optimize(ctx, "", "FROM ubuntu")
		require.NoError(t, err)
		assert.NotEmpty(t, res.SessionID)
		assert.Equal(t, "FROM alpine", res.OptimizedDockerfile)
		assert.Equal(t, []domain.LintResult{}, res.LintResults)
		assert.Equal(t, []domain.LayerEntry{}, res.LayerReport)

		sess, err := store.Get(ctx, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "FROM ubuntu", sess.Raw)
		assert.Equal(t, "FROM alpine", *sess.Optimized)
	})

	t.Run("second call overwrites optimized text", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{"v1", "v2"}}
		svc, store := setupService(ai)

		first, err := svc.Optimize(ctx, "fixed-id", "FROM ubuntu")
		require.NoError(t, err)
		second, err := svc.Optimize(ctx, first.SessionID, "FROM ubuntu")
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", second.SessionID)

		sess, err := store.Get(ctx, "fixed-id")
		require.NoError(t, err)
		assert.Equal(t, "v2", *sess.Optimized)
	})

	t.Run("replaces the raw text of an uploaded session", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{"opt"}}
		svc, store := setupService(ai)

		up, err := svc.Upload(ctx, "Dockerfile", []byte("FROM old"))
		require.NoError(t, err)
		_, err = svc.Optimize(ctx, up.SessionID, "FROM new")
		require.NoError(t, err)

		sess, err := store.Get(ctx, up.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "FROM new", sess.Raw)
	})

	t.Run("upstream failure leaves no optimized text", func(t *testing.T) {
		ai := &fakeAssistant{err: errors.New("quota exceeded")}
		svc, store := setupService(ai)

		_, err := svc.Optimize(ctx, "s1", "FROM ubuntu")
		require.ErrorContains(t, err, "quota exceeded")

		sess, err := store.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, sess.Optimized)
	})
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown session never reaches the model", func(t *testing.T) {
		ai := &fakeAssistant{chatAnswer: "unused"}
		svc, _ := setupService(ai)

		_, err := svc.Chat(ctx, "missing", nil, "why?")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		assert.Empty(t, ai.chatPrompts)
	})

	t.Run("appends the answer as assistant turn", func(t *testing.T) {
		ai := &fakeAssistant{chatAnswer: "Pin the base image."}
		svc, _ := setupService(ai)
		up, err := svc.Upload(ctx, "Dockerfile", []byte("FROM node"))
		require.NoError(t, err)

		history := []domain.ChatTurn{
			{Role: domain.RoleUser, Content: "hi"},
			{Role: domain.RoleAssistant, Content: "hello"},
		}
		res, err := svc.Chat(ctx, up.SessionID, history, "what next?")
		require.NoError(t, err)

		assert.Equal(t, "Pin the base image.", res.Response)
		require.Len(t, res.History, len(history)+1)
		assert.Equal(t, history, res.History[:2])
		assert.Equal(t, domain.RoleAssistant, res.History[2].Role)
		assert.Equal(t, "Pin the base image.", res.History[2].Content)
		assert.Len(t, history, 2, "input history must not be modified")
	})

	t.Run("prompt uses raw text when nothing was optimized", func(t *testing.T) {
		ai := &fakeAssistant{chatAnswer: "ok"}
		svc, _ := setupService(ai)
		up, err := svc.Upload(ctx, "Dockerfile", []byte("FROM raw"))
		require.NoError(t, err)

		_, err = svc.Chat(ctx, up.SessionID, nil, "q")
		require.NoError(t, err)
		require.Len(t, ai.chatPrompts, 1)
		assert.Equal(t, BuildChatPrompt("FROM raw", "FROM raw", nil, "q"), ai.chatPrompts[0])
	})

	t.Run("optimize then chat resolves to the same raw document", func(t *testing.T) {
		ai := &fakeAssistant{optimizeAnswer: []string{"FROM slim"}, chatAnswer: "ok"}
		svc, _ := setupService(ai)

		res, err := svc.Optimize(ctx, "", "FROM fat")
		require.NoError(t, err)
		_, err = svc.Chat(ctx, res.SessionID, nil, "diff?")
		require.NoError(t, err)

		assert.Equal(t, BuildChatPrompt("FROM fat", "FROM slim", nil, "diff?"), ai.chatPrompts[0])
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		ai := &fakeAssistant{err: errors.New("timeout")}
		svc, _ := setupService(ai)
		up, err := svc.Upload(ctx, "Dockerfile", []byte("FROM x"))
		require.NoError(t, err)

		_, err = svc.Chat(ctx, up.SessionID, nil, "q")
		assert.ErrorContains(t, err, "timeout")
	})
}
