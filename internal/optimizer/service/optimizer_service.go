package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dockopt/dockopt-backend/internal/logging"
	"github.com/dockopt/dockopt-backend/internal/optimizer/domain"
	"github.com/dockopt/dockopt-backend/internal/optimizer/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Assistant is the completion backend used by the service
type Assistant interface {
	Optimize(ctx context.Context, dockerfile string) (string, error)
	Chat(ctx context.Context, prompt string) (string, error)
}

// OptimizerService handles Dockerfile sessions, optimization and chat
type OptimizerService struct {
	store  repository.SessionStore
	ai     Assistant
	logger *zap.Logger
	newID  func() string
}

// NewOptimizerService creates a new OptimizerService
func NewOptimizerService(store repository.SessionStore, ai Assistant, logger *zap.Logger) *OptimizerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptimizerService{
		store:  store,
		ai:     ai,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}
}

// Upload stores content under a fresh session ID
func (s *OptimizerService) Upload(ctx context.Context, filename string, content []byte) (*domain.UploadResult, error) {
	if !utf8.Valid(content) {
		return nil, domain.ErrInvalidEncoding
	}
	dockerfile := string(content)

	id := s.newID()
	if err := s.store.Put(ctx, id, dockerfile); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	logging.FromContext(ctx, s.logger).Info("dockerfile uploaded",
		zap.String("session_id", id),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)),
	)

	return &domain.UploadResult{
		SessionID:  id,
		Filename:   filename,
		Dockerfile: dockerfile,
	}, nil
}

// Lint returns lint findings for the session's Dockerfile
func (s *OptimizerService) Lint(ctx context.Context, sessionID string) ([]domain.LintResult, error) {
	raw, err := s.rawOrEmpty(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return lintDockerfile(raw), nil
}

// Layers returns the per-layer size breakdown for the session's Dockerfile
func (s *OptimizerService) Layers(ctx context.Context, sessionID string) ([]domain.LayerEntry, error) {
	raw, err := s.rawOrEmpty(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return profileLayers(raw), nil
}

// Suggestions asks the model for an optimized Dockerfile and returns it line
// by line. It always calls the model and does not touch the stored session.
func (s *OptimizerService) Suggestions(ctx context.Context, sessionID string) ([]string, error) {
	raw, err := s.rawOrEmpty(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	text, err := s.callOptimize(ctx, raw)
	if err != nil {
		return nil, err
	}
	return splitLines(text), nil
}

// Optimize (re)creates the session with dockerfile, runs lint, layer profiling
// and the model, and stores the optimized text. An empty sessionID gets a new one.
func (s *OptimizerService) Optimize(ctx context.Context, sessionID, dockerfile string) (*domain.OptimizeResult, error) {
	if sessionID == "" {
		sessionID = s.newID()
	}

	if err := s.store.Put(ctx, sessionID, dockerfile); err != nil {
		return nil, fmt.Errorf("store dockerfile: %w", err)
	}

	lintResults := lintDockerfile(dockerfile)
	layerReport := profileLayers(dockerfile)

	optimized, err := s.callOptimize(ctx, dockerfile)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetOptimized(ctx, sessionID, optimized); err != nil {
		return nil, fmt.Errorf("store optimized dockerfile: %w", err)
	}

	logging.FromContext(ctx, s.logger).Info("dockerfile optimized",
		zap.String("session_id", sessionID),
		zap.Int("optimized_bytes", len(optimized)),
	)

	return &domain.OptimizeResult{
		SessionID:           sessionID,
		OptimizedDockerfile: optimized,
		LintResults:         lintResults,
		LayerReport:         layerReport,
	}, nil
}

// Chat answers question about the session's Dockerfiles and returns history
// with the answer appended. Unknown sessions yield domain.ErrSessionNotFound
// before the model is contacted.
func (s *OptimizerService) Chat(ctx context.Context, sessionID string, history []domain.ChatTurn, question string) (*domain.ChatResult, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prompt := BuildChatPrompt(sess.Raw, sess.OptimizedOrRaw(), history, question)

	start := time.Now()
	answer, err := s.ai.Chat(ctx, prompt)
	if err != nil {
		logging.FromContext(ctx, s.logger).Error("ai chat failed",
			zap.String("session_id", sessionID),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("ai chat: %w", err)
	}

	out := make([]domain.ChatTurn, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, domain.ChatTurn{Role: domain.RoleAssistant, Content: answer})

	return &domain.ChatResult{
		Response: answer,
		History:  out,
	}, nil
}

func (s *OptimizerService) callOptimize(ctx context.Context, dockerfile string) (string, error) {
	start := time.Now()
	text, err := s.ai.Optimize(ctx, dockerfile)
	if err != nil {
		logging.FromContext(ctx, s.logger).Error("ai optimize failed",
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("ai optimize: %w", err)
	}
	return text, nil
}

// rawOrEmpty treats unknown sessions as an empty Dockerfile.
func (s *OptimizerService) rawOrEmpty(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return sess.Raw, nil
}
