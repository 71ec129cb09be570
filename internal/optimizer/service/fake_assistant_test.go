package service

import (
	"context"
	"sync"
)

// fakeAssistant records prompts and returns canned answers.
type fakeAssistant struct {
	mu             sync.Mutex
	optimizeAnswer []string
	chatAnswer     string
	err            error

	optimizeCalls []string
	chatPrompts   []string
}

func (f *fakeAssistant) Optimize(_ context.Context, dockerfile string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optimizeCalls = append(f.optimizeCalls, dockerfile)
	if f.err != nil {
		return "", f.err
	}
	if len(f.optimizeAnswer) == 0 {
		return "", nil
	}
	i := len(f.optimizeCalls) - 1
	if i >= len(f.optimizeAnswer) {
		i = len(f.optimizeAnswer) - 1
	}
	return f.optimizeAnswer[i], nil
}

func (f *fakeAssistant) Chat(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatPrompts = append(f.chatPrompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.chatAnswer, nil
}
