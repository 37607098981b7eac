package pipeline_test

import (
	"context"
	"sync"

	"github.com/Samuelzila/grammar-police/internal/model"
)

type mockAuthorizer struct {
	isAuthorizedFn func(ctx context.Context, sender model.SenderID) (bool, error)
}

func (m *mockAuthorizer) IsAuthorized(ctx context.Context, sender model.SenderID) (bool, error) {
	if m.isAuthorizedFn != nil {
		return m.isAuthorizedFn(ctx, sender)
	}
	return true, nil
}

type mockAnalyzer struct {
	checkFn func(ctx context.Context, text string) ([]model.Issue, error)
	calls   int
}

func (m *mockAnalyzer) Check(ctx context.Context, text string) ([]model.Issue, error) {
	m.calls++
	if m.checkFn != nil {
		return m.checkFn(ctx, text)
	}
	return nil, nil
}

type mockReplier struct {
	mu      sync.Mutex
	replyFn func(ctx context.Context, msg model.InboundMessage, content string) error
	sent    []string
}

func (m *mockReplier) Reply(ctx context.Context, msg model.InboundMessage, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replyFn != nil {
		if err := m.replyFn(ctx, msg, content); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, content)
	return nil
}
