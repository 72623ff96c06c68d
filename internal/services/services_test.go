package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
)

const testSessionTTL = time.Hour

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", "finance-tracker")
}

// recordingSender captures messages and can be told to fail.
type recordingSender struct {
	mu   sync.Mutex
	sent []models.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) last() models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[len(s.sent)-1]
}

// recordingNotifier captures pushed actions.
type recordingNotifier struct {
	mu      sync.Mutex
	actions []string
}

func (n *recordingNotifier) Notify(_, action string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.actions = append(n.actions, action)
}

type fakeProvider struct {
	identity models.ExternalIdentity
	err      error
	calls    int
}

func (p *fakeProvider) Exchange(context.Context, string) (models.ExternalIdentity, error) {
	p.calls++
	return p.identity, p.err
}

type fakeGenerator struct {
	reply   string
	err     error
	system  string
	history []models.ChatTurn
	prompt  string
	calls   int
}

func (g *fakeGenerator) Generate(_ context.Context, system string, history []models.ChatTurn, prompt string) (string, error) {
	g.calls++
	g.system, g.history, g.prompt = system, history, prompt
	return g.reply, g.err
}

var errBoom = errors.New("boom")

func jwtDate(t time.Time) *jwt.NumericDate {
	return jwt.NewNumericDate(t)
}
