package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/finance"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatUnavailableWithoutGenerator(t *testing.T) {
	svc := NewChatService(nil, nil, nil, time.Second)

	_, err := svc.Reply(context.Background(), "u1", "hi", nil)
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}

func TestChatReply(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	users := NewUserService(store, newTestTokens(), testSessionTTL, NewEventService(store), nil)
	ada, _ := seedUsers(t, users)
	_, err := users.UpdateBudgets(ctx, ada, []models.Budget{{Category: "Food", Amount: 100}})
	require.NoError(t, err)

	txs := NewTransactionService(store, nil)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		_, err := txs.Create(ctx, ada, models.Transaction{
			Type: models.TransactionExpense, Amount: 10, Date: base.AddDate(0, 0, i), Category: "Food",
			Description: fmt.Sprintf("meal %d", i),
		})
		require.NoError(t, err)
	}

	gen := &fakeGenerator{reply: "You spent 120 on food."}
	svc := NewChatService(store, store, gen, time.Second)

	history := make([]models.ChatTurn, 0, 12)
	for i := 0; i < 12; i++ {
		role := models.ChatRoleUser
		if i%2 == 1 {
			role = models.ChatRoleAssistant
		}
		history = append(history, models.ChatTurn{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	reply, err := svc.Reply(ctx, ada, "What's my total spending?", history)
	require.NoError(t, err)

	assert.Equal(t, "You spent 120 on food.", reply.Reply)
	assert.Equal(t, []string{
		"How can I get back under my Food budget?",
		"How can I spend less on Food?",
		"Why am I spending more than I earn?",
	}, reply.Suggestions)

	require.Len(t, gen.history, 10)
	assert.Equal(t, "turn 2", gen.history[0].Content)
	assert.NotEmpty(t, gen.system)

	assert.Contains(t, gen.prompt, "Total expenses: 120.00")
	assert.Contains(t, gen.prompt, "- Food: 120.00")
	assert.Contains(t, gen.prompt, "meal 11")
	assert.Contains(t, gen.prompt, "meal 2")
	assert.NotContains(t, gen.prompt, "meal 1)")
	assert.True(t, strings.HasSuffix(gen.prompt, "User question: What's my total spending?"))
}

func TestChatGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	users := NewUserService(store, newTestTokens(), testSessionTTL, NewEventService(store), nil)
	ada, _ := seedUsers(t, users)

	gen := &fakeGenerator{err: errBoom}
	_, err := NewChatService(store, store, gen, time.Second).Reply(ctx, ada, "hello", nil)

	assert.ErrorIs(t, err, ErrAssistantFailed)
	assert.NotContains(t, err.Error(), "boom")
	assert.Equal(t, 1, gen.calls)
}

func TestChatValidation(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewChatService(nil, nil, gen, time.Second)

	_, err := svc.Reply(context.Background(), "u1", "  ", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Reply(context.Background(), "u1", "hi", []models.ChatTurn{{Role: "system", Content: "x"}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, gen.calls)
}

func TestBuildPromptEmptyData(t *testing.T) {
	prompt := BuildPrompt(finance.Summarize(nil), nil, nil, "hello")

	assert.Contains(t, prompt, "Total income: 0.00")
	assert.NotContains(t, prompt, "Budgets:")
	assert.Contains(t, prompt, "User question: hello")
}

func TestSuggestionsDeterministic(t *testing.T) {
	s := finance.Summarize([]models.Transaction{{Type: models.TransactionExpense, Amount: 5, Category: "Fun"}})

	first := Suggestions(s, nil)
	second := Suggestions(s, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"How can I spend less on Fun?",
		"Why am I spending more than I earn?",
		"Which budgets should I set up?",
	}, first)
}
