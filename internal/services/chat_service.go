package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/assistant"
	"github.com/isdelr/finance-tracker-be/internal/finance"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	chatTransactionWindow = 50
	promptRecentLimit     = 10
	maxHistoryTurns       = 10
	maxSuggestions        = 3
)

const systemInstruction = "You are a friendly financial assistant inside a personal finance tracker. " +
	"Answer using the user's data provided in the message. Be concise and practical, " +
	"and never invent transactions that are not listed."

// ChatServiceProvider defines the interface for the assistant.
type ChatServiceProvider interface {
	Reply(ctx context.Context, userID, message string, history []models.ChatTurn) (models.ChatReply, error)
}

// ChatService builds a data-grounded prompt and forwards it to a Generator.
type ChatService struct {
	users        storage.UserStore
	transactions storage.TransactionStore
	generator    assistant.Generator
	timeout      time.Duration
}

// NewChatService creates a new ChatService. A nil generator disables replies.
func NewChatService(users storage.UserStore, transactions storage.TransactionStore, generator assistant.Generator, timeout time.Duration) *ChatService {
	return &ChatService{users: users, transactions: transactions, generator: generator, timeout: timeout}
}

// Reply answers message in the context of the user's recent finances.
func (s *ChatService) Reply(ctx context.Context, userID, message string, history []models.ChatTurn) (models.ChatReply, error) {
	const op = "services.ChatService.Reply"

	if s.generator == nil {
		return models.ChatReply{}, ErrAssistantUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatReply{}, invalid("Message is required")
	}
	for _, turn := range history {
		if turn.Role != models.ChatRoleUser && turn.Role != models.ChatRoleAssistant {
			return models.ChatReply{}, invalid("Conversation roles must be user or assistant")
		}
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("%s: %w", op, err)
	}
	txs, err := s.transactions.ListTransactions(ctx, userID, chatTransactionWindow)
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("%s: %w", op, err)
	}

	summary := finance.Summarize(txs)
	prompt := BuildPrompt(summary, user.Budgets, txs, message)

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.generator.Generate(genCtx, systemInstruction, TrimHistory(history), prompt)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Assistant request failed")
		return models.ChatReply{}, fmt.Errorf("%s: %w", op, ErrAssistantFailed)
	}

	return models.ChatReply{
		Reply:       reply,
		Suggestions: Suggestions(summary, finance.BudgetStatuses(user.Budgets, summary)),
	}, nil
}

// TrimHistory keeps the most recent turns.
func TrimHistory(history []models.ChatTurn) []models.ChatTurn {
	if len(history) > maxHistoryTurns {
		return history[len(history)-maxHistoryTurns:]
	}
	return history
}

// BuildPrompt renders the user's financial context followed by their message.
// txs must be ordered newest first.
func BuildPrompt(summary finance.Summary, budgets []models.Budget, txs []models.Transaction, message string) string {
	var b strings.Builder

	b.WriteString("Here is the user's financial data.\n\n")
	fmt.Fprintf(&b, "Total income: %.2f\n", summary.TotalIncome)
	fmt.Fprintf(&b, "Total expenses: %.2f\n", summary.TotalExpense)
	fmt.Fprintf(&b, "Balance: %.2f\n", summary.Balance)

	b.WriteString("\nSpending by category:\n")
	categories := summary.Categories()
	if len(categories) == 0 {
		b.WriteString("- none\n")
	}
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %.2f\n", c.Category, c.Amount)
	}

	if len(budgets) > 0 {
		b.WriteString("\nBudgets:\n")
		for _, bud := range budgets {
			fmt.Fprintf(&b, "- %s: %.2f\n", bud.Category, bud.Amount)
		}
	}

	b.WriteString("\nRecent transactions:\n")
	if len(txs) == 0 {
		b.WriteString("- none\n")
	}
	for i, tx := range txs {
		if i == promptRecentLimit {
			break
		}
		fmt.Fprintf(&b, "- %s %s %.2f %s", tx.Date.UTC().Format(time.DateOnly), tx.Type, tx.Amount, tx.Category)
		if tx.Description != "" {
			fmt.Fprintf(&b, " (%s)", tx.Description)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nUser question: %s", message)
	return b.String()
}

// Suggestions derives follow-up questions from the data alone, so the same
// data always yields the same suggestions.
func Suggestions(summary finance.Summary, statuses []finance.BudgetStatus) []string {
	var out []string
	add := func(s string) {
		if len(out) < maxSuggestions {
			out = append(out, s)
		}
	}

	for _, st := range statuses {
		if st.State == finance.BudgetOver {
			add(fmt.Sprintf("How can I get back under my %s budget?", st.Category))
		}
	}
	if cats := summary.Categories(); len(cats) > 0 {
		add(fmt.Sprintf("How can I spend less on %s?", cats[0].Category))
	}
	if summary.Balance < 0 {
		add("Why am I spending more than I earn?")
	}
	if len(statuses) == 0 {
		add("Which budgets should I set up?")
	} else {
		add("Am I on track with my budgets this month?")
	}
	add("What's my total spending?")
	return out
}
