package swarm

import (
	"context"
	"fmt"
	"strings"

	"github.com/EikiYamashiro/agent-swarm/engine/model"
	"github.com/EikiYamashiro/agent-swarm/logger"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

// escalationKeywords trigger automatic ticket creation for a support inquiry.
var escalationKeywords = []string{
	"dispute", "chargeback", "refund", "unauthorized", "stolen", "missing",
}

const supportFallbackAnswer = "I apologize, but I was unable to generate a proper response. Please try again."

// Support answers customer support inquiries using the user's profile as
// context and escalates to a ticket when the message warrants it.
type Support struct {
	store    storage.Store
	provider model.Provider
	log      *logger.Logger
}

// NewSupport wires a support handler over the given store and model.
func NewSupport(store storage.Store, provider model.Provider, log *logger.Logger) *Support {
	if log == nil {
		log = logger.NewNop()
	}
	return &Support{store: store, provider: provider, log: log.With("component", "support")}
}

// Handle processes a support request. Model failures degrade to a canned
// apology; a failed user lookup just means no profile context. A ticket is
// attached only when the message contains an escalation keyword.
func (s *Support) Handle(ctx context.Context, userID, message string) (*Result, error) {
	tools := []string{}

	profileContext := "No user-specific context available."
	user, err := s.store.GetUser(ctx, userID)
	if err == nil {
		tools = append(tools, "get_user_profile")
		profileContext = formatProfile(user)
	} else {
		s.log.Warn("user lookup failed", "user_id", userID, "error", err)
	}

	prompt := fmt.Sprintf(
		"You are a customer support assistant for Infinitepay. Use the user context below to answer the user's question. "+
			"If the user appears to report an issue that requires escalation (e.g., disputed charge, missing funds, account suspension), recommend creating a support ticket. "+
			"Keep privacy in mind and avoid revealing sensitive tokens or PII beyond what's necessary.\n\n"+
			"User question: %s\n\nContext:\n%s\n\nResponse:",
		message, profileContext)

	answer, err := model.Complete(ctx, s.provider, prompt, 300)
	if err != nil {
		s.log.Warn("support generation failed", "error", err)
		answer = ""
	}
	if strings.TrimSpace(answer) == "" {
		answer = supportFallbackAnswer
	}

	var ticket *storage.Ticket
	if needsEscalation(message) {
		subject := "Support request: " + truncateRunes(message, 60)
		body := fmt.Sprintf("Auto-created from support agent. User: %s\nQuestion: %s\nContext:\n%s",
			userID, message, profileContext)

		ticket, err = s.store.CreateTicket(ctx, userID, subject, body)
		if err != nil {
			s.log.Warn("ticket creation failed", "user_id", userID, "error", err)
			ticket = nil
		} else {
			tools = append(tools, "create_support_ticket")
			answer += fmt.Sprintf("\n\nA support ticket has been created with ID %s. Our team will follow up.", ticket.TicketID)
		}
	}

	return &Result{Answer: answer, ToolsUsed: tools, Ticket: ticket}, nil
}

func needsEscalation(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range escalationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// formatProfile renders the profile fields the model may see. Transactions
// stay out of the prompt.
func formatProfile(u *storage.User) string {
	return fmt.Sprintf("User Profile:\nuser_id: %s\nname: %s\nemail: %s\naccount_status: %s\ncreated_at: %s",
		u.UserID, u.Name, u.Email, u.AccountStatus, u.CreatedAt)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
