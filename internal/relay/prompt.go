package relay

import (
	"strings"

	"quicksquad-chat/internal/domain"
)

const systemInstruction = "You are QuickSquad's website chat assistant for U.S. residents. " +
	"Goals: (1) solve everyday tech and digital tasks, " +
	"(2) be clear and brief (<= 8 steps), " +
	"(3) add one-sentence safety note when appropriate, " +
	"(4) if asked for personalized finance/legal/medical advice, provide general info + disclaimer and suggest professional help, " +
	"(5) never request sensitive credentials, OTPs, SSNs, or full card numbers, " +
	"(6) when an issue needs a human, offer: support@quicksquad.live. " +
	"Tone: warm, direct, professional."

// buildPromptMessages prepends the relay's system instruction to the
// caller's messages, which are forwarded verbatim.
func buildPromptMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages)+1)
	out = append(out, domain.Message{Role: domain.RoleSystem, Content: systemInstruction})
	return append(out, messages...)
}

// guardrailTripped reports whether the final message asks to share a
// password. It is a case-insensitive substring check, not a classifier.
func guardrailTripped(messages []domain.Message) bool {
	last := strings.ToLower(domain.Conversation(messages).Last().Content)
	return strings.Contains(last, "password") && strings.Contains(last, "share")
}
