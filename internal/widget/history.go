package widget

import (
	"encoding/json"

	"quicksquad-chat/internal/domain"
)

const (
	// HistoryKey is the storage key a session persists its thread under.
	HistoryKey = "qs_thread_v1"

	// MaxHistory caps the persisted thread; the oldest entries go first.
	MaxHistory = 24
)

func encodeHistory(h domain.Conversation) ([]byte, error) {
	if h == nil {
		h = domain.Conversation{}
	}
	return json.Marshal(h)
}

// decodeHistory parses a stored thread verbatim. Anything that does not parse
// as a message array, including JSON null, yields an empty history.
func decodeHistory(data []byte) domain.Conversation {
	var h domain.Conversation
	if err := json.Unmarshal(data, &h); err != nil || h == nil {
		return domain.Conversation{}
	}
	return h
}
