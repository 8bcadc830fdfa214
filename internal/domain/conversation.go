package domain

// Conversation is an ordered list of messages, oldest first.
type Conversation []Message

// Last returns the final message, or the zero Message when empty.
func (c Conversation) Last() Message {
	if len(c) == 0 {
		return Message{}
	}
	return c[len(c)-1]
}

// Window returns the most recent n messages as a new slice. Older messages are
// dropped first; n <= 0 yields an empty conversation.
func (c Conversation) Window(n int) Conversation {
	if n <= 0 {
		return Conversation{}
	}
	start := 0
	if len(c) > n {
		start = len(c) - n
	}
	out := make(Conversation, len(c)-start)
	copy(out, c[start:])
	return out
}

// With returns a copy of c with msgs appended; c itself is not modified.
func (c Conversation) With(msgs ...Message) Conversation {
	out := make(Conversation, 0, len(c)+len(msgs))
	out = append(out, c...)
	return append(out, msgs...)
}

// Clone returns an independent copy of c.
func (c Conversation) Clone() Conversation {
	return c.Window(len(c))
}
