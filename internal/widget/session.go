// Package widget implements the chat widget's session: visible transcript,
// pending indicator, persisted sliding-window history and the
// request/response cycle against the relay.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"quicksquad-chat/internal/domain"
)

const (
	systemPrompt = "You are QuickSquad's AI assistant for U.S. users. Be concise, friendly, and practical. " +
		"Give step-by-step guidance for tech support, online banking setup, navigation, and general info. " +
		"Include short safety notes where relevant. " +
		"DO NOT provide personalized financial, medical, or legal advice; " +
		"offer general info and suggest contacting a professional if asked for specifics."

	// FallbackReply is shown when an exchange fails for any reason.
	FallbackReply = "Sorry — I ran into an issue. Please try again in a moment or contact support@quicksquad.live."
)

var ErrEmptyMessage = errors.New("widget: message is empty")

// Store is the persistence port. Load returns an error when nothing is stored.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Asker sends a conversation to the relay and returns the reply.
type Asker interface {
	Ask(ctx context.Context, messages []domain.Message) (string, error)
}

type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Entry is one visible transcript line.
type Entry struct {
	Who  Speaker
	Text string
}

// Renderer draws session state. Calls are made with the session lock held,
// so implementations must not call back into the Session.
type Renderer interface {
	Append(e Entry)
	SetPending(pending bool)
	SetOpen(open bool)
}

type nopRenderer struct{}

func (nopRenderer) Append(Entry)    {}
func (nopRenderer) SetPending(bool) {}
func (nopRenderer) SetOpen(bool)    {}

// Session is one widget instance. Independent sessions share nothing.
type Session struct {
	cfg      Config
	store    Store
	asker    Asker
	renderer Renderer
	logger   *slog.Logger
	key      string

	mu         sync.Mutex
	open       bool
	pending    bool
	transcript []Entry
	history    domain.Conversation
}

type Option func(*Session)

func WithRenderer(r Renderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorageKey persists under key instead of HistoryKey, letting several
// sessions share one store.
func WithStorageKey(key string) Option {
	return func(s *Session) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

// New merges cfg over Defaults and restores any persisted history.
func New(ctx context.Context, cfg Config, store Store, asker Asker, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("widget: store must not be nil")
	}
	if asker == nil {
		return nil, errors.New("widget: asker must not be nil")
	}
	s := &Session{
		cfg:      Merge(Defaults(), cfg),
		store:    store,
		asker:    asker,
		renderer: nopRenderer{},
		logger:   slog.Default(),
		key:      HistoryKey,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := store.Load(ctx, s.key)
	if err != nil {
		s.logger.Debug("no persisted history", "key", s.key, "err", err)
		s.history = domain.Conversation{}
	} else {
		s.history = decodeHistory(data)
	}
	return s, nil
}

func (s *Session) Config() Config {
	return s.cfg
}

// Toggle flips visibility and reports whether the panel is now open.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.closeLocked()
	} else {
		s.openLocked()
	}
	return s.open
}

func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openLocked()
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) openLocked() {
	if s.open {
		return
	}
	s.open = true
	s.renderer.SetOpen(true)
	if len(s.transcript) == 0 {
		s.appendLocked(Entry{Who: SpeakerBot, Text: s.cfg.Greeting})
	}
}

func (s *Session) closeLocked() {
	if !s.open {
		return
	}
	s.open = false
	s.renderer.SetOpen(false)
}

// Submit runs one exchange. Failures are shown to the user as FallbackReply
// and returned for diagnostics; persisted history is only touched on success.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	user := domain.Message{Role: domain.RoleUser, Content: text}

	s.mu.Lock()
	s.appendLocked(Entry{Who: SpeakerUser, Text: text})
	s.setPendingLocked(true)
	base := s.history.Clone()
	s.mu.Unlock()

	outgoing := domain.Conversation{{Role: domain.RoleSystem, Content: systemPrompt}}.With(base...).With(user)
	reply, err := s.asker.Ask(ctx, outgoing)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.setPendingLocked(false)

	if err != nil {
		s.logger.Warn("chat exchange failed", "err", err)
		s.appendLocked(Entry{Who: SpeakerBot, Text: FallbackReply})
		return fmt.Errorf("widget: submit: %w", err)
	}

	s.appendLocked(Entry{Who: SpeakerBot, Text: reply})
	// Stored threads omit the system prompt, unlike the browser widget's layout.
	next := base.With(user, domain.Message{Role: domain.RoleAssistant, Content: reply}).Window(MaxHistory)
	s.history = next
	s.persistLocked(ctx, next)
	return nil
}

// QuickPrompt submits the i-th configured quick-prompt label.
func (s *Session) QuickPrompt(ctx context.Context, i int) error {
	if i < 0 || i >= len(s.cfg.QuickPrompts) {
		return fmt.Errorf("widget: quick prompt %d out of range", i)
	}
	return s.Submit(ctx, s.cfg.QuickPrompts[i])
}

// persistLocked stores the history; a failed write is logged and dropped.
func (s *Session) persistLocked(ctx context.Context, h domain.Conversation) {
	data, err := encodeHistory(h)
	if err != nil {
		s.logger.Warn("encode history", "err", err)
		return
	}
	if err := s.store.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("persist history", "key", s.key, "err", err)
	}
}

func (s *Session) appendLocked(e Entry) {
	s.transcript = append(s.transcript, e)
	s.renderer.Append(e)
}

func (s *Session) setPendingLocked(p bool) {
	s.pending = p
	s.renderer.SetPending(p)
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.transcript...)
}

func (s *Session) History() domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clone()
}
