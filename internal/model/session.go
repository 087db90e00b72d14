package model

import "time"

// Sender identifies who wrote a chat turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatTurn is one entry of a chat transcript.
type ChatTurn struct {
	Sender  Sender `json:"sender"`
	Message string `json:"message"`
}

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the server-side state attached to one browser.
//
// The browser only ever sees a signed token carrying the ID; everything else
// lives in the session store. UserID is zero for anonymous visitors.
type Session struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"userId"`
	Transcript []ChatTurn `json:"transcript"`
	Flashes    []Flash    `json:"flashes"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// Authenticated reports whether an administrator is logged in.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// AddFlash queues a message for the next page render.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns the queued messages and clears the queue.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// AppendTurn adds a chat turn, evicting the oldest turns so the transcript
// never holds more than limit entries. limit <= 0 means unbounded.
func (s *Session) AppendTurn(turn ChatTurn, limit int) {
	s.Transcript = append(s.Transcript, turn)
	if limit > 0 && len(s.Transcript) > limit {
		// Copy into a fresh slice so the evicted turns are not kept alive
		// by the old backing array.
		s.Transcript = append([]ChatTurn(nil), s.Transcript[len(s.Transcript)-limit:]...)
	}
}
