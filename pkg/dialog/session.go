package dialog

import (
	"sync"
	"time"
)

// DefaultMaxHistory caps the per-session turn history before eviction.
const DefaultMaxHistory = 500

// TurnRecord is one exchange in a session's history, append-only.
type TurnRecord struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds per-user mutable dialog state. A session is processed
// strictly sequentially by the engine; the mutex guards access from the
// transport and admin surfaces.
type Session struct {
	mu         sync.RWMutex
	maxHistory int

	ID           string
	Stage        Stage
	FailCount    int
	History      []TurnRecord
	Criteria     *Criteria
	Choices      []Restaurant
	PrevChoices  []Restaurant
	Pending      Reservation
	PendingExtra string
	StartTime    time.Time
	LastActivity time.Time
}

// NewSession creates a session at the start of the questionnaire.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Stage:        StageCuisine,
		Criteria:     NewCriteria(),
		StartTime:    now,
		LastActivity: now,
		maxHistory:   DefaultMaxHistory,
	}
}

// Record appends one exchange. Evicts the oldest 10% when the cap is hit.
func (s *Session) Record(input, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.History) >= s.maxHistory {
		evict := s.maxHistory / 10
		if evict < 1 {
			evict = 1
		}
		s.History = s.History[evict:]
	}
	s.History = append(s.History, TurnRecord{Input: input, Output: output, Timestamp: time.Now()})
	s.LastActivity = time.Now()
}

// LastPrompt returns the most recent response sent to the user.
func (s *Session) LastPrompt() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.History) == 0 {
		return "", false
	}
	return s.History[len(s.History)-1].Output, true
}

// HistoryLen returns the number of recorded exchanges.
func (s *Session) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.History)
}

// ResetHistory replaces the history with a single fresh system entry.
func (s *Session) ResetHistory(welcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = []TurnRecord{{Output: welcome, Timestamp: time.Now()}}
}

// SeedWelcome records the initial system message so the retry policy has a
// prompt to replay on the very first turn.
func (s *Session) SeedWelcome(welcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.History) == 0 {
		s.History = append(s.History, TurnRecord{Output: welcome, Timestamp: time.Now()})
	}
}

// IdleSince returns the time of the last recorded activity.
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastActivity
}

// CopyHistory returns a snapshot of the exchange history.
func (s *Session) CopyHistory() []TurnRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]TurnRecord, len(s.History))
	copy(cp, s.History)
	return cp
}

// resetAll returns the session to a fresh questionnaire: criteria, carried
// choices, and the pending reservation are all dropped.
func (s *Session) resetAll() {
	s.Stage = StageCuisine
	s.FailCount = 0
	s.Criteria = NewCriteria()
	s.Choices = nil
	s.PrevChoices = nil
	s.Pending = Reservation{Allergies: "none"}
	s.PendingExtra = ""
}
