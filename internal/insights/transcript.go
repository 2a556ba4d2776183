package insights

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/retentioniq/internal/ai"
)

// Entry is one message of the insights conversation.
type Entry struct {
	ID      string    `json:"id"`
	Role    ai.Role   `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
	Failed  bool      `json:"failed,omitempty"`
}

// Transcript is an append-only message log. Readers get copies.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

func (t *Transcript) Append(role ai.Role, content string, failed bool) Entry {
	e := Entry{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Time:    t.now().UTC(),
		Failed:  failed,
	}

	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()

	return e
}

func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]Entry(nil), t.entries...)
}

// Turns returns the conversation without failed exchanges. A failed reply
// takes the question it answered with it so user and assistant turns keep
// alternating.
func (t *Transcript) Turns() []ai.Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	turns := make([]ai.Turn, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Failed {
			if n := len(turns); n > 0 && turns[n-1].Role == ai.RoleUser {
				turns = turns[:n-1]
			}
			continue
		}
		turns = append(turns, ai.Turn{Role: e.Role, Content: e.Content})
	}
	return turns
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Transcript) Clear() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}
