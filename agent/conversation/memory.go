package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

type memoryConversation struct {
	userID    string
	startTime time.Time
	turns     []contractx.Turn
}

// MemoryStore keeps conversations in process memory. Used by tests and the
// terminal chat when no database is configured.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*memoryConversation
	now           func() time.Time
}

var _ contractx.ConversationStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*memoryConversation),
		now:           time.Now,
	}
}

func (s *MemoryStore) CreateConversation(ctx context.Context, userID string) (string, error) {
	id := newConversationID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = &memoryConversation{
		userID:    normalizeUserID(userID),
		startTime: s.now().UTC(),
	}
	return id, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, conversationID string, turn contractx.Turn) error {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return err
	}
	turn, err = prepareTurn(turn, s.now)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("%w: id=%s", contractx.ErrConversationNotFound, id)
	}
	conv.turns = append(conv.turns, turn)
	return nil
}

func (s *MemoryStore) GetHistory(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	id, err := validateConversationID(conversationID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	conv, ok := s.conversations[id]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: id=%s", contractx.ErrConversationNotFound, id)
	}
	turns := append([]contractx.Turn(nil), conv.turns...)
	s.mu.RUnlock()

	orderTurns(turns)
	return turns, nil
}
