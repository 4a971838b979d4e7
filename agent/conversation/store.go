package conversation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
)

const DefaultUserID = "anonymous_user"

func newConversationID() string {
	return uuid.NewString()
}

func normalizeUserID(userID string) string {
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		return trimmed
	}
	return DefaultUserID
}

func validateConversationID(conversationID string) (string, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return "", fmt.Errorf("%w: conversation id is empty", contractx.ErrValidation)
	}
	return id, nil
}

// prepareTurn validates turn and fills the status and timestamp defaults.
func prepareTurn(turn contractx.Turn, now func() time.Time) (contractx.Turn, error) {
	switch turn.Sender {
	case contractx.SenderUser, contractx.SenderAssistant:
	default:
		return contractx.Turn{}, fmt.Errorf("%w: unsupported sender=%q", contractx.ErrValidation, turn.Sender)
	}
	switch turn.Status {
	case "":
		turn.Status = contractx.TurnOK
	case contractx.TurnOK, contractx.TurnFailed:
	default:
		return contractx.Turn{}, fmt.Errorf("%w: unsupported turn status=%q", contractx.ErrValidation, turn.Status)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = now()
	}
	turn.CreatedAt = turn.CreatedAt.UTC()
	return turn, nil
}

// orderTurns sorts by timestamp; equal timestamps keep insertion order.
func orderTurns(turns []contractx.Turn) {
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})
}
