package contract

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleParent    Role = "parent"
	RoleTeacher   Role = "teacher"
	RoleTherapist Role = "therapist"
	RoleCaregiver Role = "caregiver"
	RoleChild     Role = "child"
)

// ParseRole accepts the role names used by the chat clients. An empty role
// defaults to parent; "other caregiver" and "other_caregiver" map to caregiver.
func ParseRole(raw string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.Join(strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " ")

	switch normalized {
	case "":
		return RoleParent, nil
	case "parent":
		return RoleParent, nil
	case "teacher":
		return RoleTeacher, nil
	case "therapist":
		return RoleTherapist, nil
	case "caregiver", "other caregiver":
		return RoleCaregiver, nil
	case "child":
		return RoleChild, nil
	default:
		return "", fmt.Errorf("%w: unsupported role=%q", ErrValidation, raw)
	}
}

// Query is one user request. It is passed by value and never mutated.
type Query struct {
	Text           string `json:"text"`
	UserID         string `json:"user_id,omitempty"`
	Role           Role   `json:"role,omitempty"`
	ChildName      string `json:"child_name,omitempty"`
	ChildInkling   string `json:"child_inkling,omitempty"`
	Context        string `json:"context,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type Capability string

const (
	CapabilityDocument   Capability = "document"
	CapabilityWeb        Capability = "web"
	CapabilityCalculator Capability = "calculator"
)

// Capabilities lists every responder capability in a fixed order.
var Capabilities = []Capability{
	CapabilityDocument,
	CapabilityWeb,
	CapabilityCalculator,
}

// RoutingDecision selects the responders that apply to a query.
type RoutingDecision struct {
	Document   bool `json:"document"`
	WebSearch  bool `json:"web_search"`
	Calculator bool `json:"calculator"`
}

func (d RoutingDecision) Enabled(c Capability) bool {
	switch c {
	case CapabilityDocument:
		return d.Document
	case CapabilityWeb:
		return d.WebSearch
	case CapabilityCalculator:
		return d.Calculator
	default:
		return false
	}
}

func (d RoutingDecision) None() bool {
	return !d.Document && !d.WebSearch && !d.Calculator
}

// Outputs maps every capability to its responder text. Skipped capabilities
// hold the empty string.
type Outputs map[Capability]string

func NewOutputs() Outputs {
	out := make(Outputs, len(Capabilities))
	for _, c := range Capabilities {
		out[c] = ""
	}
	return out
}

// ResponderOutput is the text one responder produced for a capability.
type ResponderOutput struct {
	Capability Capability
	Text       string
}

// Collect folds results into Outputs. Capabilities without a result stay "".
func Collect(results ...ResponderOutput) Outputs {
	out := NewOutputs()
	for _, r := range results {
		if r.Capability != "" {
			out[r.Capability] = r.Text
		}
	}
	return out
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type TurnStatus string

const (
	TurnOK     TurnStatus = "ok"
	TurnFailed TurnStatus = "failed"
)

// Turn is one persisted message of a conversation.
type Turn struct {
	Sender    Sender     `json:"sender"`
	Text      string     `json:"text"`
	Status    TurnStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Exchange is a completed user/assistant pair fed back into synthesis.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// PairExchanges folds an ordered turn history into user/assistant pairs,
// skipping failed turns and unanswered user messages. Only the last limit
// pairs are kept when limit > 0.
func PairExchanges(turns []Turn, limit int) []Exchange {
	pairs := make([]Exchange, 0, len(turns)/2)
	pending := ""
	hasPending := false
	for _, t := range turns {
		if t.Status == TurnFailed {
			hasPending = false
			continue
		}
		switch t.Sender {
		case SenderUser:
			pending = t.Text
			hasPending = true
		case SenderAssistant:
			if hasPending {
				pairs = append(pairs, Exchange{User: pending, Assistant: t.Text})
				hasPending = false
			}
		}
	}
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[len(pairs)-limit:]
	}
	return pairs
}

type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Text returns the content (or text) metadata field.
func (m Match) Text() string {
	for _, key := range []string{"content", "text"} {
		if v, ok := m.Metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type SearchResult struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet"`
}

// Reply is what the pipeline hands back to the caller.
type Reply struct {
	Text           string          `json:"response"`
	ConversationID string          `json:"conversation_id"`
	Decision       RoutingDecision `json:"-"`
	Outputs        Outputs         `json:"-"`
	Persisted      bool            `json:"-"`
}
