package contract

import (
	"errors"
	"fmt"
)

var (
	ErrModelInvoke          = errors.New("model invoke failed")
	ErrSynthesis            = errors.New("response synthesis failed")
	ErrPromptMissing        = errors.New("required prompt is missing")
	ErrValidation           = errors.New("validation failed")
	ErrConversationNotFound = errors.New("conversation not found")
)

// StatusError reports a non-success HTTP status from an upstream capability.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s http status=%d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s http status=%d body=%s", e.Service, e.StatusCode, e.Body)
}
