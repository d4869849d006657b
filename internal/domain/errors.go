package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidRequestError rejects an admission synchronously; the queue is untouched.
type InvalidRequestError struct {
	Errors []ValidationError
}

func (e *InvalidRequestError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, v.Error())
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// Fields returns the validation problems keyed by field name.
func (e *InvalidRequestError) Fields() map[string]string {
	out := make(map[string]string, len(e.Errors))
	for _, v := range e.Errors {
		out[v.Field] = v.Message
	}
	return out
}

// HistoryWriteWarning reports a history append that failed after the live
// transition already happened. It is never fatal.
type HistoryWriteWarning struct {
	ItemID string
	Err    error
}

func (w *HistoryWriteWarning) Error() string {
	return fmt.Sprintf("history write for item %s failed: %v", w.ItemID, w.Err)
}

func (w *HistoryWriteWarning) Unwrap() error {
	return w.Err
}
