// Package state implements the three-horizon data model: Profile and
// Conversation (user-scoped, long-lived), Workspace (task-scoped,
// persisted), and Execution (task-scoped, ephemeral, never persisted).
package state

import (
	"fmt"
	"time"
)

// Error is the uniform error type for state operations, identifying the
// entity, the key it was operating on, and the underlying cause.
type Error struct {
	Entity    string
	Key       string
	Operation string
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s:%s] %s: %v", e.Entity, e.Key, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s:%s] %s", e.Entity, e.Key, e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a state Error.
func NewError(entity, key, operation, message string, err error) *Error {
	return &Error{
		Entity:    entity,
		Key:       key,
		Operation: operation,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}
