package remote

import (
	"errors"
	"fmt"
)

// ErrEmptyText is returned before any request is made when a todo text is
// empty after trimming.
var ErrEmptyText = errors.New("empty todo text")

// Op names one API verb. It selects the generic user-facing message.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpToggle Op = "toggle"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

// TransportError covers failures where no usable response was obtained:
// unreachable host, broken connection, malformed body.
type TransportError struct {
	Op  Op
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response. Message carries the server's
// {"error": "..."} text when it sent one.
type StatusError struct {
	Op      Op
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Code)
}

var genericMessages = map[Op]string{
	OpList:   "Failed to load todos",
	OpCreate: "Failed to add todo",
	OpToggle: "Failed to update todo",
	OpEdit:   "Failed to update todo",
	OpDelete: "Failed to delete todo",
}

// UserMessage converts err into the text shown to the user for op.
// Only edit text surfaces the server-supplied message.
func UserMessage(op Op, err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyText) {
		return "Please enter a todo"
	}
	var se *StatusError
	if op == OpEdit && errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if msg, ok := genericMessages[op]; ok {
		return msg
	}
	return "Request failed"
}
