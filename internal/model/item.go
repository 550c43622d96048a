package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is the server-assigned identifier of a todo. The server may send a
// number or a string; the literal form is kept for URL paths. Plain
// integer ids marshal as JSON numbers, everything else as a string.
type ID string

func (id ID) String() string { return string(id) }

// isInteger reports whether id is a plain decimal integer such as the
// auto-increment ids servers send as JSON numbers.
func (id ID) isInteger() bool {
	s := string(id)
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("todo id: missing")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("todo id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("todo id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.isInteger() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Todo is one record of the remote store.
type Todo struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
