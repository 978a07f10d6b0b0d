package serverlog

import (
	"fmt"
	"strconv"
	"strings"
)

// A Record is one decoded server log entry.  Records are plain values and can
// be compared with ==.
type Record struct {
	UserID   uint32 `json:"user_id"`
	Username string `json:"username"`
}

func (r Record) String() string {
	return fmt.Sprintf("Record{user_id: %d, username: %q}", r.UserID, r.Username)
}

const (
	userIDField   = "user_id"
	usernameField = "username"

	expectedUserID   = "unsigned 32-bit integer"
	expectedUsername = "string"
	expectedRecord   = "object"
)

// parseUserID converts the literal of a JSON number to a user id.  Only
// integer literals are accepted.
func parseUserID(literal string) (uint32, error) {
	if strings.ContainsAny(literal, ".eE") {
		return 0, fmt.Errorf("field %q: invalid type: floating point %s, expected %s", userIDField, literal, expectedUserID)
	}
	id, err := strconv.ParseUint(literal, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("field %q: invalid value: integer %s, expected %s", userIDField, literal, expectedUserID)
	}
	return uint32(id), nil
}

func invalidFieldType(field, got, expected string) error {
	return fmt.Errorf("field %q: invalid type: %s, expected %s", field, got, expected)
}

func duplicateField(field string) error {
	return fmt.Errorf("duplicate field %q", field)
}

func missingField(field string) error {
	return fmt.Errorf("missing field %q", field)
}

// fieldSet tracks which declared fields have been seen in an object.
type fieldSet struct {
	hasUserID, hasUsername bool
}

func (f *fieldSet) sawUserID() error {
	if f.hasUserID {
		return duplicateField(userIDField)
	}
	f.hasUserID = true
	return nil
}

func (f *fieldSet) sawUsername() error {
	if f.hasUsername {
		return duplicateField(usernameField)
	}
	f.hasUsername = true
	return nil
}

func (f *fieldSet) check() error {
	if !f.hasUserID {
		return missingField(userIDField)
	}
	if !f.hasUsername {
		return missingField(usernameField)
	}
	return nil
}
