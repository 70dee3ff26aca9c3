package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ID identifies an Entry. It decodes from both JSON numbers and numeric
// strings, so ids coming from query strings, CLI arguments or older
// payloads compare equal to server-issued numeric ids.
type ID int64

// ParseID converts a textual id into an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Local ids are assigned by the client cache to entries the server has not
// seen yet. They are negative, so they never collide with server ids.
func LocalID(seq int64) ID { return ID(-seq) }

func (id ID) Local() bool { return id < 0 }

// Label is the form shown to people: "L7" for local id -7, the plain number
// otherwise. A leading dash would be read as a flag on the command line.
func (id ID) Label() string {
	if id.Local() {
		return "L" + strconv.FormatInt(-int64(id), 10)
	}
	return id.String()
}

// ParseLabel accepts what Label produces as well as plain numbers.
func ParseLabel(s string) (ID, error) {
	if rest, ok := strings.CutPrefix(strings.ToUpper(s), "L"); ok {
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid local id %q", s)
		}
		return LocalID(n), nil
	}
	return ParseID(s)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		parsed, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n)
	return nil
}

// Entry is one logged item of consumed media.
//
// Title, MediaType and Date are required; Date is a calendar date in
// YYYY-MM-DD form. CreatedAt and UpdatedAt are assigned by the server and
// stay nil on entries that only exist in the local cache.
type Entry struct {
	ID        ID         `json:"id,omitempty"`
	Title     string     `json:"title" validate:"required"`
	MediaType string     `json:"mediaType" validate:"required"`
	Creator   string     `json:"creator,omitempty"`
	Rating    *int       `json:"rating,omitempty"`
	URL       string     `json:"url,omitempty"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Validate checks the required fields. The returned error, if any, is a
// *ValidationError that matches common.ErrorValidation.
func (e *Entry) Validate() error {
	return validateStruct(e)
}

// WithID returns a copy of e carrying id.
func (e Entry) WithID(id ID) Entry {
	e.ID = id
	return e
}

// Month returns the YYYY-MM prefix of the entry date.
func (e *Entry) Month() string {
	if len(e.Date) < 7 {
		return e.Date
	}
	return e.Date[:7]
}

// Year returns the YYYY prefix of the entry date.
func (e *Entry) Year() string {
	if len(e.Date) < 4 {
		return e.Date
	}
	return e.Date[:4]
}

// IntPtr is a small helper for optional ratings.
func IntPtr(v int) *int {
	return &v
}
