package usecase

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"emuss/internal/errors"
)

var jsonNull = []byte("null")

// IDField is an optional integer id that clients send either as a JSON
// number or as a numeric string. Parsing is deferred to validation so the
// error message can name the field.
type IDField struct {
	Present bool   // key appeared in the payload
	Raw     string // textual value, empty for null or ""
}

// UnmarshalJSON accepts null, numbers and strings.
func (f *IDField) UnmarshalJSON(data []byte) error {
	f.Present = true
	f.Raw = ""

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.WithStack(err)
		}
		f.Raw = strings.TrimSpace(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Keep the raw token so validation reports the field by name.
		f.Raw = string(data)

		return nil
	}
	f.Raw = n.String()

	return nil
}

// IsBlank reports whether the field carries no value.
func (f IDField) IsBlank() bool {
	return f.Raw == ""
}

// Int64 parses the value. A blank field yields nil.
func (f IDField) Int64() (*int64, error) {
	if f.IsBlank() {
		return nil, nil
	}

	v, err := strconv.ParseInt(f.Raw, 10, 64)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &v, nil
}

// NonZeroInt64 is Int64 with zero read as blank.
func (f IDField) NonZeroInt64() (*int64, error) {
	v, err := f.Int64()
	if err != nil || v == nil || *v == 0 {
		return nil, err
	}

	return v, nil
}

// NewIDField builds a present field, mainly for tests and internal callers.
func NewIDField(raw string) IDField {
	return IDField{Present: true, Raw: raw}
}

// OptionalString distinguishes an absent key from an explicit null.
type OptionalString struct {
	Present bool
	Null    bool
	Value   string
}

// UnmarshalJSON records presence and null-ness.
func (s *OptionalString) UnmarshalJSON(data []byte) error {
	s.Present = true
	s.Null = false
	s.Value = ""

	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		s.Null = true

		return nil
	}

	if err := json.Unmarshal(data, &s.Value); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Ptr returns nil for absent or null values.
func (s OptionalString) Ptr() *string {
	if !s.Present || s.Null {
		return nil
	}
	v := s.Value

	return &v
}

// NonEmptyPtr is Ptr with the empty string read as null.
func (s OptionalString) NonEmptyPtr() *string {
	if s.Value == "" {
		return nil
	}

	return s.Ptr()
}

// NewOptionalString builds a present, non-null value.
func NewOptionalString(v string) OptionalString {
	return OptionalString{Present: true, Value: v}
}
