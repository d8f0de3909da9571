package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Submission is one guest check-in record. Every form value is kept as the
// string the guest typed; id and submittedAt are stamped on save.
type Submission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Aadhar      string `json:"aadhar"`
	Checkin     string `json:"checkin"`
	Checkout    string `json:"checkout"`
	Adults      string `json:"adults"`
	Purpose     string `json:"purpose"`
	SubmittedAt string `json:"submittedAt"`

	// Extra holds keys outside the check-in shape (imported files may carry
	// anything) so they survive a re-export.
	Extra map[string]json.RawMessage `json:"-"`
}

// fields maps the JSON keys of Submission to their struct slots, in the
// order they are written out.
func (s *Submission) fields() []struct {
	key string
	ptr *string
} {
	return []struct {
		key string
		ptr *string
	}{
		{"id", &s.ID},
		{"name", &s.Name},
		{"phone", &s.Phone},
		{"email", &s.Email},
		{"address", &s.Address},
		{"aadhar", &s.Aadhar},
		{"checkin", &s.Checkin},
		{"checkout", &s.Checkout},
		{"adults", &s.Adults},
		{"purpose", &s.Purpose},
		{"submittedAt", &s.SubmittedAt},
	}
}

// SubmissionFromValues builds a record from trimmed form values. Keys the
// check-in form does not know about are carried in Extra.
func SubmissionFromValues(values map[string]string) *Submission {
	s := &Submission{}
	known := make(map[string]bool)
	for _, f := range s.fields() {
		known[f.key] = true
		if v, ok := values[f.key]; ok {
			*f.ptr = v
		}
	}
	for k, v := range values {
		if known[k] {
			continue
		}
		raw, _ := json.Marshal(v)
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[k] = raw
	}
	return s
}

// Get returns the string value stored under a JSON key, or "" if unknown.
func (s *Submission) Get(key string) string {
	for _, f := range s.fields() {
		if f.key == key {
			return *f.ptr
		}
	}
	return ""
}

// UnmarshalJSON accepts loosely shaped objects: known keys may hold strings,
// numbers, booleans or null, and unknown keys are preserved.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("submission: expected an object")
	}
	*s = Submission{}
	for _, f := range s.fields() {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		str, err := looseString(v)
		if err != nil {
			return fmt.Errorf("submission: field %q: %w", f.key, err)
		}
		*f.ptr = str
		delete(raw, f.key)
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// MarshalJSON writes known keys in a fixed order followed by the extra keys
// sorted by name.
func (s Submission) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKV := func(key string, val []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	for _, f := range s.fields() {
		v, err := json.Marshal(*f.ptr)
		if err != nil {
			return nil, err
		}
		writeKV(f.key, v)
	}
	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.Extra[k]
		if len(v) == 0 {
			v = json.RawMessage("null")
		}
		writeKV(k, v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func looseString(v json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(v))
	switch {
	case trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, `"`):
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return "", err
		}
		return str, nil
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		return "", fmt.Errorf("unsupported value %s", trimmed)
	default:
		// numbers and booleans keep their literal text
		return trimmed, nil
	}
}
