package domain

import (
	"encoding/json"
	"fmt"
)

// Top-level field names of the session document.
const (
	FieldQuiz          = "quiz"
	FieldPhase         = "gameStatus"
	FieldPlayers       = "players"
	FieldQuestionIndex = "currentQuestionIndex"
	FieldAnswers       = "answers"
)

// Mutation is a transaction body. It receives the latest committed document (nil when absent)
// and returns the document to commit (nil clears it). Returning ok=false aborts without writing.
type Mutation func(current *SessionRecord) (next *SessionRecord, ok bool)

// Patch overwrites only the named top-level fields. A nil value clears the field.
type Patch map[string]any

// Encode splits the patch into JSON-encoded assignments and cleared field names.
func (p Patch) Encode() (map[string]string, []string, error) {
	set := make(map[string]string, len(p))
	var cleared []string
	for field, value := range p {
		if value == nil {
			cleared = append(cleared, field)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, nil, fmt.Errorf("encode field %s: %w", field, err)
		}
		set[field] = string(raw)
	}
	return set, cleared, nil
}

// EncodeFields splits a record into one JSON value per top-level field. Empty optional fields are omitted.
func EncodeFields(r *SessionRecord) (map[string]string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("split session: %w", err)
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = string(v)
	}
	return out, nil
}

// DecodeFields rebuilds a record from per-field JSON values. No fields means no document.
func DecodeFields(fields map[string]string) (*SessionRecord, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	joined := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		joined[k] = json.RawMessage(v)
	}
	raw, err := json.Marshal(joined)
	if err != nil {
		return nil, fmt.Errorf("join session fields: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// ApplyPatch returns a new record with the patch applied. A patch on an absent
// document creates one holding only the patched fields.
func ApplyPatch(r *SessionRecord, p Patch) (*SessionRecord, error) {
	fields := map[string]string{}
	if r != nil {
		var err error
		if fields, err = EncodeFields(r); err != nil {
			return nil, err
		}
	}
	set, cleared, err := p.Encode()
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		fields[k] = v
	}
	for _, k := range cleared {
		delete(fields, k)
	}
	return DecodeFields(fields)
}

// CloneRecord returns a deep copy that shares no memory with r.
func CloneRecord(r *SessionRecord) (*SessionRecord, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	var out SessionRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &out, nil
}
