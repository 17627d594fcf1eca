package schema

import (
	"bytes"
	"encoding/json"
)

// RosterKind tags the shape a client sent for main_characters. Clients have
// historically sent a list of character objects, a plain mapping, a bare
// string, or nothing at all, and every prompt variant must render the field
// the same way.
type RosterKind int

const (
	RosterAbsent RosterKind = iota
	RosterList
	RosterMapping
	RosterScalar
)

// Roster is the normalized main_characters field of a request.
type Roster struct {
	kind    RosterKind
	list    []json.RawMessage
	mapping json.RawMessage
	scalar  string
}

func (r Roster) Kind() RosterKind { return r.kind }

// RosterFromCharacters builds a list roster from stored world characters.
func RosterFromCharacters(chars []WorldCharacter) Roster {
	if len(chars) == 0 {
		return Roster{}
	}
	list := make([]json.RawMessage, 0, len(chars))
	for _, ch := range chars {
		raw, err := json.Marshal(ch)
		if err != nil {
			continue
		}
		list = append(list, raw)
	}
	return Roster{kind: RosterList, list: list}
}

func (r *Roster) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Roster{}
		return nil
	}
	switch data[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = Roster{kind: RosterList, list: list}
	case '{':
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		*r = Roster{kind: RosterMapping, mapping: raw}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Roster{kind: RosterScalar, scalar: s}
	default:
		// numbers and booleans degrade to their textual form
		*r = Roster{kind: RosterScalar, scalar: string(data)}
	}
	return nil
}

func (r Roster) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RosterList:
		return json.Marshal(r.list)
	case RosterMapping:
		return r.mapping, nil
	case RosterScalar:
		return json.Marshal(r.scalar)
	default:
		return []byte("null"), nil
	}
}

// Render flattens the roster to prompt text: lists join with ", ", mappings
// render as compact JSON, scalars as themselves. Absent and empty shapes
// render as "" so the prompt template can substitute its placeholder.
func (r Roster) Render() string {
	switch r.kind {
	case RosterList:
		if len(r.list) == 0 {
			return ""
		}
		var buf bytes.Buffer
		for i, raw := range r.list {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(renderRawValue(raw))
		}
		return buf.String()
	case RosterMapping:
		if isEmptyObject(r.mapping) {
			return ""
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, r.mapping); err != nil {
			return string(r.mapping)
		}
		return compact.String()
	case RosterScalar:
		return r.scalar
	default:
		return ""
	}
}

func renderRawValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

func isEmptyObject(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}

// RenderOr returns the rendered roster or the placeholder when empty.
func (r Roster) RenderOr(placeholder string) string {
	if text := r.Render(); text != "" {
		return text
	}
	return placeholder
}
