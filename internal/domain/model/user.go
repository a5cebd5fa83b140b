package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User is a contestant. Besides the fields the regenerator reads, every key of the
// source object is retained in Fields so series can rank by arbitrary fields and
// documents round-trip.
type User struct {
	ID       string
	Name     json.RawMessage
	Official *bool
	Fields   map[string]json.RawMessage
}

// IsOfficial reports whether the user counts toward official ranking; absent
// means official.
func (u User) IsOfficial() bool {
	return u.Official == nil || *u.Official
}

// Key is the identifier events address the user by: the id when present, else the
// plain-text name, else the JSON encoding of an i18n name.
func (u User) Key() string {
	if u.ID != "" {
		return u.ID
	}
	var s string
	if err := json.Unmarshal(u.Name, &s); err == nil {
		return s
	}
	return string(compact(u.Name))
}

// Field returns the string form of an arbitrary user field. Strings are unquoted,
// other JSON values keep their compact encoding. Missing and null fields report
// false.
func (u User) Field(name string) (string, bool) {
	var raw json.RawMessage
	switch name {
	case "id":
		if u.ID != "" {
			return u.ID, true
		}
		raw = u.Fields["id"]
	case "name":
		raw = u.Name
	default:
		raw = u.Fields[name]
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(compact(raw)), true
}

// MarshalJSON writes all retained fields with id, name and official overlaid.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(u.Fields)+3)
	for k, v := range u.Fields {
		out[k] = v
	}
	if u.ID != "" {
		b, err := json.Marshal(u.ID)
		if err != nil {
			return nil, err
		}
		out["id"] = b
	}
	if len(u.Name) > 0 {
		out["name"] = u.Name
	}
	if u.Official != nil {
		out["official"] = []byte(fmt.Sprintf("%t", *u.Official))
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts numeric or string ids. A numeric zero id does not
// identify the user, so Key falls back to the name.
func (u *User) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	out := User{Fields: fields}
	if raw, ok := fields["id"]; ok && string(raw) != "null" {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out.ID = s
		} else if n, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64); err != nil || n != 0 {
			// numeric ids keep their literal text
			out.ID = strings.TrimSpace(string(raw))
		}
	}
	if raw, ok := fields["name"]; ok {
		out.Name = raw
	}
	if raw, ok := fields["official"]; ok && string(raw) != "null" {
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("user official: %w", err)
		}
		out.Official = &v
	}
	*u = out
	return nil
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
