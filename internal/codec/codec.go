// Package codec normalises the shape-shifting values the land service sends.
//
// Upstream storage is loose about types: lists arrive either as JSON arrays
// or comma-joined strings, booleans arrive as booleans or strings, names are
// sometimes a JSON document stored inside a string, and missing values show
// up as null, absent keys or the literal string "null". Every read and write
// path goes through the helpers here so the rules live in one place.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/landledger/backoffice/internal/apperr"
)

// ListSeparator joins list values on the way back to the land service.
const ListSeparator = ", "

// Clean converts an arbitrary decoded JSON value to its form string.
// nil and the literal "null" become "".
func Clean(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if t == "null" {
			return ""
		}
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// BoolAsString maps true/false to "true"/"false"; anything else follows Clean.
func BoolAsString(v any) string {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	return Clean(v)
}

// SplitList implements the ArrayOrCsv read rule. Arrays are kept element by
// element, strings are split on commas with each part trimmed and empty parts
// dropped.
func SplitList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, Clean(item))
		}
		return out
	case string:
		return SplitCSV(t)
	default:
		return SplitCSV(Clean(t))
	}
}

// SplitCSV splits a comma-joined string, trimming and dropping empty parts.
func SplitCSV(s string) []string {
	out := []string{}
	if s == "null" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// JoinList implements the ArrayOrCsv write rule.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// JSONOrPlainName unwraps names stored as '{"name":"X"}'. Anything that is not
// a JSON object with a string "name" key is returned unchanged.
func JSONOrPlainName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return raw
	}
	name, ok := doc["name"].(string)
	if !ok {
		return raw
	}
	return name
}

// ParseFloat parses a numeric form value. Blank values are zero without error;
// malformed values are zero with a ParseError the caller may log.
func ParseFloat(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, &apperr.ParseError{Field: field, Raw: s, Err: err}
	}
	return f, nil
}

// Name is a node name that may arrive plain, JSON-encoded inside a string, or
// as an object with a name key.
type Name string

func (n *Name) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		*n = Name(JSONOrPlainName(string(data)))
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Name(JSONOrPlainName(Clean(v)))
	return nil
}

func (n Name) String() string { return string(n) }

// FlexString accepts strings, numbers, booleans and null.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*f = FlexString(Clean(v))
	return nil
}

func (f FlexString) String() string { return string(f) }

// List decodes either a JSON array or a comma-joined string.
type List []string

func (l *List) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = SplitList(v)
	return nil
}

func (l List) MarshalJSON() ([]byte, error) {
	return json.Marshal(JoinList(l))
}
