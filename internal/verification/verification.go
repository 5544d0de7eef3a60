// Package verification derives a land record's admin-verification status
// from per-field review checks.
package verification

import (
	"sort"
	"strings"
	"sync"

	"github.com/landledger/backoffice/internal/apperr"
)

// Mark is a reviewer's verdict on one field.
type Mark string

const (
	MarkOK   Mark = "ok"
	MarkFail Mark = "fail"
)

// Status is the aggregated admin verification of a record.
type Status string

const (
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusPending  Status = "pending"
)

// ParseMark accepts "ok" or "fail", case-insensitively.
func ParseMark(s string) (Mark, error) {
	switch Mark(strings.ToLower(strings.TrimSpace(s))) {
	case MarkOK:
		return MarkOK, nil
	case MarkFail:
		return MarkFail, nil
	}
	return "", apperr.Invalid("check", `mark must be "ok" or "fail"`)
}

// ComputeStatus aggregates checks over the reviewed fields.
//
// Any fail rejects the record. Otherwise the record is verified only when
// every field in the universe is marked ok; a field left unset keeps it
// pending. The universe is required when given, else the checked fields.
//
// Over the universe {a, b}, {a: ok} is pending and {a: ok, b: ok} is
// verified. Without a universe an unset field cannot be seen, so {a: ok}
// alone reads as verified; callers reviewing a record pass its reviewable
// keys.
func ComputeStatus(checks map[string]Mark, required ...string) Status {
	if len(checks) == 0 {
		return StatusPending
	}
	for _, m := range checks {
		if m == MarkFail {
			return StatusRejected
		}
	}
	if len(required) == 0 {
		for _, m := range checks {
			if m != MarkOK {
				return StatusPending
			}
		}
		return StatusVerified
	}
	for _, field := range required {
		if checks[field] != MarkOK {
			return StatusPending
		}
	}
	return StatusVerified
}

// Checks is the in-memory check map of the currently open record.
// The zero value is ready to use.
type Checks struct {
	mu    sync.Mutex
	marks map[string]Mark
}

// Set upserts the mark for field.
func (c *Checks) Set(field string, m Mark) error {
	field = strings.TrimSpace(field)
	if field == "" {
		return apperr.Invalid("field", "field name is required")
	}
	if m != MarkOK && m != MarkFail {
		return apperr.Invalid(field, `mark must be "ok" or "fail"`)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.marks == nil {
		c.marks = make(map[string]Mark)
	}
	c.marks[field] = m
	return nil
}

// Clear removes the mark for field, returning it to unset.
func (c *Checks) Clear(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.marks, field)
}

// Reset starts a new review cycle.
func (c *Checks) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks = nil
}

// Snapshot returns a copy of the current marks.
func (c *Checks) Snapshot() map[string]Mark {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Mark, len(c.marks))
	for k, v := range c.marks {
		out[k] = v
	}
	return out
}

func (c *Checks) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.marks)
}

// Status computes the aggregate over the current marks.
func (c *Checks) Status(required ...string) Status {
	return ComputeStatus(c.Snapshot(), required...)
}

// Failed returns the failing fields in sorted order.
func (c *Checks) Failed() []string {
	return fieldsWith(c.Snapshot(), MarkFail)
}

// Passed returns the fields marked ok in sorted order.
func (c *Checks) Passed() []string {
	return fieldsWith(c.Snapshot(), MarkOK)
}

func fieldsWith(marks map[string]Mark, want Mark) []string {
	var out []string
	for f, m := range marks {
		if m == want {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
