// Package review holds the state of the land record currently open for
// admin review: its flattened form, the reviewer's field checks, and the
// save and delete paths back to the land service.
//
// Only one row is open at a time. Opening another row discards unsaved form
// edits and checks of the previous one without asking.
package review

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/landrecord"
	"github.com/landledger/backoffice/internal/verification"
)

// Store is the part of the land service the workspace writes to.
type Store interface {
	UpdateLand(ctx context.Context, p *landrecord.Payload) error
	DeleteLand(ctx context.Context, landID string) error
}

// Decision is a saved review outcome.
type Decision struct {
	LandID   string
	Status   verification.Status
	Passed   []string
	Failed   []string
	Reviewer string
}

// Recorder receives every successfully saved decision.
type Recorder interface {
	RecordDecision(ctx context.Context, d Decision) error
}

type Option func(*Workspace)

// WithRecorder attaches an audit recorder. Recorder failures are logged only.
func WithRecorder(r Recorder) Option {
	return func(w *Workspace) { w.recorder = r }
}

// WithReviewer tags recorded decisions with the reviewer's identity.
func WithReviewer(name string) Option {
	return func(w *Workspace) { w.reviewer = name }
}

var errNothingOpen = apperr.Invalid("land_id", "no land record is open")

// Workspace is the open-row editor.
type Workspace struct {
	store    Store
	recorder Recorder
	reviewer string

	mu       sync.Mutex
	form     *landrecord.Form
	checks   verification.Checks
	selected map[string]struct{}
}

func New(store Store, opts ...Option) *Workspace {
	w := &Workspace{store: store, selected: make(map[string]struct{})}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open flattens r into the editable form, replacing any open row.
func (w *Workspace) Open(r *landrecord.Record) *landrecord.Form {
	return w.OpenForm(landrecord.Flatten(r))
}

// OpenForm opens an already flattened form, replacing any open row.
func (w *Workspace) OpenForm(f *landrecord.Form) *landrecord.Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form != nil && w.form.LandID != f.LandID && w.checks.Len() > 0 {
		log.Printf("[review] discarding %d unsaved checks on land %s", w.checks.Len(), w.form.LandID)
	}
	w.form = f.Clone()
	w.checks.Reset()
	return w.form.Clone()
}

// Close discards the open row and its checks.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form = nil
	w.checks.Reset()
}

// Current returns a copy of the open form.
func (w *Workspace) Current() (*landrecord.Form, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form == nil {
		return nil, false
	}
	return w.form.Clone(), true
}

// SetField edits a scalar of the open form. admin_verification is derived
// from the checks and cannot be set directly.
func (w *Workspace) SetField(key, value string) error {
	if key == landrecord.KeyAdminVerification {
		return apperr.Invalid(key, "admin verification is derived from the field checks")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form == nil {
		return errNothingOpen
	}
	w.form.Set(key, value)
	return nil
}

// SetList replaces a list field of the open form.
func (w *Workspace) SetList(key string, items []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form == nil {
		return errNothingOpen
	}
	w.form.SetList(key, items)
	return nil
}

// AddVisitor appends to the open form's visitor log.
func (w *Workspace) AddVisitor(v landrecord.Visitor) error {
	if strings.TrimSpace(v.Name) == "" {
		return apperr.Invalid("visitor.name", "visitor name is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form == nil {
		return errNothingOpen
	}
	w.form.AddVisitor(v)
	return nil
}

// SetCheck records the reviewer's mark for one field of the open form.
func (w *Workspace) SetCheck(field string, m verification.Mark) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form == nil {
		return errNothingOpen
	}
	return w.checks.Set(field, m)
}

// Checks returns a copy of the current marks.
func (w *Workspace) Checks() map[string]verification.Mark {
	return w.checks.Snapshot()
}

// Status previews the status a save would write now.
func (w *Workspace) Status() verification.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.statusLocked()
}

func (w *Workspace) statusLocked() verification.Status {
	if w.form == nil {
		return verification.StatusPending
	}
	return w.checks.Status(w.form.ReviewKeys()...)
}

// Save derives admin_verification from the checks and writes the open form
// back with files attached. On success the checks are cleared for the next
// review cycle; on failure form and checks are left as they were.
func (w *Workspace) Save(ctx context.Context, files []landrecord.File) (verification.Status, error) {
	w.mu.Lock()
	if w.form == nil {
		w.mu.Unlock()
		return "", errNothingOpen
	}
	form := w.form.Clone()
	status := w.statusLocked()
	passed, failed := w.checks.Passed(), w.checks.Failed()
	w.mu.Unlock()

	payload, err := landrecord.EncodePayload(form, status, files)
	if err != nil {
		return "", err
	}
	if err := w.store.UpdateLand(ctx, payload); err != nil {
		return "", err
	}

	w.mu.Lock()
	if w.form != nil && w.form.LandID == form.LandID {
		w.form.Values[landrecord.KeyAdminVerification] = string(status)
		w.checks.Reset()
	}
	w.mu.Unlock()

	log.Printf("[review] saved land %s as %s (%d ok, %d fail)", form.LandID, status, len(passed), len(failed))

	if w.recorder != nil {
		d := Decision{LandID: form.LandID, Status: status, Passed: passed, Failed: failed, Reviewer: w.reviewer}
		if err := w.recorder.RecordDecision(ctx, d); err != nil {
			log.Printf("[review] audit record for land %s failed: %v", form.LandID, err)
		}
	}
	return status, nil
}

// Delete permanently removes a land record. It refuses to run unconfirmed.
// On success the open row and the selection forget the land.
func (w *Workspace) Delete(ctx context.Context, landID string, confirmed bool) error {
	landID = strings.TrimSpace(landID)
	if landID == "" {
		return apperr.Invalid("land_id", "land id is required")
	}
	if !confirmed {
		return apperr.Invalid("confirm", "deleting a land record is irreversible and must be confirmed")
	}
	if err := w.store.DeleteLand(ctx, landID); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.selected, landID)
	if w.form != nil && w.form.LandID == landID {
		w.form = nil
		w.checks.Reset()
	}
	log.Printf("[review] deleted land %s", landID)
	return nil
}

// Select marks a land as part of the local multi-selection.
func (w *Workspace) Select(landID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected[landID] = struct{}{}
}

func (w *Workspace) Deselect(landID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.selected, landID)
}

// Selected returns the selected land ids in sorted order.
func (w *Workspace) Selected() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.selected))
	for id := range w.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
