// Package geo keeps the cascading state → district → mandal/sector/town →
// village selection for one admin session.
//
// Option lists are fetched lazily from the land service as the user drills
// down and cached for the lifetime of the Selection. Choosing a node at one
// level clears every selection and option list strictly below it.
package geo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Node is one entry of the geo tree with its name already normalised.
type Node struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Name string `json:"name"`
}

// Source fetches the children of parentID at the given level.
// For LevelState the parent id is ignored.
type Source interface {
	Children(ctx context.Context, level Level, parentID string) ([]Node, error)
}

// LoadError wraps a failed fetch of one level. It never aborts the cascade.
type LoadError struct {
	Level    Level
	ParentID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s options for %q: %v", e.Level, e.ParentID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type cacheKey struct {
	level  Level
	parent string
}

// Selection is the GeoSelection value shared by every screen with cascading selects.
type Selection struct {
	src  Source
	view View

	mu       sync.Mutex
	selected map[Level]string
	options  map[Level][]Node
	cache    map[cacheKey][]Node
	gen      map[Level]uint64
}

// NewSelection creates an empty selection whose district fan-out follows view.
func NewSelection(src Source, view View) *Selection {
	if view == 0 {
		view = ViewAll
	}
	return &Selection{
		src:      src,
		view:     view,
		selected: make(map[Level]string),
		options:  make(map[Level][]Node),
		cache:    make(map[cacheKey][]Node),
		gen:      make(map[Level]uint64),
	}
}

// View returns the active district fan-out.
func (s *Selection) View() View { return s.view }

// LoadStates fills the root option list.
func (s *Selection) LoadStates(ctx context.Context) error {
	return s.load(ctx, LevelState, "")
}

func (s *Selection) SelectState(ctx context.Context, id string) error {
	return s.Select(ctx, LevelState, id)
}

func (s *Selection) SelectDistrict(ctx context.Context, id string) error {
	return s.Select(ctx, LevelDistrict, id)
}

func (s *Selection) SelectMandal(ctx context.Context, id string) error {
	return s.Select(ctx, LevelMandal, id)
}

func (s *Selection) SelectSector(ctx context.Context, id string) error {
	return s.Select(ctx, LevelSector, id)
}

func (s *Selection) SelectTown(ctx context.Context, id string) error {
	return s.Select(ctx, LevelTown, id)
}

// SelectVillage picks a leaf under the selected mandal or sector.
func (s *Selection) SelectVillage(ctx context.Context, level Level, id string) error {
	if level != LevelMandalVillage && level != LevelSectorVillage {
		return fmt.Errorf("%s is not a village level", level)
	}
	return s.Select(ctx, level, id)
}

// Select sets the selection at level, invalidates everything downstream and
// loads the child option lists the active view needs. Load failures are
// returned joined; the selection itself is kept either way.
func (s *Selection) Select(ctx context.Context, level Level, id string) error {
	if !level.Valid() {
		return fmt.Errorf("unknown geo level %d", level)
	}
	id = strings.TrimSpace(id)

	s.mu.Lock()
	if id == "" {
		delete(s.selected, level)
	} else {
		s.selected[level] = id
	}
	s.invalidateLocked(level)
	s.mu.Unlock()

	var errs []error
	for _, child := range level.Children() {
		if !s.view.Includes(child) {
			continue
		}
		if err := s.load(ctx, child, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Invalidate clears every selection and option list strictly below level.
func (s *Selection) Invalidate(level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(level)
}

func (s *Selection) invalidateLocked(level Level) {
	for _, d := range level.Descendants() {
		delete(s.selected, d)
		delete(s.options, d)
		s.gen[d]++
	}
}

// Reset discards all selections, options and cached fetches.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[Level]string)
	s.options = make(map[Level][]Node)
	s.cache = make(map[cacheKey][]Node)
	for _, l := range Levels {
		s.gen[l]++
	}
}

func (s *Selection) load(ctx context.Context, level Level, parentID string) error {
	if level != LevelState && parentID == "" {
		s.mu.Lock()
		s.options[level] = []Node{}
		s.mu.Unlock()
		return nil
	}

	key := cacheKey{level: level, parent: parentID}

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.options[level] = cached
		s.mu.Unlock()
		return nil
	}
	gen := s.gen[level]
	s.mu.Unlock()

	nodes, err := s.src.Children(ctx, level, parentID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer selection upstream has replaced this list while we were waiting.
	if s.gen[level] != gen || (level != LevelState && s.selected[level.Parent()] != parentID) {
		log.Printf("[geo] dropped stale %s options for %q", level, parentID)
		return nil
	}

	if err != nil {
		s.options[level] = []Node{}
		return &LoadError{Level: level, ParentID: parentID, Err: err}
	}
	if nodes == nil {
		nodes = []Node{}
	}
	s.cache[key] = nodes
	s.options[level] = nodes
	return nil
}

// Selected returns the selected id at level, or "".
func (s *Selection) Selected(level Level) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[level]
}

// Options returns a copy of the loaded option list at level.
func (s *Selection) Options(level Level) []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Node{}, s.options[level]...)
}

// Node returns the selected node at level when it is among the loaded options.
func (s *Selection) Node(level Level) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.selected[level]
	if !ok {
		return Node{}, false
	}
	for _, n := range s.options[level] {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FindByName looks up a loaded option by name, ignoring case and surrounding space.
func (s *Selection) FindByName(level Level, name string) (Node, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	if want == "" {
		return Node{}, false
	}
	for _, n := range s.Options(level) {
		if fold.String(strings.TrimSpace(n.Name)) == want {
			return n, true
		}
	}
	return Node{}, false
}

// Names returns the selected state, district and town names, "" where unset.
func (s *Selection) Names() (state, district, town string) {
	if n, ok := s.Node(LevelState); ok {
		state = n.Name
	}
	if n, ok := s.Node(LevelDistrict); ok {
		district = n.Name
	}
	if n, ok := s.Node(LevelTown); ok {
		town = n.Name
	}
	return state, district, town
}
