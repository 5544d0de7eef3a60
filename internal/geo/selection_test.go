package geo

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSource struct {
	mu    sync.Mutex
	data  map[cacheKey][]Node
	fail  map[Level]error
	calls map[cacheKey]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		data: map[cacheKey][]Node{
			{LevelState, ""}:           {{ID: "1", Name: "Telangana"}, {ID: "2", Name: "Andhra Pradesh"}},
			{LevelDistrict, "1"}:       {{ID: "5", Name: "Adilabad"}, {ID: "6", Name: "Nirmal"}},
			{LevelDistrict, "2"}:       {{ID: "7", Name: "Guntur"}},
			{LevelTown, "5"}:           {{ID: "9", Name: "Adilabad"}},
			{LevelTown, "6"}:           {{ID: "10", Name: "Bhainsa"}},
			{LevelMandal, "5"}:         {{ID: "20", Name: "Bela"}, {ID: "21", Name: "Boath"}},
			{LevelSector, "5"}:         {{ID: "30", Name: "North"}},
			{LevelMandal, "6"}:         {{ID: "22", Name: "Kuntala"}},
			{LevelSector, "6"}:         {{ID: "31", Name: "South"}},
			{LevelMandalVillage, "20"}: {{ID: "100", Name: "Sangidi"}},
			{LevelMandalVillage, "21"}: {{ID: "101", Name: "Pochera"}},
			{LevelSectorVillage, "30"}: {{ID: "200", Name: "Mavala"}},
		},
		fail:  map[Level]error{},
		calls: map[cacheKey]int{},
	}
}

func (f *fakeSource) Children(ctx context.Context, level Level, parentID string) ([]Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := cacheKey{level, parentID}
	f.calls[k]++
	if err := f.fail[level]; err != nil {
		return nil, err
	}
	return f.data[k], nil
}

func (f *fakeSource) callCount(level Level, parent string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[cacheKey{level, parent}]
}

func drill(t *testing.T, s *Selection) {
	t.Helper()
	ctx := context.Background()
	if err := s.LoadStates(ctx); err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	if err := s.SelectState(ctx, "1"); err != nil {
		t.Fatalf("SelectState: %v", err)
	}
	if err := s.SelectDistrict(ctx, "5"); err != nil {
		t.Fatalf("SelectDistrict: %v", err)
	}
	if err := s.SelectMandal(ctx, "20"); err != nil {
		t.Fatalf("SelectMandal: %v", err)
	}
	if err := s.SelectSector(ctx, "30"); err != nil {
		t.Fatalf("SelectSector: %v", err)
	}
	if err := s.SelectTown(ctx, "9"); err != nil {
		t.Fatalf("SelectTown: %v", err)
	}
	if err := s.SelectVillage(ctx, LevelMandalVillage, "100"); err != nil {
		t.Fatalf("SelectVillage: %v", err)
	}
}

func TestSelectDistrictClearsDownstreamKeepsState(t *testing.T) {
	s := NewSelection(newFakeSource(), ViewAll)
	drill(t, s)

	if err := s.SelectDistrict(context.Background(), "6"); err != nil {
		t.Fatalf("SelectDistrict: %v", err)
	}

	if got := s.Selected(LevelState); got != "1" {
		t.Errorf("state selection changed to %q", got)
	}
	for _, l := range []Level{LevelTown, LevelMandal, LevelSector, LevelMandalVillage, LevelSectorVillage} {
		if got := s.Selected(l); got != "" {
			t.Errorf("%s still selected: %q", l, got)
		}
	}
	if opts := s.Options(LevelMandalVillage); len(opts) != 0 {
		t.Errorf("mandal villages not cleared: %v", opts)
	}
	if opts := s.Options(LevelTown); len(opts) != 1 || opts[0].Name != "Bhainsa" {
		t.Errorf("towns for new district not loaded: %v", opts)
	}
}

func TestSelectMandalKeepsSiblingsAndAncestors(t *testing.T) {
	s := NewSelection(newFakeSource(), ViewAll)
	drill(t, s)

	if err := s.SelectMandal(context.Background(), "21"); err != nil {
		t.Fatal(err)
	}
	if s.Selected(LevelDistrict) != "5" || s.Selected(LevelSector) != "30" || s.Selected(LevelTown) != "9" {
		t.Errorf("selecting a mandal touched non-descendant levels")
	}
	if s.Selected(LevelMandalVillage) != "" {
		t.Errorf("mandal village should be cleared")
	}
	opts := s.Options(LevelMandalVillage)
	if len(opts) != 1 || opts[0].ID != "101" {
		t.Errorf("villages for new mandal not loaded: %v", opts)
	}
}

func TestSelectStateEmptyLeavesDistrictsEmpty(t *testing.T) {
	src := newFakeSource()
	s := NewSelection(src, ViewAll)
	drill(t, s)

	if err := s.SelectState(context.Background(), ""); err != nil {
		t.Fatalf("empty state should not error: %v", err)
	}
	for _, l := range Levels {
		if got := s.Selected(l); got != "" {
			t.Errorf("%s still selected: %q", l, got)
		}
	}
	if opts := s.Options(LevelDistrict); len(opts) != 0 {
		t.Errorf("districts should be empty: %v", opts)
	}
	if n := src.callCount(LevelDistrict, ""); n != 0 {
		t.Errorf("empty parent should not be fetched, got %d calls", n)
	}
}

func TestViewLimitsDistrictFanOut(t *testing.T) {
	src := newFakeSource()
	s := NewSelection(src, ViewTowns)
	ctx := context.Background()
	_ = s.SelectState(ctx, "1")
	_ = s.SelectDistrict(ctx, "5")

	if len(s.Options(LevelTown)) != 1 {
		t.Errorf("towns not loaded")
	}
	if src.callCount(LevelMandal, "5") != 0 || src.callCount(LevelSector, "5") != 0 {
		t.Errorf("mandals/sectors fetched outside the towns view")
	}
}

func TestFailedLevelStaysNavigable(t *testing.T) {
	src := newFakeSource()
	upstream := errors.New("boom")
	src.fail[LevelMandal] = upstream
	s := NewSelection(src, ViewAll)
	ctx := context.Background()
	_ = s.SelectState(ctx, "1")

	err := s.SelectDistrict(ctx, "5")
	var le *LoadError
	if !errors.As(err, &le) || le.Level != LevelMandal || !errors.Is(err, upstream) {
		t.Fatalf("expected mandal LoadError, got %v", err)
	}
	if s.Selected(LevelDistrict) != "5" {
		t.Errorf("district selection lost on child failure")
	}
	if len(s.Options(LevelMandal)) != 0 {
		t.Errorf("failed level should be empty")
	}
	if len(s.Options(LevelTown)) != 1 || len(s.Options(LevelSector)) != 1 {
		t.Errorf("sibling levels should still load")
	}

	// The cascade keeps working once the level recovers.
	delete(src.fail, LevelMandal)
	if err := s.SelectDistrict(ctx, "6"); err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if len(s.Options(LevelMandal)) != 1 {
		t.Errorf("mandals not loaded after recovery")
	}
}

func TestFetchesAreCachedPerSession(t *testing.T) {
	src := newFakeSource()
	s := NewSelection(src, ViewAll)
	ctx := context.Background()
	_ = s.SelectState(ctx, "1")
	_ = s.SelectState(ctx, "2")
	_ = s.SelectState(ctx, "1")
	if n := src.callCount(LevelDistrict, "1"); n != 1 {
		t.Errorf("expected one fetch of districts for state 1, got %d", n)
	}

	s.Reset()
	_ = s.SelectState(ctx, "1")
	if n := src.callCount(LevelDistrict, "1"); n != 2 {
		t.Errorf("Reset should drop the cache, got %d fetches", n)
	}
}

type blockingSource struct {
	*fakeSource
	release chan struct{}
	started chan struct{}
}

func (b *blockingSource) Children(ctx context.Context, level Level, parentID string) ([]Node, error) {
	if level == LevelDistrict && parentID == "1" {
		close(b.started)
		<-b.release
	}
	return b.fakeSource.Children(ctx, level, parentID)
}

func TestStaleResponseIsDropped(t *testing.T) {
	src := &blockingSource{fakeSource: newFakeSource(), release: make(chan struct{}), started: make(chan struct{})}
	s := NewSelection(src, ViewAll)
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- s.SelectState(ctx, "1") }()
	<-src.started

	if err := s.SelectState(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	close(src.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	opts := s.Options(LevelDistrict)
	if len(opts) != 1 || opts[0].Name != "Guntur" {
		t.Fatalf("stale districts overwrote the newer selection: %v", opts)
	}
}

func TestNodeNamesAndFindByName(t *testing.T) {
	s := NewSelection(newFakeSource(), ViewAll)
	drill(t, s)

	state, district, town := s.Names()
	if state != "Telangana" || district != "Adilabad" || town != "Adilabad" {
		t.Errorf("Names() = %q %q %q", state, district, town)
	}
	n, ok := s.FindByName(LevelMandal, "  BOATH ")
	if !ok || n.ID != "21" {
		t.Errorf("FindByName = %+v, %v", n, ok)
	}
	if _, ok := s.FindByName(LevelMandal, ""); ok {
		t.Errorf("empty name should not match")
	}
}

func TestLevelRelations(t *testing.T) {
	if LevelTown.Parent() != LevelDistrict || LevelSectorVillage.Parent() != LevelSector {
		t.Errorf("unexpected parents")
	}
	if got := len(LevelDistrict.Descendants()); got != 5 {
		t.Errorf("district should have 5 descendant levels, got %d", got)
	}
	if got := LevelMandal.Descendants(); len(got) != 1 || got[0] != LevelMandalVillage {
		t.Errorf("mandal descendants = %v", got)
	}
	if len(LevelTown.Descendants()) != 0 {
		t.Errorf("town is a leaf")
	}
}

func TestSelectVillageRejectsNonVillageLevels(t *testing.T) {
	s := NewSelection(newFakeSource(), ViewAll)
	if err := s.SelectVillage(context.Background(), LevelTown, "9"); err == nil {
		t.Fatal("expected an error for a non-village level")
	}
	if s.Selected(LevelTown) != "" {
		t.Errorf("town was selected through SelectVillage")
	}
}
