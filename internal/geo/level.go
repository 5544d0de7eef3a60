package geo

// Level is a tier of the state → district → mandal/sector/town → village tree.
type Level int

const (
	LevelState Level = iota + 1
	LevelDistrict
	LevelMandal
	LevelSector
	LevelTown
	LevelMandalVillage
	LevelSectorVillage
)

// Levels lists every level, ancestors first.
var Levels = []Level{
	LevelState,
	LevelDistrict,
	LevelMandal,
	LevelSector,
	LevelTown,
	LevelMandalVillage,
	LevelSectorVillage,
}

var levelNames = map[Level]string{
	LevelState:         "state",
	LevelDistrict:      "district",
	LevelMandal:        "mandal",
	LevelSector:        "sector",
	LevelTown:          "town",
	LevelMandalVillage: "mandal_village",
	LevelSectorVillage: "sector_village",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return "unknown"
}

// Parent returns the level whose selection scopes l, or 0 for the root.
func (l Level) Parent() Level {
	switch l {
	case LevelDistrict:
		return LevelState
	case LevelMandal, LevelSector, LevelTown:
		return LevelDistrict
	case LevelMandalVillage:
		return LevelMandal
	case LevelSectorVillage:
		return LevelSector
	}
	return 0
}

// Children returns the levels loaded directly beneath l.
func (l Level) Children() []Level {
	var out []Level
	for _, c := range Levels {
		if c.Parent() == l {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every level strictly downstream of l.
func (l Level) Descendants() []Level {
	var out []Level
	for _, c := range l.Children() {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// View selects which district children a screen works with.
type View uint8

const (
	ViewTowns View = 1 << iota
	ViewMandals
	ViewSectors

	ViewAll = ViewTowns | ViewMandals | ViewSectors
)

// Includes reports whether the child level is loaded under this view.
// Levels outside the district fan-out are always included.
func (v View) Includes(l Level) bool {
	switch l {
	case LevelTown:
		return v&ViewTowns != 0
	case LevelMandal, LevelMandalVillage:
		return v&ViewMandals != 0
	case LevelSector, LevelSectorVillage:
		return v&ViewSectors != 0
	}
	return true
}
