package landrecord

import (
	"github.com/landledger/backoffice/internal/codec"
)

// NotAvailable is shown for fields whose section never arrived.
const NotAvailable = "Not available"

// Form is the flat, editable model of one land record. Keys are present only
// for sections that existed upstream.
type Form struct {
	LandID   string              `json:"land_id"`
	Values   map[string]string   `json:"values"`
	Lists    map[string][]string `json:"lists"`
	Visitors []Visitor           `json:"visitors,omitempty"`
}

func newForm(landID string) *Form {
	return &Form{
		LandID: landID,
		Values: map[string]string{},
		Lists:  map[string][]string{},
	}
}

// Get returns a scalar form value and whether the key exists.
func (f *Form) Get(key string) (string, bool) {
	v, ok := f.Values[key]
	return v, ok
}

// Display renders a scalar for read-only views.
func (f *Form) Display(key string) string {
	if v, ok := f.Values[key]; ok && v != "" {
		return v
	}
	if items, ok := f.Lists[key]; ok && len(items) > 0 {
		return codec.JoinList(items)
	}
	return NotAvailable
}

// Float parses a numeric value for calculations. Blank and unparseable
// values read as zero; the parse error is returned for the caller to log.
func (f *Form) Float(key string) (float64, error) {
	return codec.ParseFloat(key, f.Values[key])
}

// Set stores a scalar value, applying the null rule and the field's codec.
func (f *Form) Set(key, value string) {
	if f.Values == nil {
		f.Values = map[string]string{}
	}
	if fd, ok := Lookup(key); ok && fd.Kind == KindList {
		f.SetList(key, codec.SplitCSV(value))
		return
	}
	f.Values[key] = codec.Clean(value)
}

// SetList replaces a list value.
func (f *Form) SetList(key string, items []string) {
	if f.Lists == nil {
		f.Lists = map[string][]string{}
	}
	if items == nil {
		items = []string{}
	}
	f.Lists[key] = append([]string{}, items...)
}

// AddVisitor appends to the visitor log.
func (f *Form) AddVisitor(v Visitor) {
	f.Visitors = append(f.Visitors, v)
}

// Has reports whether the form carries the key in any shape.
func (f *Form) Has(key string) bool {
	if _, ok := f.Values[key]; ok {
		return true
	}
	if _, ok := f.Lists[key]; ok {
		return true
	}
	return key == KeyVisitors && f.Visitors != nil
}

// ReviewKeys returns the reviewable keys this form actually carries.
func (f *Form) ReviewKeys() []string {
	var out []string
	for _, key := range ReviewFields {
		if f.Has(key) {
			out = append(out, key)
		}
	}
	return out
}

// Clone returns a deep copy.
func (f *Form) Clone() *Form {
	c := newForm(f.LandID)
	for k, v := range f.Values {
		c.Values[k] = v
	}
	for k, v := range f.Lists {
		c.Lists[k] = append([]string{}, v...)
	}
	if f.Visitors != nil {
		c.Visitors = append([]Visitor{}, f.Visitors...)
	}
	return c
}

// Flatten copies every known field of every present section to the top level.
func Flatten(r *Record) *Form {
	f := newForm(r.LandID.String())
	for _, fd := range Fields {
		sec := r.Section(fd.Section)
		if sec == nil {
			continue
		}
		raw := sec[fd.Key]
		switch fd.Kind {
		case KindList:
			f.Lists[fd.FormKey] = codec.SplitList(raw)
		case KindBool:
			f.Values[fd.FormKey] = codec.BoolAsString(raw)
		case KindVisitors:
			f.Visitors = parseVisitors(raw)
		default:
			f.Values[fd.FormKey] = codec.Clean(raw)
		}
	}
	return f
}

// Unflatten rebuilds the nested record from a form. Sections with no form
// keys stay absent; lists are re-joined and visitors JSON-encoded the same
// way the save payload does it.
func Unflatten(f *Form) *Record {
	r := &Record{LandID: codec.FlexString(f.LandID)}
	for _, fd := range Fields {
		if !f.Has(fd.FormKey) {
			continue
		}
		sec := r.ensureSection(fd.Section)
		switch fd.Kind {
		case KindList:
			sec[fd.Key] = codec.JoinList(f.Lists[fd.FormKey])
		case KindVisitors:
			sec[fd.Key] = encodeVisitors(f.Visitors)
		default:
			sec[fd.Key] = f.Values[fd.FormKey]
		}
	}
	return r
}
