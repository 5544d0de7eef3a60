// Package landrecord models land records as the land service sends them and
// converts them to and from the flat form model the review screen edits.
package landrecord

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"

	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/codec"
)

// Section names of a nested land record.
const (
	SectionLocation = "land_location"
	SectionFarmer   = "farmer_details"
	SectionLand     = "land_details"
	SectionGPS      = "gps_tracking"
	SectionDispute  = "dispute_details"
	SectionOffice   = "office_work"
)

// Section is one sub-object of a record. A nil Section was absent upstream.
type Section map[string]any

// UnmarshalJSON accepts an object or a string holding one. null, "null", ""
// and any other shape leave the section absent so one malformed record does
// not fail the list it arrived in.
func (s *Section) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(str))
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		log.Printf("[landrecord] %v", &apperr.ParseError{Field: "section", Raw: string(data), Err: err})
		*s = nil
		return nil
	}
	*s = Section(m)
	return nil
}

// Record is a land record in its nested upstream shape.
type Record struct {
	LandID         codec.FlexString `json:"land_id"`
	LandLocation   Section          `json:"land_location,omitempty"`
	FarmerDetails  Section          `json:"farmer_details,omitempty"`
	LandDetails    Section          `json:"land_details,omitempty"`
	GPSTracking    Section          `json:"gps_tracking,omitempty"`
	DisputeDetails Section          `json:"dispute_details,omitempty"`
	OfficeWork     Section          `json:"office_work,omitempty"`
}

// UnmarshalJSON keeps numbers as json.Number so long ids and phone numbers
// survive without float rounding.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p plain
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// Section returns the named sub-object, or nil when it is absent.
func (r *Record) Section(name string) Section {
	switch name {
	case SectionLocation:
		return r.LandLocation
	case SectionFarmer:
		return r.FarmerDetails
	case SectionLand:
		return r.LandDetails
	case SectionGPS:
		return r.GPSTracking
	case SectionDispute:
		return r.DisputeDetails
	case SectionOffice:
		return r.OfficeWork
	}
	return nil
}

// ensureSection returns the named sub-object, creating it if needed.
func (r *Record) ensureSection(name string) Section {
	if s := r.Section(name); s != nil {
		return s
	}
	s := Section{}
	switch name {
	case SectionLocation:
		r.LandLocation = s
	case SectionFarmer:
		r.FarmerDetails = s
	case SectionLand:
		r.LandDetails = s
	case SectionGPS:
		r.GPSTracking = s
	case SectionDispute:
		r.DisputeDetails = s
	case SectionOffice:
		r.OfficeWork = s
	}
	return s
}

// Visitor is one office visit logged against a land.
type Visitor struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

// parseVisitors accepts a JSON array or a JSON-encoded string of one.
// Malformed input yields an empty list.
func parseVisitors(v any) []Visitor {
	var items []any
	switch t := v.(type) {
	case nil:
		return []Visitor{}
	case []any:
		items = t
	case string:
		if t == "" || t == "null" {
			return []Visitor{}
		}
		if err := json.Unmarshal([]byte(t), &items); err != nil {
			log.Printf("[landrecord] %v", &apperr.ParseError{Field: "visitors", Raw: t, Err: err})
			return []Visitor{}
		}
	default:
		return []Visitor{}
	}

	out := make([]Visitor, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Visitor{
			Date:   codec.Clean(m["date"]),
			Name:   codec.Clean(m["name"]),
			Phone:  codec.Clean(m["phone"]),
			Status: codec.Clean(m["status"]),
		})
	}
	return out
}

func encodeVisitors(vs []Visitor) string {
	if vs == nil {
		vs = []Visitor{}
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return "[]"
	}
	return string(b)
}
