package stations

import "strings"

// Required field names every station section must define.
const (
	FieldName     = "name"
	FieldStation  = "station"
	FieldNetwork  = "network"
	FieldLocation = "location"
	FieldChannel  = "channel"

	// FieldOpOff is optional and defaults to 0.
	FieldOpOff = "opOff"
)

// RequiredFields is the default set of fields a section must carry.
var RequiredFields = []string{FieldName, FieldStation, FieldNetwork, FieldLocation, FieldChannel}

// FieldValue holds either a single string or an ordered list of strings.
// Callers must check IsList (or use Values) instead of assuming a shape.
type FieldValue struct {
	scalar string
	list   []string
	isList bool
}

// Scalar builds a single-valued field.
func Scalar(s string) FieldValue {
	return FieldValue{scalar: s}
}

// List builds a multi-valued field.
func List(items ...string) FieldValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return FieldValue{list: cp, isList: true}
}

// ParseFieldValue splits raw on commas when it contains one, trimming each
// item. A raw value without a comma is kept verbatim as a Scalar.
func ParseFieldValue(raw string) FieldValue {
	if !strings.Contains(raw, ",") {
		return Scalar(raw)
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return FieldValue{list: parts, isList: true}
}

// IsList reports whether the value is the List variant.
func (v FieldValue) IsList() bool { return v.isList }

// Scalar returns the string and true for the Scalar variant.
func (v FieldValue) Scalar() (string, bool) {
	if v.isList {
		return "", false
	}
	return v.scalar, true
}

// List returns a copy of the items and true for the List variant.
func (v FieldValue) List() ([]string, bool) {
	if !v.isList {
		return nil, false
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Values flattens either variant into a slice.
func (v FieldValue) Values() []string {
	if v.isList {
		items, _ := v.List()
		return items
	}
	return []string{v.scalar}
}

// String renders the value the way it appears in the config file.
func (v FieldValue) String() string {
	if v.isList {
		return strings.Join(v.list, ",")
	}
	return v.scalar
}

// StationRecord is the parsed content of one config section.
type StationRecord struct {
	// Title is the section name, used for display and output naming.
	Title string
	OpOff int

	fields map[string]FieldValue
}

// NewStationRecord builds a record from already parsed fields.
func NewStationRecord(title string, fields map[string]FieldValue, opOff int) StationRecord {
	cp := make(map[string]FieldValue, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return StationRecord{Title: title, OpOff: opOff, fields: cp}
}

// Field returns the named field; a missing field yields an empty Scalar.
func (r StationRecord) Field(name string) FieldValue {
	return r.fields[name]
}

func (r StationRecord) Name() FieldValue     { return r.Field(FieldName) }
func (r StationRecord) Station() FieldValue  { return r.Field(FieldStation) }
func (r StationRecord) Network() FieldValue  { return r.Field(FieldNetwork) }
func (r StationRecord) Location() FieldValue { return r.Field(FieldLocation) }
func (r StationRecord) Channel() FieldValue  { return r.Field(FieldChannel) }
