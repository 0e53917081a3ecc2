// Package stations reads the INI station list that drives a plotting run.
package stations

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Values keep inline "#" and ";" text; only whole-line comments are dropped.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:     true,
	IgnoreInlineComment: true,
}

// Load reads path and returns one record per section, in file order,
// requiring RequiredFields in every section.
func Load(path string) ([]StationRecord, error) {
	return LoadWith(path, RequiredFields)
}

// LoadWith is Load with a caller-supplied list of required fields.
func LoadWith(path string, required []string) ([]StationRecord, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("read station config %s: %w", path, err)
	}
	return parse(f, required)
}

// Parse is LoadWith for in-memory config data.
func Parse(data []byte, required []string) ([]StationRecord, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parse station config: %w", err)
	}
	return parse(f, required)
}

func parse(f *ini.File, required []string) ([]StationRecord, error) {
	defaults := f.Section(ini.DefaultSection)

	var records []StationRecord
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}

		fields := make(map[string]FieldValue, len(required))
		for _, name := range required {
			raw, ok := lookup(sec, defaults, name)
			if !ok {
				return nil, &MissingFieldError{Section: sec.Name(), Field: name}
			}
			fields[name] = ParseFieldValue(raw)
		}

		opOff := 0
		if raw, ok := lookup(sec, defaults, FieldOpOff); ok {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, &MalformedConfigError{Section: sec.Name(), Field: FieldOpOff, Value: raw, Err: err}
			}
			opOff = n
		}

		records = append(records, NewStationRecord(sec.Name(), fields, opOff))
	}
	return records, nil
}

// lookup finds name in sec, falling back to the DEFAULT section.
func lookup(sec, defaults *ini.Section, name string) (string, bool) {
	key := strings.ToLower(name)
	if sec.HasKey(key) {
		return sec.Key(key).String(), true
	}
	if defaults != nil && defaults.HasKey(key) {
		return defaults.Key(key).String(), true
	}
	return "", false
}
