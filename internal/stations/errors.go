package stations

import "fmt"

// MissingFieldError reports a required field absent from a section.
type MissingFieldError struct {
	Section string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is missing from config section [%s]", e.Field, e.Section)
}

// MalformedConfigError reports a value that is present but cannot be parsed.
type MalformedConfigError struct {
	Section string
	Field   string
	Value   string
	Err     error
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("config section [%s]: invalid %s %q: %v", e.Section, e.Field, e.Value, e.Err)
}

func (e *MalformedConfigError) Unwrap() error {
	return e.Err
}
