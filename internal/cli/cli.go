package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/i474232898/station-dayplot/internal/common"
)

// DefaultDestDir is used when no destination directory is given.
const DefaultDestDir = "./"

const usageText = `
station-dayplot - render seismic dayplots for every station in a config file.

Usage:
  station-dayplot <config_file> <time_window> [dest_dir]

Arguments:
  config_file   INI file, one [section] per station.
  time_window   one of: day, week, month, year.
  dest_dir      directory the PNG files are written to (default ./).
`

// Args is the resolved invocation.
type Args struct {
	ConfigFile string
	TimeWindow string
	DestDir    string // always ends with "/"
}

// UsageError reports too few positional arguments.
type UsageError struct {
	Got int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("not enough arguments: need <config_file> <time_window>, got %d", e.Got)
}

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Parse resolves args (without the program name). It returns shouldExit
// when help was requested and printed to output.
func Parse(args []string, output io.Writer) (Args, bool, error) {
	flagSet := flag.NewFlagSet("station-dayplot", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return Args{}, true, nil
		}
		return Args{}, false, &ExitError{Code: 2, Message: err.Error(), Err: err}
	}

	rest := flagSet.Args()
	if len(rest) < 2 {
		flagSet.Usage()
		err := &UsageError{Got: len(rest)}
		return Args{}, false, &ExitError{Code: 2, Message: err.Error(), Err: err}
	}

	dest := DefaultDestDir
	if len(rest) >= 3 && rest[2] != "" {
		dest = rest[2]
	}

	return Args{
		ConfigFile: rest[0],
		TimeWindow: rest[1],
		DestDir:    common.WithTrailingSlash(dest),
	}, false, nil
}
