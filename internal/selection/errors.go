package selection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedOption matches every *UnrecognizedOptionError via errors.Is.
var ErrUnrecognizedOption = errors.New("unrecognized option")

// UnrecognizedOptionError reports an option value outside its allowed set,
// or an option name the catalog does not know.
type UnrecognizedOptionError struct {
	Option  string
	Value   string
	Allowed []string
	// Expected describes the accepted form when there is no fixed set of
	// values, e.g. "a non-negative integer".
	Expected string
	// Unknown is set when the option name itself is not in the catalog.
	Unknown bool
}

func (e *UnrecognizedOptionError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("unknown option %q", e.Option)
	}
	msg := fmt.Sprintf("invalid value %q for option --%s", e.Value, e.Option)
	switch {
	case e.Expected != "":
		msg += fmt.Sprintf(" (expected %s)", e.Expected)
	case len(e.Allowed) > 0:
		msg += fmt.Sprintf(" (choose from %s)", strings.Join(e.Allowed, ", "))
	default:
		msg += " (no values available)"
	}
	return msg
}

// Is makes errors.Is(err, ErrUnrecognizedOption) true.
func (e *UnrecognizedOptionError) Is(target error) bool {
	return target == ErrUnrecognizedOption
}
