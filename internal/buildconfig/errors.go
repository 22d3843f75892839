package buildconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSchema is returned when an overlay and its base disagree on
	// whether a key holds a nested Config.
	ErrMalformedSchema = errors.New("malformed configuration schema")

	// ErrUnknownEnvironment is returned for an environment name with no
	// registered overlay.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrInvalidConfig is returned when a merged configuration fails to decode
	// or validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MalformedSchemaError records where a merge found mismatched value kinds.
type MalformedSchemaError struct {
	// Path is the key path from the root of the tree.
	Path []string
	// Base and Overlay describe the value kinds that collided.
	Base    string
	Overlay string
}

func (e *MalformedSchemaError) Error() string {
	return fmt.Sprintf("%s: %s holds %s in base but %s in overlay",
		ErrMalformedSchema, strings.Join(e.Path, "."), e.Base, e.Overlay)
}

func (e *MalformedSchemaError) Is(target error) bool {
	return target == ErrMalformedSchema
}
