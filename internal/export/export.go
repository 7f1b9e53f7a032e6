// Package export writes baked orbits for consumers outside this module.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/orbitbake/internal/bake"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatElm    Format = "elm"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

var Formats = []Format{FormatElm, FormatJSON, FormatYAML, FormatSQLite}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (available: %v)", s, Formats)
}

// Extension is the conventional file suffix for the format.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatSQLite:
		return ".db"
	default:
		return "." + string(f)
	}
}

type document struct {
	Orbits []bake.BakedOrbit `json:"orbits" yaml:"orbits"`
}

// CheckFinite validates every orbit. Writers call it before emitting
// anything so a bad orbit never produces a partial file.
func CheckFinite(orbits []bake.BakedOrbit) error {
	for _, o := range orbits {
		if err := o.CheckFinite(); err != nil {
			return err
		}
	}
	return nil
}

// Write streams orbits in a text format. SQLite is file based; use
// OpenSQLite for it.
func Write(w io.Writer, format Format, orbits []bake.BakedOrbit) error {
	switch format {
	case FormatElm:
		return WriteElm(w, orbits)
	case FormatJSON:
		return WriteJSON(w, orbits)
	case FormatYAML:
		return WriteYAML(w, orbits)
	case FormatSQLite:
		return fmt.Errorf("sqlite export needs a file path, not a stream")
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func WriteJSON(w io.Writer, orbits []bake.BakedOrbit) error {
	if err := CheckFinite(orbits); err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(document{Orbits: nonNil(orbits)})
}

func WriteYAML(w io.Writer, orbits []bake.BakedOrbit) error {
	if err := CheckFinite(orbits); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(document{Orbits: nonNil(orbits)}); err != nil {
		return err
	}
	return encoder.Close()
}

func nonNil(orbits []bake.BakedOrbit) []bake.BakedOrbit {
	if orbits == nil {
		return []bake.BakedOrbit{}
	}
	return orbits
}
