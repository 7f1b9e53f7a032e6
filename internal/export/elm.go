package export

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/orbitbake/internal/bake"
)

const elmHeader = `module Orbits exposing (Body, Frequency, Orbit, orbits)


type alias Frequency =
    { freq : Float
    , amplitude : Float
    , phase : Float
    }


type alias Body =
    { frequencies : List Frequency }


type alias Orbit =
    { name : String
    , period : Float
    , energy : Maybe Float
    , bodies : List Body
    }


orbits : List Orbit
orbits =
`

// WriteElm emits an Elm module exposing the orbits as a constant. Component
// values are rounded to 8 decimals.
func WriteElm(w io.Writer, orbits []bake.BakedOrbit) error {
	if err := CheckFinite(orbits); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(elmHeader)

	if len(orbits) == 0 {
		sb.WriteString("    []\n")
	}
	for i, o := range orbits {
		sb.WriteString(listSep(i, "    "))
		sb.WriteString("{ name = " + elmString(o.Name) + "\n")
		sb.WriteString("      , period = " + elmFloat(o.Period) + "\n")
		sb.WriteString("      , energy = " + elmMaybe(o.Energy) + "\n")
		sb.WriteString("      , bodies =\n")

		if len(o.Bodies) == 0 {
			sb.WriteString("            []\n")
		}
		for j, b := range o.Bodies {
			sb.WriteString(listSep(j, "            "))
			sb.WriteString("{ frequencies =\n")

			if len(b.Components) == 0 {
				sb.WriteString("                    []\n")
			}
			for k, c := range b.Components {
				sb.WriteString(listSep(k, "                    "))
				sb.WriteString("{ freq = " + elmFloat(round8(c.Freq)))
				sb.WriteString(", amplitude = " + elmFloat(round8(c.Amplitude)))
				sb.WriteString(", phase = " + elmFloat(round8(c.Phase)) + " }\n")
			}
			if len(b.Components) > 0 {
				sb.WriteString("                    ]\n")
			}
			sb.WriteString("              }\n")
		}
		if len(o.Bodies) > 0 {
			sb.WriteString("            ]\n")
		}
		sb.WriteString("      }\n")
	}
	if len(orbits) > 0 {
		sb.WriteString("    ]\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// listSep opens an elm-format style list: "[ " before the first item and
// ", " before the rest.
func listSep(i int, indent string) string {
	if i == 0 {
		return indent + "[ "
	}
	return indent + ", "
}

func round8(v float64) float64 {
	const precision = 1e8
	return math.Round(v*precision) / precision
}

func elmFloat(v float64) string {
	if v == 0 {
		// no negative zero
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func elmMaybe(v *float64) string {
	if v == nil {
		return "Nothing"
	}
	if *v < 0 {
		return "Just (" + elmFloat(*v) + ")"
	}
	return "Just " + elmFloat(*v)
}

var elmEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func elmString(s string) string {
	return `"` + elmEscaper.Replace(s) + `"`
}
