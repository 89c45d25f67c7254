package table

import "fmt"

// Kind labels a thermo/hydro table of a tracer.
type Kind string

const (
	// Stir is the STIR hydrodynamic trajectory fed into the network.
	Stir Kind = "stir"
	// Columns is the SkyNet post-processed output.
	Columns Kind = "columns"
)

// CompKind labels a composition table.
type CompKind string

const (
	// X is mass fraction.
	X CompKind = "X"
	// Y is number fraction.
	Y CompKind = "Y"
)

var (
	Kinds     = []Kind{Stir, Columns}
	CompKinds = []CompKind{X, Y}
)

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown table kind %q (want stir or columns)", s)
}

func ParseCompKind(s string) (CompKind, error) {
	for _, k := range CompKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown composition kind %q (want X or Y)", s)
}
