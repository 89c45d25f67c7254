// Package network describes the isotopes of a nuclear reaction network and
// the composition arithmetic built on them.
package network

import (
	"fmt"
	"sort"

	"github.com/san-kum/nucleosynth/internal/table"
)

// Group selects which nuclear number composition sums are grouped by.
type Group string

const (
	GroupA Group = "A"
	GroupZ Group = "Z"
)

type Isotope struct {
	Name string `json:"isotope"`
	Z    int    `json:"z"`
	A    int    `json:"a"`
}

type Network []Isotope

var symbols = []string{
	"n", "h", "he", "li", "be", "b", "c", "n", "o", "f", "ne",
	"na", "mg", "al", "si", "p", "s", "cl", "ar", "k", "ca",
	"sc", "ti", "v", "cr", "mn", "fe", "co", "ni", "cu", "zn",
	"ga", "ge", "as", "se", "br", "kr", "rb", "sr", "y", "zr",
	"nb", "mo", "tc", "ru", "rh", "pd", "ag", "cd", "in", "sn",
	"sb", "te", "i", "xe", "cs", "ba", "la", "ce", "pr", "nd",
	"pm", "sm", "eu", "gd", "tb", "dy", "ho", "er", "tm", "yb",
	"lu", "hf", "ta", "w", "re", "os", "ir", "pt", "au", "hg",
	"tl", "pb", "bi", "po", "at", "rn", "fr", "ra", "ac", "th",
	"pa", "u", "np", "pu", "am", "cm", "bk", "cf", "es", "fm",
	"md", "no", "lr", "rf", "db", "sg", "bh", "hs", "mt", "ds",
	"rg", "cn", "nh", "fl", "mc", "lv", "ts", "og",
}

// IsotopeName returns the lowercase symbol followed by A, e.g. "he4". The free
// neutron is "n1".
func IsotopeName(z, a int) (string, error) {
	if z < 0 || z >= len(symbols) {
		return "", fmt.Errorf("network: no element with Z=%d", z)
	}
	if a < z || a < 1 {
		return "", fmt.Errorf("network: invalid mass number A=%d for Z=%d", a, z)
	}
	return fmt.Sprintf("%s%d", symbols[z], a), nil
}

// FromZA builds a network from parallel Z and A lists.
func FromZA(z, a []int) (Network, error) {
	if len(z) != len(a) {
		return nil, fmt.Errorf("network: %d Z values for %d A values", len(z), len(a))
	}
	net := make(Network, len(z))
	seen := make(map[string]bool, len(z))
	for i := range z {
		name, err := IsotopeName(z[i], a[i])
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("network: duplicate isotope %s", name)
		}
		seen[name] = true
		net[i] = Isotope{Name: name, Z: z[i], A: a[i]}
	}
	return net, nil
}

func (n Network) Names() []string {
	names := make([]string, len(n))
	for i, iso := range n {
		names[i] = iso.Name
	}
	return names
}

func (n Network) Equal(other Network) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

// Unique returns the sorted distinct values of Z or A.
func (n Network) Unique(g Group) []int {
	set := make(map[int]bool)
	for _, iso := range n {
		set[iso.number(g)] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Select returns the isotopes matching z and/or a; a nil filter matches all.
func (n Network) Select(z, a *int) Network {
	out := make(Network, 0)
	for _, iso := range n {
		if z != nil && iso.Z != *z {
			continue
		}
		if a != nil && iso.A != *a {
			continue
		}
		out = append(out, iso)
	}
	return out
}

func (iso Isotope) number(g Group) int {
	if g == GroupZ {
		return iso.Z
	}
	return iso.A
}

// MassFractions converts a number-fraction (Y) table into mass fractions,
// X_i = A_i * Y_i. The time column is carried over.
func MassFractions(y *table.Table, net Network) (*table.Table, error) {
	times, err := y.Column(table.Time)
	if err != nil {
		return nil, err
	}
	names := []string{table.Time}
	cols := [][]float64{append([]float64(nil), times...)}
	for _, iso := range net {
		yi, err := y.Column(iso.Name)
		if err != nil {
			return nil, err
		}
		xi := make([]float64, len(yi))
		for j, v := range yi {
			xi[j] = float64(iso.A) * v
		}
		names = append(names, iso.Name)
		cols = append(cols, xi)
	}
	return table.New(names, cols)
}

// Sums groups a composition table by Z or A. The result has the time column
// followed by one column per unique value, named by that value.
func Sums(comp *table.Table, net Network, g Group) (*table.Table, error) {
	times, err := comp.Column(table.Time)
	if err != nil {
		return nil, err
	}
	unique := net.Unique(g)
	pos := make(map[int]int, len(unique))
	for i, v := range unique {
		pos[v] = i
	}

	sums := make([][]float64, len(unique))
	for i := range sums {
		sums[i] = make([]float64, len(times))
	}
	for _, iso := range net {
		col, err := comp.Column(iso.Name)
		if err != nil {
			return nil, err
		}
		dst := sums[pos[iso.number(g)]]
		for j, v := range col {
			dst[j] += v
		}
	}

	names := []string{table.Time}
	cols := [][]float64{append([]float64(nil), times...)}
	for i, v := range unique {
		names = append(names, fmt.Sprint(v))
		cols = append(cols, sums[i])
	}
	return table.New(names, cols)
}

// SumY returns sum_i Y_i at each time.
func SumY(y *table.Table, net Network) ([]float64, error) {
	out := make([]float64, y.Len())
	for _, iso := range net {
		col, err := y.Column(iso.Name)
		if err != nil {
			return nil, err
		}
		for j, v := range col {
			out[j] += v
		}
	}
	return out, nil
}

// Zbar returns the mean charge, ye / sumY, at each time.
func Zbar(ye, sumy []float64) ([]float64, error) {
	if len(ye) != len(sumy) {
		return nil, fmt.Errorf("network: ye has %d rows, sumy has %d", len(ye), len(sumy))
	}
	out := make([]float64, len(ye))
	for i := range ye {
		out[i] = ye[i] / sumy[i]
	}
	return out, nil
}
