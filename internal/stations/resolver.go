// Package stations maps city and station names to canonical station codes.
package stations

import (
	"strings"

	toolerr "railway-gateway/internal/common/errors"
)

// Code is a canonical station identifier, e.g. "NDLS". Equality is
// case-sensitive exact match.
type Code string

// Directory is the immutable station lookup table. It is built once at
// process start and never mutated afterwards, so it needs no locking.
type Directory struct {
	codes  map[Code]struct{}
	cities map[string][]Code
}

// NewDirectory builds the directory from the compiled-in defaults merged
// with configuration overrides. An override for an existing city replaces
// its list wholesale; list order is preserved as given.
func NewDirectory(cityOverrides map[string][]string, extraCodes []string) *Directory {
	d := &Directory{
		codes:  make(map[Code]struct{}),
		cities: make(map[string][]Code),
	}

	for city, codes := range defaultCityStations {
		d.addCity(city, codes)
	}
	for city, codes := range cityOverrides {
		list := make([]Code, len(codes))
		for i, c := range codes {
			list[i] = Code(c)
		}
		d.addCity(city, list)
	}

	for _, c := range defaultExtraCodes {
		d.codes[c] = struct{}{}
	}
	for _, c := range extraCodes {
		d.codes[Code(c)] = struct{}{}
	}

	return d
}

func (d *Directory) addCity(city string, codes []Code) {
	list := make([]Code, len(codes))
	copy(list, codes)
	d.cities[strings.ToLower(strings.TrimSpace(city))] = list
	for _, c := range list {
		d.codes[c] = struct{}{}
	}
}

// IsCode reports whether s is a known station code (exact, case-sensitive).
func (d *Directory) IsCode(s string) bool {
	_, ok := d.codes[Code(s)]
	return ok
}

// Resolve maps input to an ordered station-code list:
// a known code passes through as a single-element list without consulting
// the city table; a known city returns its fixed ordered list; anything
// else fails. Ambiguous input must never be silently guessed, so there is
// no fuzzy matching and no network access here.
func (d *Directory) Resolve(input string) ([]Code, error) {
	if d.IsCode(input) {
		return []Code{Code(input)}, nil
	}

	key := strings.ToLower(strings.TrimSpace(input))
	if list, ok := d.cities[key]; ok {
		out := make([]Code, len(list))
		copy(out, list)
		return out, nil
	}

	return nil, toolerr.NewResolutionError(input)
}

// ResolveFirst returns the first-ranked code for input. Single-target
// operations use this so a city name never triggers a fan-out.
func (d *Directory) ResolveFirst(input string) (Code, error) {
	list, err := d.Resolve(input)
	if err != nil {
		return "", err
	}
	return list[0], nil
}
