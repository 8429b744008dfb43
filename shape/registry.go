package shape

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownProfile is returned by Lookup for unregistered names.
var ErrUnknownProfile = errors.New("shape: unknown profile")

var registry = map[string]Profile{
	"gaussian":   Gaussian,
	"lorentzian": Lorentzian,
	"airy":       Airy,
	"sinc2":      SincSquared,
	"sech":       Sech,
	"moffat":     Moffat(2.5),
}

var registry2D = map[string]Profile2D{
	"gaussian": Gaussian2D,
	"airy":     Airy2D,
}

// Lookup returns the 1D profile registered under name (case-insensitive).
func Lookup(name string) (Profile, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	return p, nil
}

// Lookup2D returns the non-separable 2D profile registered under name.
func Lookup2D(name string) (Profile2D, error) {
	p, ok := registry2D[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	return p, nil
}

// Names returns the registered 1D profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
