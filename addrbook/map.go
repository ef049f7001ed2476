package addrbook

import (
	"fmt"
	"sort"
	"strings"
)

// Map renames contract names stored in a network document to the names the
// rest of the toolchain uses. Names that are not in the map keep their name.
//
// Example:
//
//	m := addrbook.Map{
//	    "PriceFeed": "UniswapAnchoredView",
//	}
//	m.Rename("PriceFeed") // "UniswapAnchoredView"
//	m.Rename("cDAI")      // "cDAI"
type Map map[string]string

// DefaultRenames returns the built-in rename table.
func DefaultRenames() Map {
	return Map{
		"PriceFeed": "UniswapAnchoredView",
		"PriceData": "OpenOraclePriceData",
	}
}

func (m Map) Rename(name string) string {
	if canonical, ok := m[name]; ok {
		return canonical
	}
	return name
}

// Merge returns a copy of m with the entries of other added on top.
func (m Map) Merge(other Map) Map {
	res := make(Map, len(m)+len(other))
	for k, v := range m {
		res[k] = v
	}
	for k, v := range other {
		res[k] = v
	}
	return res
}

// ParseRenames parses "Old=New" pairs, as given on the command line.
func ParseRenames(pairs []string) (Map, error) {
	res := Map{}
	for _, pair := range pairs {
		from, to, found := strings.Cut(pair, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !found || from == "" || to == "" {
			return nil, fmt.Errorf("invalid rename %q, expected Old=New", pair)
		}
		res[from] = to
	}
	return res, nil
}

func (m Map) String() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ", ")
}
