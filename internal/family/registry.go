package family

import "fmt"

// Registered family constructors, generated once at package init. Real
// deployments would load the full upstream codebooks; see doc.go for why
// these tables are small representative ones instead.
var (
	Tag36h11       = New("tag36h11", 6, 5, 1, generateCodes(6, 11, 16, 3611))
	Tag36h10       = New("tag36h10", 6, 4, 1, generateCodes(6, 9, 16, 3610))
	Tag36Artoolkit = New("tag36artoolkit", 6, 3, 1, generateCodes(6, 7, 12, 36117))
	Tag25h9        = New("tag25h9", 5, 4, 1, generateCodes(5, 9, 12, 2509))
	Tag25h7        = New("tag25h7", 5, 3, 1, generateCodes(5, 7, 12, 2507))
	Tag16h5        = New("tag16h5", 4, 2, 1, generateCodes(4, 5, 8, 1605))
)

var registry = map[string]*Family{
	Tag36h11.Name:       Tag36h11,
	Tag36h10.Name:       Tag36h10,
	Tag36Artoolkit.Name: Tag36Artoolkit,
	Tag25h9.Name:        Tag25h9,
	Tag25h7.Name:        Tag25h7,
	Tag16h5.Name:        Tag16h5,
}

// Lookup returns the named family, or an error if the name is not
// recognized. Detector configuration uses this to resolve family names
// into registrations.
func Lookup(name string) (*Family, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("family: unknown tag family %q", name)
	}
	return f, nil
}

// Names returns the names of every built-in registered family.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
