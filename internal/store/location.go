package store

// Location is the address-bar collaborator. Query is read once during Init;
// ReplaceQuery performs a same-document replacement so filtering never adds
// history entries.
type Location interface {
	Query() string
	ReplaceQuery(queryString string)
}

// MemoryLocation is the Location used outside a browser context. It simply
// remembers the last written query string.
type MemoryLocation struct {
	current string
}

func NewMemoryLocation(initial string) *MemoryLocation {
	return &MemoryLocation{current: initial}
}

func (l *MemoryLocation) Query() string {
	return l.current
}

func (l *MemoryLocation) ReplaceQuery(queryString string) {
	l.current = queryString
}
