package app

import "sync"

// Views tracks which views are mounted. Each mount gets a fresh token;
// results carrying an older token belong to a view that is gone.
type Views struct {
	mu      sync.Mutex
	next    uint64
	mounted map[string]uint64
}

// NewViews creates an empty view registry
func NewViews() *Views {
	return &Views{mounted: make(map[string]uint64)}
}

// Mount registers name and returns its token. Mounting again replaces
// the previous token.
func (v *Views) Mount(name string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.next++
	v.mounted[name] = v.next
	return v.next
}

// Unmount forgets name if token is still the current mount
func (v *Views) Unmount(name string, token uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted[name] == token {
		delete(v.mounted, name)
	}
}

// Active reports whether token is the current mount of name
func (v *Views) Active(name string, token uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	current, ok := v.mounted[name]
	return ok && current == token
}

// Deliver runs apply only while token is the current mount of name.
// It returns false when the result was discarded.
func (v *Views) Deliver(name string, token uint64, apply func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if current, ok := v.mounted[name]; !ok || current != token {
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}
