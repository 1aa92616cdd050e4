// Package interning shares one copy of each weapon and cosmetic name across
// the entities and configs that mention it.
package interning

import (
	"strings"
	"sync"
)

var (
	table = make(map[string]string)
	mu    sync.RWMutex
)

// Intern returns the canonical instance of s.
func Intern(s string) string {
	if s == "" {
		return ""
	}
	mu.RLock()
	v, ok := table[s]
	mu.RUnlock()
	if ok {
		return v
	}

	clone := strings.Clone(s)
	mu.Lock()
	defer mu.Unlock()
	if v, ok := table[clone]; ok {
		return v
	}
	table[clone] = clone
	return clone
}

// Len is the number of distinct names interned so far.
func Len() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(table)
}
