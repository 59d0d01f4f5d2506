package models

import (
	"sort"
	"strings"
	"sync"
)

// Blackboard is a thread-safe key/value store shared by the tree bound to an
// entity and the systems acting on that entity. Namespaced views share the
// root storage and prefix their keys with "ns:".
type Blackboard struct {
	mu     sync.RWMutex
	data   map[string]any
	prefix string
	root   *Blackboard
}

func NewBlackboard() *Blackboard {
	b := &Blackboard{data: make(map[string]any)}
	b.root = b
	return b
}

func (b *Blackboard) fullKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return b.prefix + ":" + key
}

func (b *Blackboard) Get(key string) (any, bool) {
	r := b.root
	full := b.fullKey(key)
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[full]
	return v, ok
}

func (b *Blackboard) Set(key string, value any) {
	r := b.root
	full := b.fullKey(key)
	r.mu.Lock()
	r.data[full] = value
	r.mu.Unlock()
}

// SetIfAbsent stores value only when key is not present and reports whether it did.
func (b *Blackboard) SetIfAbsent(key string, value any) bool {
	r := b.root
	full := b.fullKey(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[full]; ok {
		return false
	}
	r.data[full] = value
	return true
}

// Update applies fn to the current value of key under the write lock.
func (b *Blackboard) Update(key string, fn func(old any, ok bool) any) any {
	r := b.root
	full := b.fullKey(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.data[full]
	v := fn(old, ok)
	r.data[full] = v
	return v
}

func (b *Blackboard) Delete(key string) {
	r := b.root
	full := b.fullKey(key)
	r.mu.Lock()
	delete(r.data, full)
	r.mu.Unlock()
}

func (b *Blackboard) Namespace(ns string) *Blackboard {
	ns = strings.ReplaceAll(ns, ":", "_")
	return &Blackboard{root: b.root, prefix: ns}
}

// Keys returns the sorted keys visible from this view.
func (b *Blackboard) Keys() []string {
	r := b.root
	r.mu.RLock()
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	if b.prefix == "" {
		return keys
	}
	pref := b.prefix + ":"
	res := make([]string, 0)
	for _, k := range keys {
		if strings.HasPrefix(k, pref) {
			res = append(res, strings.TrimPrefix(k, pref))
		}
	}
	return res
}
