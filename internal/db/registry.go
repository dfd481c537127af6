package db

import "sync"

// Registry remembers index definitions a store has created or confirmed,
// so writes and searches can resolve field names by index name.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*IndexDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*IndexDefinition)}
}

// Put records def under its name.
func (r *Registry) Put(def *IndexDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Get returns the definition for name.
func (r *Registry) Get(name string) (*IndexDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, ErrIndexNotFound
	}
	return def, nil
}

// Remove forgets name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, name)
}
