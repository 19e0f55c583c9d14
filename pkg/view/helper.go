package view

import (
	"sort"
	"sync"
)

// Helper is a view helper exposed to templates under a string key.
//
// Render produces the helper's output from its current state. It must not
// write to a capture scope. Every other exported method of a concrete helper
// returns the helper itself so calls chain:
//
//	helper.SetScheme("https").Render()
type Helper interface {
	Render() (string, error)
}

// HelperFunc adapts a plain function into a stateless Helper.
type HelperFunc func() (string, error)

// Render calls f.
func (f HelperFunc) Render() (string, error) {
	return f()
}

// HelperRegistry stores helpers by key. Reads are safe for concurrent use;
// registration is expected to happen before rendering starts.
type HelperRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// NewHelperRegistry creates an empty registry.
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{
		helpers: make(map[string]Helper),
	}
}

// Register stores helper under key, replacing any previous entry.
func (r *HelperRegistry) Register(key string, helper Helper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.helpers == nil {
		r.helpers = make(map[string]Helper)
	}
	r.helpers[key] = helper
}

// Get retrieves the helper registered under key.
func (r *HelperRegistry) Get(key string) (Helper, error) {
	if r == nil {
		return nil, helperNotFound(key)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	helper, ok := r.helpers[key]
	if !ok || helper == nil {
		return nil, helperNotFound(key)
	}
	return helper, nil
}

// Has reports whether key is registered.
func (r *HelperRegistry) Has(key string) bool {
	_, err := r.Get(key)
	return err == nil
}

// Keys returns the registered keys sorted.
func (r *HelperRegistry) Keys() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.helpers))
	for key := range r.helpers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a registry holding the same helper instances. Later
// registrations on either registry do not affect the other.
func (r *HelperRegistry) Clone() *HelperRegistry {
	cloned := NewHelperRegistry()
	if r == nil {
		return cloned
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for key, helper := range r.helpers {
		cloned.helpers[key] = helper
	}
	return cloned
}
