// Package btfcache memoizes offset and id lookups against a btf.Spec.
// The core package makes no promises about query cost — canonicalize and
// OffsetOf both walk the type graph on every call — so a caller issuing
// the same (type, path) query repeatedly (a BPF loader resolving the same
// CO-RE relocation across many object files, for instance) can wrap its
// Spec in a Cache instead.
package btfcache

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/alessandrogario/btfparse/btf"
)

type offsetKey struct {
	id   btf.TypeID
	path string
}

// hash combines id and path into a single xxHash64 digest. The id is
// rendered as decimal ASCII rather than packed as raw bytes so that a
// path string can never be crafted to collide with an id's byte
// representation.
func (k offsetKey) hash() uint64 {
	return xxhash.Sum64String(strconv.FormatUint(uint64(k.id), 10) + "\x00" + k.path)
}

type offsetResult struct {
	offset btf.FieldOffset
	err    error
}

type idResult struct {
	id  btf.TypeID
	err error
}

// Cache wraps a *btf.Spec and memoizes OffsetOf and IDOf results. It is
// safe for concurrent use by multiple goroutines: reads take the read
// lock, and only a cache miss takes the write lock to record a result.
type Cache struct {
	spec *btf.Spec

	mu      sync.RWMutex
	offsets map[uint64]offsetResult
	names   map[string]idResult
}

// New wraps spec in a Cache. spec must not be modified afterwards; btf.Spec
// values are immutable once returned by btf.Open and keep no reference to
// the byte buffer they were decoded from, so this holds by construction.
func New(spec *btf.Spec) *Cache {
	return &Cache{
		spec:    spec,
		offsets: make(map[uint64]offsetResult),
		names:   make(map[string]idResult),
	}
}

// OffsetOf is a memoized wrapper around (*btf.Spec).OffsetOf.
func (c *Cache) OffsetOf(id btf.TypeID, path string) (btf.FieldOffset, error) {
	key := offsetKey{id: id, path: path}
	h := key.hash()

	c.mu.RLock()
	if r, ok := c.offsets[h]; ok {
		c.mu.RUnlock()
		return r.offset, r.err
	}
	c.mu.RUnlock()

	offset, err := c.spec.OffsetOf(id, path)

	c.mu.Lock()
	c.offsets[h] = offsetResult{offset: offset, err: err}
	c.mu.Unlock()

	return offset, err
}

// IDOf is a memoized wrapper around (*btf.Spec).IDOf.
func (c *Cache) IDOf(name string) (btf.TypeID, error) {
	c.mu.RLock()
	if r, ok := c.names[name]; ok {
		c.mu.RUnlock()
		return r.id, r.err
	}
	c.mu.RUnlock()

	id, err := c.spec.IDOf(name)

	c.mu.Lock()
	c.names[name] = idResult{id: id, err: err}
	c.mu.Unlock()

	return id, err
}

// Reset discards every memoized result. The underlying Spec is unaffected.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets = make(map[uint64]offsetResult)
	c.names = make(map[string]idResult)
}

// Spec returns the wrapped Spec, for callers that need direct access to
// operations Cache does not memoize (TypeByID, SizeOf, iteration).
func (c *Cache) Spec() *btf.Spec { return c.spec }
