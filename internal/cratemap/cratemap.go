// Package cratemap maintains the mapping between crate ids and names,
// together with the ownership tables that back @user queries.
package cratemap

import (
	"fmt"
	"strings"

	"github.com/cratestats/cargo-tally/internal/types"
)

// CrateMap maps crate ids to names and back. Lookups by name are exact;
// IDNormalized additionally treats `-` and `_` as the same character, the
// way crates.io reserves names.
type CrateMap struct {
	names      map[types.CrateId]string
	ids        map[string]types.CrateId
	normalized map[string]types.CrateId

	logins map[string]string          // normalized login -> display login
	owners map[string][]types.CrateId // normalized login -> owned crates
}

// New returns an empty map.
func New() *CrateMap {
	return &CrateMap{
		names:      make(map[types.CrateId]string),
		ids:        make(map[string]types.CrateId),
		normalized: make(map[string]types.CrateId),
		logins:     make(map[string]string),
		owners:     make(map[string][]types.CrateId),
	}
}

// Insert records a crate. Duplicate ids or names are load-time corruption.
func (m *CrateMap) Insert(id types.CrateId, name string) error {
	if _, ok := m.names[id]; ok {
		return fmt.Errorf("duplicate crate id %d", id)
	}
	if _, ok := m.ids[name]; ok {
		return fmt.Errorf("duplicate crate name %q", name)
	}
	m.names[id] = name
	m.ids[name] = id
	m.normalized[NormalizeName(name)] = id
	return nil
}

// Name resolves a crate id.
func (m *CrateMap) Name(id types.CrateId) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// ID resolves an exact crate name.
func (m *CrateMap) ID(name string) (types.CrateId, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// IDNormalized resolves a crate name treating `-` and `_` as equal.
func (m *CrateMap) IDNormalized(fuzzy string) (types.CrateId, bool) {
	id, ok := m.normalized[NormalizeName(fuzzy)]
	return id, ok
}

// Len reports the number of crates.
func (m *CrateMap) Len() int {
	return len(m.names)
}

// AddOwner records that login owns crate. Login comparison is
// ASCII-case-insensitive.
func (m *CrateMap) AddOwner(login string, crate types.CrateId) {
	key := strings.ToLower(login)
	if _, ok := m.logins[key]; !ok {
		m.logins[key] = login
	}
	m.owners[key] = append(m.owners[key], crate)
}

// Owned returns the crates owned by login along with its display form.
func (m *CrateMap) Owned(login string) ([]types.CrateId, string, bool) {
	key := strings.ToLower(login)
	display, ok := m.logins[key]
	if !ok {
		return nil, "", false
	}
	return m.owners[key], display, true
}

// NormalizeName replaces `_` with `-`.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
