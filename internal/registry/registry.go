/*

The identity registry issues the pool identifiers the ledger accounts
against. It is an external collaborator: the core only needs a valid,
existing identifier, its kind, and — for triples — the referenced atom and
counter identifiers. Claim-content semantics, URI validation, and delegate
account provisioning all live outside this module.

*/

package registry

import (
	"fmt"

	"github.com/vaultgraph/mvl/internal/types"
)

// IdentityRegistry is the contract the coordinator consumes.
type IdentityRegistry interface {
	// IssueAtom reserves a fresh identifier for an atomic claim.
	IssueAtom(metadataRef string) (types.PoolID, error)
	// IssueTriple reserves identifiers for a subject-predicate-object claim
	// and its inverse counter claim. The three atoms must already exist.
	IssueTriple(subject, predicate, object types.PoolID) (types.TripleRefs, types.PoolID, error)
	// Kind reports what an identifier backs.
	Kind(id types.PoolID) (types.PoolKind, bool)
	// TripleOf returns the reference table entry for a triple identifier.
	TripleOf(id types.PoolID) (types.TripleRefs, bool)
}

// Memory is the in-process registry. Identifiers are sequential, starting
// above the reserved default-schedule pool, and never reused.
type Memory struct {
	next    types.PoolID
	kinds   map[types.PoolID]types.PoolKind
	triples map[types.PoolID]types.TripleRefs
	// claims maps subject/predicate/object to the issued triple, rejecting
	// duplicate claims.
	claims map[[3]types.PoolID]types.PoolID
	meta   map[types.PoolID]string
}

func NewMemory() *Memory {
	return &Memory{
		next:    types.DefaultSchedulePool + 1,
		kinds:   make(map[types.PoolID]types.PoolKind),
		triples: make(map[types.PoolID]types.TripleRefs),
		claims:  make(map[[3]types.PoolID]types.PoolID),
		meta:    make(map[types.PoolID]string),
	}
}

func (m *Memory) IssueAtom(metadataRef string) (types.PoolID, error) {
	id := m.next
	m.next++
	m.kinds[id] = types.KindAtom
	m.meta[id] = metadataRef
	return id, nil
}

func (m *Memory) IssueTriple(subject, predicate, object types.PoolID) (types.TripleRefs, types.PoolID, error) {
	for _, atom := range []types.PoolID{subject, predicate, object} {
		kind, ok := m.kinds[atom]
		if !ok {
			return types.TripleRefs{}, 0, fmt.Errorf("%w: atom %d", types.ErrUnknownPool, atom)
		}
		if kind != types.KindAtom {
			return types.TripleRefs{}, 0, fmt.Errorf("%w: %d is a %s, not an atom", types.ErrInvalidAmount, atom, kind)
		}
	}
	claim := [3]types.PoolID{subject, predicate, object}
	if existing, ok := m.claims[claim]; ok {
		return types.TripleRefs{}, 0, fmt.Errorf("%w: claim already issued as pool %d", types.ErrPoolExists, existing)
	}

	tripleID := m.next
	counterID := m.next + 1
	m.next += 2

	refs := types.TripleRefs{
		SubjectID:   subject,
		PredicateID: predicate,
		ObjectID:    object,
		CounterID:   counterID,
	}
	m.kinds[tripleID] = types.KindTriple
	m.kinds[counterID] = types.KindCounter
	m.triples[tripleID] = refs
	m.claims[claim] = tripleID
	return refs, tripleID, nil
}

func (m *Memory) Kind(id types.PoolID) (types.PoolKind, bool) {
	kind, ok := m.kinds[id]
	return kind, ok
}

func (m *Memory) TripleOf(id types.PoolID) (types.TripleRefs, bool) {
	refs, ok := m.triples[id]
	return refs, ok
}

// MetadataRef returns the opaque metadata reference recorded for an atom.
func (m *Memory) MetadataRef(id types.PoolID) string {
	return m.meta[id]
}

// RestoreAtom and RestoreTriple rebuild registry state from the store at
// startup.
func (m *Memory) RestoreAtom(id types.PoolID, metadataRef string) {
	m.kinds[id] = types.KindAtom
	m.meta[id] = metadataRef
	if id >= m.next {
		m.next = id + 1
	}
}

func (m *Memory) RestoreTriple(id types.PoolID, refs types.TripleRefs) {
	m.kinds[id] = types.KindTriple
	m.kinds[refs.CounterID] = types.KindCounter
	m.triples[id] = refs
	m.claims[[3]types.PoolID{refs.SubjectID, refs.PredicateID, refs.ObjectID}] = id
	top := id
	if refs.CounterID > top {
		top = refs.CounterID
	}
	if top >= m.next {
		m.next = top + 1
	}
}
