package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultgraph/mvl/internal/types"
)

func TestIssueAtom(t *testing.T) {
	m := NewMemory()

	first, err := m.IssueAtom("ipfs://atom-one")
	require.NoError(t, err)
	second, err := m.IssueAtom("ipfs://atom-two")
	require.NoError(t, err)

	// Identifiers are sequential, above the reserved default-schedule pool.
	require.Equal(t, types.DefaultSchedulePool+1, first)
	require.Equal(t, first+1, second)

	kind, ok := m.Kind(first)
	require.True(t, ok)
	require.Equal(t, types.KindAtom, kind)
	require.Equal(t, "ipfs://atom-one", m.MetadataRef(first))
}

func TestIssueTriple(t *testing.T) {
	m := NewMemory()
	s, _ := m.IssueAtom("s")
	p, _ := m.IssueAtom("p")
	o, _ := m.IssueAtom("o")

	refs, tripleID, err := m.IssueTriple(s, p, o)
	require.NoError(t, err)
	require.Equal(t, s, refs.SubjectID)
	require.Equal(t, p, refs.PredicateID)
	require.Equal(t, o, refs.ObjectID)
	require.Equal(t, tripleID+1, refs.CounterID)

	kind, ok := m.Kind(tripleID)
	require.True(t, ok)
	require.Equal(t, types.KindTriple, kind)
	kind, ok = m.Kind(refs.CounterID)
	require.True(t, ok)
	require.Equal(t, types.KindCounter, kind)

	got, ok := m.TripleOf(tripleID)
	require.True(t, ok)
	require.Equal(t, refs, got)
}

func TestIssueTripleRejectsUnknownAtom(t *testing.T) {
	m := NewMemory()
	s, _ := m.IssueAtom("s")
	p, _ := m.IssueAtom("p")

	_, _, err := m.IssueTriple(s, p, 999)
	require.ErrorIs(t, err, types.ErrUnknownPool)
}

func TestIssueTripleRejectsNonAtomComponents(t *testing.T) {
	m := NewMemory()
	s, _ := m.IssueAtom("s")
	p, _ := m.IssueAtom("p")
	o, _ := m.IssueAtom("o")
	_, tripleID, err := m.IssueTriple(s, p, o)
	require.NoError(t, err)

	// A triple cannot be the subject of another triple.
	_, _, err = m.IssueTriple(tripleID, p, o)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestIssueTripleRejectsDuplicateClaim(t *testing.T) {
	m := NewMemory()
	s, _ := m.IssueAtom("s")
	p, _ := m.IssueAtom("p")
	o, _ := m.IssueAtom("o")

	_, _, err := m.IssueTriple(s, p, o)
	require.NoError(t, err)
	_, _, err = m.IssueTriple(s, p, o)
	require.ErrorIs(t, err, types.ErrPoolExists)

	// Reordered components are a different claim.
	_, _, err = m.IssueTriple(o, p, s)
	require.NoError(t, err)
}

func TestRestoreResumesIdentifierSequence(t *testing.T) {
	m := NewMemory()
	m.RestoreAtom(1, "s")
	m.RestoreAtom(2, "p")
	m.RestoreAtom(3, "o")
	m.RestoreTriple(4, types.TripleRefs{SubjectID: 1, PredicateID: 2, ObjectID: 3, CounterID: 5})

	// Fresh identifiers continue past everything restored.
	id, err := m.IssueAtom("next")
	require.NoError(t, err)
	require.Equal(t, types.PoolID(6), id)

	// The restored claim still blocks duplicates.
	_, _, err = m.IssueTriple(1, 2, 3)
	require.ErrorIs(t, err, types.ErrPoolExists)
}
