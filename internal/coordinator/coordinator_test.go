package coordinator

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/vaultgraph/mvl/internal/curves"
	"github.com/vaultgraph/mvl/internal/ledger"
	"github.com/vaultgraph/mvl/internal/registry"
	"github.com/vaultgraph/mvl/internal/types"
)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

func testParams() types.ProtocolParams {
	return types.ProtocolParams{
		MinShare:          dec("0.0000000000001"),
		MinDeposit:        dec("0.0003"),
		MaxFeeBps:         1000,
		AtomFractionBps:   1500,
		AtomCreationFee:   dec("0.0002"),
		TripleCreationFee: dec("0.0002"),
		AtomWalletSeed:    dec("0.0001"),
		TripleAtomSeed:    dec("0.0003"),
		ProtocolAccount:   "protocol",
		AdminAccount:      "admin",
	}
}

func testSchedule() types.FeeSchedule {
	return types.FeeSchedule{EntryFeeBps: 500, ExitFeeBps: 500, ProtocolFeeBps: 100}
}

func newTestCoordinator(t *testing.T, params types.ProtocolParams) *Coordinator {
	t.Helper()
	c, err := New(Config{
		Ledger:   ledger.New(params.MinShare, testSchedule()),
		Registry: registry.NewMemory(),
		Params:   params,
	})
	require.NoError(t, err)
	return c
}

func createAtom(t *testing.T, c *Coordinator, creator types.Holder, extra string) types.PoolID {
	t.Helper()
	value := c.Params().AtomCost().Add(dec(extra))
	id, err := c.CreateAtom(creator, creator+"-wallet", "ipfs://"+string(creator), curves.NameLinear, types.CurveParams{}, value)
	require.NoError(t, err)
	return id
}

func TestNewValidatesConfig(t *testing.T) {
	params := testParams()
	_, err := New(Config{Registry: registry.NewMemory(), Params: params})
	require.Error(t, err)
	_, err = New(Config{Ledger: ledger.New(params.MinShare, testSchedule()), Params: params})
	require.Error(t, err)

	params.MinShare = dec("0")
	_, err = New(Config{
		Ledger:   ledger.New(dec("1"), testSchedule()),
		Registry: registry.NewMemory(),
		Params:   params,
	})
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestQuoteCreationCost(t *testing.T) {
	c := newTestCoordinator(t, testParams())

	atomCost, err := c.QuoteCreationCost(types.KindAtom)
	require.NoError(t, err)
	require.True(t, atomCost.Equal(dec("0.0003").Add(dec("0.0000000000001"))))

	tripleCost, err := c.QuoteCreationCost(types.KindTriple)
	require.NoError(t, err)
	require.True(t, tripleCost.Equal(dec("0.0005").Add(dec("0.0000000000002"))))

	_, err = c.QuoteCreationCost(types.KindCounter)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestCreateAtom(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")

	pool, ok := c.Ledger().Pool(id)
	require.True(t, ok)
	require.Equal(t, types.KindAtom, pool.Kind)

	// Exactly the cost buys no creator position: ghost floor plus the
	// delegate seed, nothing else.
	minShare := c.Params().MinShare
	require.True(t, pool.BalanceOf(types.GhostHolder).Equal(minShare))
	require.True(t, pool.BalanceOf("alice-wallet").IsPositive())
	require.True(t, pool.BalanceOf("alice").IsZero())
	require.True(t, pool.TotalValue.Equal(minShare.Add(dec("0.0001"))))
}

func TestCreateAtomWithExcessDeposits(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "1")

	pool, _ := c.Ledger().Pool(id)
	require.True(t, pool.BalanceOf("alice").IsPositive())
}

func TestCreateAtomBelowCost(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	_, err := c.CreateAtom("alice", "alice-wallet", "ipfs://x", curves.NameLinear, types.CurveParams{}, dec("0.0001"))
	require.ErrorIs(t, err, types.ErrBelowMinimum)
	require.Empty(t, c.Ledger().PoolIDs())
}

func TestCreateAtomUnknownCurve(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	_, err := c.CreateAtom("alice", "alice-wallet", "ipfs://x", "parabolic", types.CurveParams{}, dec("1"))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestDepositValidation(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")

	_, err := c.Deposit(id, "bob", dec("0"))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	_, err = c.Deposit(id, "bob", dec("0.0001"))
	require.ErrorIs(t, err, types.ErrBelowMinimum)
	_, err = c.Deposit(999, "bob", dec("1"))
	require.ErrorIs(t, err, types.ErrUnknownPool)
}

func TestDepositMintsAndRetainsFees(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")

	before, _ := c.Ledger().Pool(id)
	valueBefore := before.TotalValue

	shares, err := c.Deposit(id, "bob", dec("100"))
	require.NoError(t, err)
	require.True(t, shares.IsPositive())

	after, _ := c.Ledger().Pool(id)
	require.True(t, after.BalanceOf("bob").Equal(shares))

	// The protocol fee is the only slice that leaves the pool: 1% of gross,
	// rounded up.
	expectedGrowth := dec("100").Sub(dec("1"))
	require.True(t, after.TotalValue.Sub(valueBefore).Equal(expectedGrowth))
}

func TestEntryFeeWaivedForFirstDepositor(t *testing.T) {
	params := testParams()
	params.AtomWalletSeed = dec("0") // leave the pool at the bare ghost floor
	c := newTestCoordinator(t, params)
	id := createAtom(t, c, "alice", "0")

	pool, _ := c.Ledger().Pool(id)
	require.True(t, pool.TotalShares.Equal(params.MinShare))

	// First deposit pays only the protocol fee; at the 1:1 bootstrap price
	// the minted shares equal the remaining net.
	shares, err := c.Deposit(id, "bob", dec("100"))
	require.NoError(t, err)
	require.True(t, shares.Equal(dec("99")))

	// The second depositor pays the entry fee on top.
	shares2, err := c.Deposit(id, "carol", dec("100"))
	require.NoError(t, err)
	require.True(t, shares2.LT(shares))
}

func TestRetainedFeesAppreciateLinearPrice(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")

	priceBefore, err := c.CurrentSharePrice(id)
	require.NoError(t, err)
	_, err = c.Deposit(id, "bob", dec("100"))
	require.NoError(t, err)
	priceAfter, err := c.CurrentSharePrice(id)
	require.NoError(t, err)
	require.True(t, priceAfter.GT(priceBefore))
}

func TestProgressiveDepositsRaisePrice(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	value := c.Params().AtomCost()
	id, err := c.CreateAtom("alice", "alice-wallet", "ipfs://x", curves.NameProgressive, types.CurveParams{Slope: dec("0.0025")}, value)
	require.NoError(t, err)

	prevShares := dec("0")
	prevPrice := dec("0")
	for i := 0; i < 5; i++ {
		shares, err := c.Deposit(id, "bob", dec("10"))
		require.NoError(t, err)
		if i > 0 {
			require.True(t, shares.LT(prevShares), "deposit %d minted %s after %s", i, shares, prevShares)
		}
		price, err := c.CurrentSharePrice(id)
		require.NoError(t, err)
		require.True(t, price.GT(prevPrice))
		prevShares = shares
		prevPrice = price
	}
}

func TestRedeem(t *testing.T) {
	params := testParams()
	params.AtomWalletSeed = dec("0")
	c := newTestCoordinator(t, params)
	id := createAtom(t, c, "alice", "0")

	shares, err := c.Deposit(id, "bob", dec("100"))
	require.NoError(t, err)

	// bob is the only holder besides the ghost, so his full exit leaves the
	// bare floor behind and the exit fee is waived.
	net, err := c.Redeem(id, "bob", shares, "bob")
	require.NoError(t, err)
	require.True(t, net.IsPositive())

	pool, _ := c.Ledger().Pool(id)
	require.True(t, pool.BalanceOf("bob").IsZero())
	require.True(t, pool.TotalShares.Equal(params.MinShare))
	require.True(t, pool.TotalValue.Equal(params.MinShare))
}

func TestRedeemPartialPaysExitFee(t *testing.T) {
	params := testParams()
	params.AtomWalletSeed = dec("0")
	c := newTestCoordinator(t, params)
	id := createAtom(t, c, "alice", "0")

	shares, err := c.Deposit(id, "bob", dec("100"))
	require.NoError(t, err)

	half := shares.QuoTruncate(dec("2"))
	quote, err := c.ConvertToAssets(id, half)
	require.NoError(t, err)
	net, err := c.Redeem(id, "bob", half, "bob")
	require.NoError(t, err)

	// Exit and protocol fees bite, so the payout is under the raw
	// conversion.
	require.True(t, net.LT(quote))

	pool, _ := c.Ledger().Pool(id)
	require.True(t, pool.BalanceOf("bob").Equal(shares.Sub(half)))
}

func TestRedeemValidation(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "1")

	_, err := c.Redeem(id, "alice", dec("0"), "alice")
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	_, err = c.Redeem(999, "alice", dec("1"), "alice")
	require.ErrorIs(t, err, types.ErrUnknownPool)

	pool, _ := c.Ledger().Pool(id)
	tooMany := pool.BalanceOf("alice").Add(dec("1"))
	_, err = c.Redeem(id, "alice", tooMany, "alice")
	require.Error(t, err)
}

func TestGhostSharesCannotExit(t *testing.T) {
	params := testParams()
	params.AtomWalletSeed = dec("0")
	c := newTestCoordinator(t, params)
	id := createAtom(t, c, "alice", "0")

	// The only shares outstanding are the ghost floor; redeeming them would
	// underflow it.
	_, err := c.Redeem(id, types.GhostHolder, params.MinShare, types.GhostHolder)
	require.ErrorIs(t, err, types.ErrWouldUnderflowMinShare)

	_, err = c.PreviewRedeem(id, params.MinShare)
	require.ErrorIs(t, err, types.ErrWouldUnderflowMinShare)
}

func TestPreviewDepositMatchesDeposit(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")

	quoted, err := c.PreviewDeposit(id, dec("42"))
	require.NoError(t, err)
	minted, err := c.Deposit(id, "bob", dec("42"))
	require.NoError(t, err)
	require.True(t, quoted.Equal(minted))
}

func TestPreviewRedeemMatchesRedeem(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")
	shares, err := c.Deposit(id, "bob", dec("42"))
	require.NoError(t, err)

	quoted, err := c.PreviewRedeem(id, shares)
	require.NoError(t, err)
	paid, err := c.Redeem(id, "bob", shares, "bob")
	require.NoError(t, err)
	require.True(t, quoted.Equal(paid))
}

func TestCreateTriple(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	s := createAtom(t, c, "alice", "0")
	p := createAtom(t, c, "bob", "0")
	o := createAtom(t, c, "carol", "0")

	atomBefore, _ := c.Ledger().Pool(s)
	subjectValueBefore := atomBefore.TotalValue
	subjectSharesBefore := atomBefore.TotalShares

	tripleID, err := c.CreateTriple("dave", s, p, o, curves.NameLinear, types.CurveParams{}, c.Params().TripleCost())
	require.NoError(t, err)

	triple, ok := c.Ledger().Pool(tripleID)
	require.True(t, ok)
	require.Equal(t, types.KindTriple, triple.Kind)
	require.True(t, triple.BalanceOf(types.GhostHolder).Equal(c.Params().MinShare))

	refs, ok := c.Ledger().TripleRefs(tripleID)
	require.True(t, ok)
	counter, ok := c.Ledger().Pool(refs.CounterID)
	require.True(t, ok)
	require.Equal(t, types.KindCounter, counter.Kind)
	require.True(t, counter.TotalShares.Equal(c.Params().MinShare))

	// Each atom appreciated by a third of the seed without minting shares.
	atomAfter, _ := c.Ledger().Pool(s)
	require.True(t, atomAfter.TotalValue.Sub(subjectValueBefore).Equal(dec("0.0001")))
	require.True(t, atomAfter.TotalShares.Equal(subjectSharesBefore))
}

func TestCreateTripleWithExcessDeposits(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	s := createAtom(t, c, "alice", "0")
	p := createAtom(t, c, "bob", "0")
	o := createAtom(t, c, "carol", "0")

	tripleID, err := c.CreateTriple("dave", s, p, o, curves.NameLinear, types.CurveParams{}, c.Params().TripleCost().Add(dec("1")))
	require.NoError(t, err)

	// The excess runs through the triple deposit pipeline: dave holds
	// shares, and the atoms already received the redirected fraction.
	triple, _ := c.Ledger().Pool(tripleID)
	require.True(t, triple.BalanceOf("dave").IsPositive())
	holder := types.TripleHolder(tripleID)
	for _, atom := range []types.PoolID{s, p, o} {
		pool, _ := c.Ledger().Pool(atom)
		require.True(t, pool.BalanceOf(holder).IsPositive())
	}
}

func TestCreateTripleRequiresExistingAtoms(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	s := createAtom(t, c, "alice", "0")
	p := createAtom(t, c, "bob", "0")

	_, err := c.CreateTriple("dave", s, p, 999, curves.NameLinear, types.CurveParams{}, dec("1"))
	require.ErrorIs(t, err, types.ErrUnknownPool)
}

func TestCreateTripleRejectsDuplicateClaim(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	s := createAtom(t, c, "alice", "0")
	p := createAtom(t, c, "bob", "0")
	o := createAtom(t, c, "carol", "0")

	_, err := c.CreateTriple("dave", s, p, o, curves.NameLinear, types.CurveParams{}, dec("1"))
	require.NoError(t, err)
	_, err = c.CreateTriple("erin", s, p, o, curves.NameLinear, types.CurveParams{}, dec("1"))
	require.ErrorIs(t, err, types.ErrPoolExists)
}

func TestTripleDepositRedirectsToAtoms(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	s := createAtom(t, c, "alice", "0")
	p := createAtom(t, c, "bob", "0")
	o := createAtom(t, c, "carol", "0")
	tripleID, err := c.CreateTriple("dave", s, p, o, curves.NameLinear, types.CurveParams{}, c.Params().TripleCost())
	require.NoError(t, err)

	atomBefore, _ := c.Ledger().Pool(s)
	valueBefore := atomBefore.TotalValue

	_, err = c.Deposit(tripleID, "erin", dec("100"))
	require.NoError(t, err)

	// Each atom pool grew and holds shares credited to the triple itself,
	// not to erin.
	holder := types.TripleHolder(tripleID)
	for _, atom := range []types.PoolID{s, p, o} {
		pool, _ := c.Ledger().Pool(atom)
		require.True(t, pool.BalanceOf(holder).IsPositive())
		require.True(t, pool.BalanceOf("erin").IsZero())
	}
	atomAfter, _ := c.Ledger().Pool(s)
	require.True(t, atomAfter.TotalValue.GT(valueBefore))
}

func TestCounterPoolGetsNoRedirection(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	s := createAtom(t, c, "alice", "0")
	p := createAtom(t, c, "bob", "0")
	o := createAtom(t, c, "carol", "0")
	tripleID, err := c.CreateTriple("dave", s, p, o, curves.NameLinear, types.CurveParams{}, c.Params().TripleCost())
	require.NoError(t, err)
	refs, _ := c.Ledger().TripleRefs(tripleID)

	atomBefore, _ := c.Ledger().Pool(s)
	valueBefore := atomBefore.TotalValue

	_, err = c.Deposit(refs.CounterID, "erin", dec("100"))
	require.NoError(t, err)

	atomAfter, _ := c.Ledger().Pool(s)
	require.True(t, atomAfter.TotalValue.Equal(valueBefore))
}

// selfReferentialRegistry reports one pool as a triple whose atoms are the
// pool itself, which forces the redirection step back into the in-flight
// pool.
type selfReferentialRegistry struct {
	id types.PoolID
}

func (r *selfReferentialRegistry) IssueAtom(string) (types.PoolID, error) {
	return 0, types.ErrUnknownPool
}

func (r *selfReferentialRegistry) IssueTriple(_, _, _ types.PoolID) (types.TripleRefs, types.PoolID, error) {
	return types.TripleRefs{}, 0, types.ErrUnknownPool
}

func (r *selfReferentialRegistry) Kind(id types.PoolID) (types.PoolKind, bool) {
	if id == r.id {
		return types.KindTriple, true
	}
	return 0, false
}

func (r *selfReferentialRegistry) TripleOf(id types.PoolID) (types.TripleRefs, bool) {
	if id == r.id {
		return types.TripleRefs{SubjectID: r.id, PredicateID: r.id, ObjectID: r.id, CounterID: r.id}, true
	}
	return types.TripleRefs{}, false
}

func TestReentrancyDetected(t *testing.T) {
	params := testParams()
	led := ledger.New(params.MinShare, testSchedule())
	led.Restore(&types.Pool{
		ID: 1, Kind: types.KindTriple,
		TotalValue: dec("10"), TotalShares: dec("10"),
		CurveName: curves.NameLinear,
		Balances:  map[types.Holder]sdkmath.LegacyDec{"alice": dec("10")},
	}, nil)

	c, err := New(Config{
		Ledger:   led,
		Registry: &selfReferentialRegistry{id: 1},
		Params:   params,
	})
	require.NoError(t, err)

	_, err = c.Deposit(1, "bob", dec("100"))
	require.ErrorIs(t, err, types.ErrReentrancyDetected)

	// The failed call left nothing behind, including the guard itself.
	pool, _ := c.Ledger().Pool(1)
	require.True(t, pool.TotalValue.Equal(dec("10")))
	require.True(t, pool.BalanceOf("bob").IsZero())

	_, err = c.Deposit(1, "bob", dec("100"))
	require.ErrorIs(t, err, types.ErrReentrancyDetected)
}

func TestSetFeeSchedule(t *testing.T) {
	c := newTestCoordinator(t, testParams())
	id := createAtom(t, c, "alice", "0")

	err := c.SetFeeSchedule("mallory", id, types.FeeSchedule{})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	err = c.SetFeeSchedule("admin", id, types.FeeSchedule{EntryFeeBps: 5000})
	require.ErrorIs(t, err, types.ErrFeeScheduleInvalid)

	err = c.SetFeeSchedule("admin", 999, types.FeeSchedule{})
	require.ErrorIs(t, err, types.ErrUnknownPool)

	// A zero-fee schedule on this pool removes the protocol slice.
	require.NoError(t, c.SetFeeSchedule("admin", id, types.FeeSchedule{}))
	pool, _ := c.Ledger().Pool(id)
	valueBefore := pool.TotalValue
	_, err = c.Deposit(id, "bob", dec("100"))
	require.NoError(t, err)
	pool, _ = c.Ledger().Pool(id)
	require.True(t, pool.TotalValue.Sub(valueBefore).Equal(dec("100")))
}

func TestSetDefaultFeeSchedule(t *testing.T) {
	c := newTestCoordinator(t, testParams())

	// Pool 0 is the default schedule slot and needs no backing pool.
	require.NoError(t, c.SetFeeSchedule("admin", types.DefaultSchedulePool, types.FeeSchedule{EntryFeeBps: 100}))
	require.Equal(t, uint64(100), c.Ledger().ScheduleFor(42).EntryFeeBps)
}
