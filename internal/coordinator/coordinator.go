/*

The coordinator is the single entry point for every state-changing operation.
One call runs at a time; each call walks validating, fee splitting, pricing,
ledger update, and emitting in order, against a snapshot taken at entry, and
either commits wholesale or leaves no trace. Triple deposits nest further
deposits into the referenced atom pools inside the same transaction, guarded
so no nested call can touch a pool whose outer operation is still in flight.

*/

package coordinator

import (
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaultgraph/mvl/internal/curves"
	"github.com/vaultgraph/mvl/internal/ledger"
	"github.com/vaultgraph/mvl/internal/logger"
	"github.com/vaultgraph/mvl/internal/registry"
	"github.com/vaultgraph/mvl/internal/types"
)

// Coordinator owns the ledger, the strategy bindings, and the reentrancy
// guard. All fields are set at construction and never replaced.
type Coordinator struct {
	mu     sync.Mutex
	logger zerolog.Logger

	ledger   *ledger.Ledger
	registry registry.IdentityRegistry
	params   types.ProtocolParams
	recorder Recorder

	// strategies binds each pool to its pricing strategy for life.
	strategies map[types.PoolID]curves.Strategy
	// active marks pools with an uncommitted operation on the call stack.
	active map[types.PoolID]bool
}

// Config carries the coordinator's dependencies.
type Config struct {
	Ledger   *ledger.Ledger
	Registry registry.IdentityRegistry
	Params   types.ProtocolParams
	Recorder Recorder
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("coordinator requires a ledger")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("coordinator requires an identity registry")
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}
	if cfg.Params.MinShare.IsNil() || !cfg.Params.MinShare.IsPositive() {
		return nil, fmt.Errorf("%w: minimum share quantum must be positive", types.ErrInvalidAmount)
	}
	c := &Coordinator{
		logger:     logger.GetForComponent("coordinator"),
		ledger:     cfg.Ledger,
		registry:   cfg.Registry,
		params:     cfg.Params,
		recorder:   cfg.Recorder,
		strategies: make(map[types.PoolID]curves.Strategy),
		active:     make(map[types.PoolID]bool),
	}
	// Rebind strategies for pools restored from the store.
	for _, id := range cfg.Ledger.PoolIDs() {
		pool, _ := cfg.Ledger.Pool(id)
		strategy, err := curves.New(pool.CurveName, pool.CurveParams)
		if err != nil {
			return nil, fmt.Errorf("rebinding curve for pool %d: %w", id, err)
		}
		c.strategies[id] = strategy
	}
	return c, nil
}

// Params returns the protocol parameter snapshot the coordinator runs under.
func (c *Coordinator) Params() types.ProtocolParams { return c.params }

// Ledger exposes the ledger for read-only consumers (the web API).
func (c *Coordinator) Ledger() *ledger.Ledger { return c.ledger }

func (c *Coordinator) strategyFor(id types.PoolID) (curves.Strategy, error) {
	s, ok := c.strategies[id]
	if !ok {
		return nil, fmt.Errorf("%w: pool %d", types.ErrUnknownPool, id)
	}
	return s, nil
}

// enter marks a pool as having an operation in flight. Nested calls that hit
// an already-active pool fail instead of observing uncommitted state.
func (c *Coordinator) enter(id types.PoolID) (func(), error) {
	if c.active[id] {
		return nil, fmt.Errorf("%w: pool %d", types.ErrReentrancyDetected, id)
	}
	c.active[id] = true
	return func() { delete(c.active, id) }, nil
}

// QuoteCreationCost returns the fixed cost of creating a pool of the given
// kind: creation protocol fee plus the mandatory seeds.
func (c *Coordinator) QuoteCreationCost(kind types.PoolKind) (sdkmath.LegacyDec, error) {
	switch kind {
	case types.KindAtom:
		return c.params.AtomCost(), nil
	case types.KindTriple:
		return c.params.TripleCost(), nil
	default:
		return sdkmath.LegacyDec{}, fmt.Errorf("%w: kind %s has no creation path", types.ErrInvalidAmount, kind)
	}
}

// CreateAtom creates the pool backing a new atomic claim. value must cover
// the creation cost; the excess becomes the creator's first deposit. The
// delegate account receives the wallet seed as shares.
func (c *Coordinator) CreateAtom(creator, delegate types.Holder, metadataRef, curveName string, curveParams types.CurveParams, value sdkmath.LegacyDec) (types.PoolID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateAmount(value); err != nil {
		return 0, err
	}
	cost := c.params.AtomCost()
	if value.LT(cost) {
		return 0, fmt.Errorf("%w: atom creation requires %s, got %s", types.ErrBelowMinimum, cost, value)
	}
	strategy, err := curves.New(curveName, curveParams)
	if err != nil {
		return 0, err
	}

	id, err := c.registry.IssueAtom(metadataRef)
	if err != nil {
		return 0, err
	}

	tx := c.ledger.Begin()
	if err := tx.CreatePool(id, types.KindAtom, curveName, curveParams); err != nil {
		return 0, err
	}
	c.strategies[id] = strategy

	// Seed the ghost shares: the supply floor that outlives every holder.
	if err := tx.RecordDeposit(id, types.GhostHolder, c.params.MinShare, c.params.MinShare); err != nil {
		delete(c.strategies, id)
		return 0, err
	}
	// Seed the delegate account's position.
	if c.params.AtomWalletSeed.IsPositive() {
		if err := c.depositPriced(tx, id, delegate, c.params.AtomWalletSeed, strategy); err != nil {
			delete(c.strategies, id)
			return 0, err
		}
	}

	// Whatever exceeds the fixed cost is the creator's first deposit, run
	// through the standard fee pipeline.
	userDeposit := value.Sub(cost)
	var settlement *types.Settlement
	if userDeposit.IsPositive() {
		settlement, err = c.depositInTx(tx, id, creator, userDeposit, true)
		if err != nil {
			delete(c.strategies, id)
			return 0, err
		}
	}

	staged := tx.StagedPools()
	tx.Commit()
	c.persistPools(staged, nil)
	created := types.AtomCreated{Creator: creator, DelegateAccount: delegate, PoolID: id, MetadataRef: metadataRef}
	if err := c.recorder.RecordAtomCreated(created); err != nil {
		c.logger.Error().Err(err).Uint64("pool", uint64(id)).Msg("Failed to record atom creation")
	}
	if settlement != nil {
		c.emit(*settlement)
	}
	c.logger.Info().
		Uint64("pool", uint64(id)).
		Str("creator", string(creator)).
		Str("curve", curveName).
		Str("value", value.String()).
		Msg("Atom pool created")
	return id, nil
}

// CreateTriple creates the pool backing a subject-predicate-object claim and
// its counter pool. value must cover the creation cost; the excess becomes
// the creator's first deposit into the triple pool, including the standard
// atom redirection.
func (c *Coordinator) CreateTriple(creator types.Holder, subject, predicate, object types.PoolID, curveName string, curveParams types.CurveParams, value sdkmath.LegacyDec) (types.PoolID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateAmount(value); err != nil {
		return 0, err
	}
	cost := c.params.TripleCost()
	if value.LT(cost) {
		return 0, fmt.Errorf("%w: triple creation requires %s, got %s", types.ErrBelowMinimum, cost, value)
	}
	for _, atom := range []types.PoolID{subject, predicate, object} {
		if _, ok := c.ledger.Pool(atom); !ok {
			return 0, fmt.Errorf("%w: atom %d", types.ErrUnknownPool, atom)
		}
	}
	strategy, err := curves.New(curveName, curveParams)
	if err != nil {
		return 0, err
	}

	refs, tripleID, err := c.registry.IssueTriple(subject, predicate, object)
	if err != nil {
		return 0, err
	}

	tx := c.ledger.Begin()
	if err := tx.CreatePool(tripleID, types.KindTriple, curveName, curveParams); err != nil {
		return 0, err
	}
	if err := tx.CreatePool(refs.CounterID, types.KindCounter, curveName, curveParams); err != nil {
		return 0, err
	}
	tx.BindTriple(tripleID, refs)
	c.strategies[tripleID] = strategy
	c.strategies[refs.CounterID] = strategy

	cleanup := func() {
		delete(c.strategies, tripleID)
		delete(c.strategies, refs.CounterID)
	}
	// Ghost seeds for both vaults.
	if err := tx.RecordDeposit(tripleID, types.GhostHolder, c.params.MinShare, c.params.MinShare); err != nil {
		cleanup()
		return 0, err
	}
	if err := tx.RecordDeposit(refs.CounterID, types.GhostHolder, c.params.MinShare, c.params.MinShare); err != nil {
		cleanup()
		return 0, err
	}

	// The fixed atom seed appreciates the three atoms without minting shares.
	if c.params.TripleAtomSeed.IsPositive() {
		perAtom := c.params.TripleAtomSeed.QuoTruncate(sdkmath.LegacyNewDec(3))
		for _, atom := range []types.PoolID{subject, predicate, object} {
			if err := tx.RecordDeposit(atom, types.TripleHolder(tripleID), perAtom, sdkmath.LegacyZeroDec()); err != nil {
				cleanup()
				return 0, err
			}
		}
	}

	userDeposit := value.Sub(cost)
	var settlement *types.Settlement
	if userDeposit.IsPositive() {
		settlement, err = c.depositInTx(tx, tripleID, creator, userDeposit, true)
		if err != nil {
			cleanup()
			return 0, err
		}
	}

	staged := tx.StagedPools()
	tx.Commit()
	c.persistPools(staged, &refs)
	created := types.TripleCreated{
		Creator:     creator,
		SubjectID:   subject,
		PredicateID: predicate,
		ObjectID:    object,
		PoolID:      tripleID,
		CounterID:   refs.CounterID,
	}
	if err := c.recorder.RecordTripleCreated(created); err != nil {
		c.logger.Error().Err(err).Uint64("pool", uint64(tripleID)).Msg("Failed to record triple creation")
	}
	if settlement != nil {
		c.emit(*settlement)
	}
	c.logger.Info().
		Uint64("pool", uint64(tripleID)).
		Uint64("counter", uint64(refs.CounterID)).
		Str("creator", string(creator)).
		Msg("Triple pool created")
	return tripleID, nil
}

// SetFeeSchedule installs a fee schedule for one pool, or the pool-0 default.
// Only the admin account passes; bounds are enforced here, never on the
// deposit/redeem path.
func (c *Coordinator) SetFeeSchedule(caller types.Holder, poolID types.PoolID, schedule types.FeeSchedule) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.params.AdminAccount {
		return fmt.Errorf("%w: %q may not change fee schedules", types.ErrUnauthorized, caller)
	}
	if err := schedule.Validate(c.params.MaxFeeBps); err != nil {
		return err
	}
	if poolID != types.DefaultSchedulePool {
		if _, ok := c.ledger.Pool(poolID); !ok {
			return fmt.Errorf("%w: pool %d", types.ErrUnknownPool, poolID)
		}
	}
	c.ledger.SetSchedule(poolID, schedule)
	if err := c.recorder.SaveFeeSchedule(poolID, schedule); err != nil {
		c.logger.Error().Err(err).Uint64("pool", uint64(poolID)).Msg("Failed to persist fee schedule")
	}
	c.logger.Info().
		Uint64("pool", uint64(poolID)).
		Uint64("entry_bps", schedule.EntryFeeBps).
		Uint64("exit_bps", schedule.ExitFeeBps).
		Uint64("protocol_bps", schedule.ProtocolFeeBps).
		Msg("Fee schedule updated")
	return nil
}

func (c *Coordinator) persistPools(pools []*types.Pool, refs *types.TripleRefs) {
	for _, p := range pools {
		var r *types.TripleRefs
		if refs != nil && p.Kind == types.KindTriple {
			r = refs
		}
		if err := c.recorder.SavePool(p, r); err != nil {
			c.logger.Error().Err(err).Uint64("pool", uint64(p.ID)).Msg("Failed to persist pool")
		}
	}
}

func (c *Coordinator) emit(s types.Settlement) {
	if err := c.recorder.AppendSettlement(s); err != nil {
		c.logger.Error().Err(err).Str("settlement", s.ID).Msg("Failed to persist settlement")
	}
	c.logger.Info().
		Str("kind", string(s.Kind)).
		Uint64("pool", uint64(s.PoolID)).
		Str("caller", string(s.Caller)).
		Str("moved", s.SharesOrValueMoved.String()).
		Str("fee_retained", s.FeeRetained.String()).
		Msg("Settlement")
}

func validateAmount(v sdkmath.LegacyDec) error {
	if v.IsNil() || v.IsNegative() {
		return fmt.Errorf("%w: %v", types.ErrInvalidAmount, v)
	}
	return nil
}

func newSettlement(kind types.SettlementKind, poolID types.PoolID, caller, counterparty types.Holder) types.Settlement {
	return types.Settlement{
		ID:           uuid.NewString(),
		Kind:         kind,
		PoolID:       poolID,
		Caller:       caller,
		Counterparty: counterparty,
		Timestamp:    time.Now().UTC(),
	}
}
