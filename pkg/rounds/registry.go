package rounds

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// stageState pairs a stage configuration with its live counters.
type stageState struct {
	info     StageMintInfo
	minted   uint64
	mintedBy map[common.Address]uint64
}

// StageRegistry stores stage configurations and supply counters. It is the
// single source of truth for supply accounting, shared by every mint path
// so that no two paths can double-spend the same counters.
type StageRegistry struct {
	stages      map[string]*stageState
	preMinted   uint64
	totalSupply uint64
	maxOverride uint64

	mu sync.RWMutex
}

// NewStageRegistry creates an empty stage registry.
func NewStageRegistry() *StageRegistry {
	return &StageRegistry{
		stages: make(map[string]*stageState),
	}
}

// SetStageMintInfo inserts or updates a stage. Re-registering an existing
// stage keeps its counters; the new cap may not drop below units already
// minted in the stage.
func (r *StageRegistry) SetStageMintInfo(info StageMintInfo) error {
	if info.StartTime > info.EndTime {
		return ErrInvalidTime
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.stages[info.Stage]; ok {
		if info.MaxSupplyForStage < existing.minted {
			return ErrInvalidCap
		}
		existing.info = info.Copy()
		return nil
	}

	r.stages[info.Stage] = &stageState{
		info:     info.Copy(),
		mintedBy: make(map[common.Address]uint64),
	}
	return nil
}

// SetPreMintedCount updates the pre-minted allowance. The resulting max
// supply may not drop below units already consumed.
func (r *StageRegistry) SetPreMintedCount(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	max := r.derivedMaxLocked() - r.preMinted + n
	if r.maxOverride != 0 {
		max = r.maxOverride
	}
	if r.totalSupply+n > max {
		return ErrInvalidCap
	}

	r.preMinted = n
	return nil
}

// SetMaxSupply overrides the derived max supply. Zero clears the override.
// The effective max may never drop below units already consumed.
func (r *StageRegistry) SetMaxSupply(n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n != 0 && n < r.totalSupply+r.preMinted {
		return ErrInvalidCap
	}

	r.maxOverride = n
	return nil
}

// Reserve atomically checks the stage cap, the per-address limit, and the
// global max supply, then commits all counters. The three limits fail with
// distinct errors so callers can tell which one was hit.
func (r *StageRegistry) Reserve(stage string, addr common.Address, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stages[stage]
	if !ok {
		return ErrUnknownStage
	}

	// Each addition is wrap-checked so an absurd amount cannot slip past
	// a limit by overflowing uint64.
	if n := st.minted + amount; n < st.minted || n > st.info.MaxSupplyForStage {
		return ErrExceedStageSupply
	}
	if n := st.mintedBy[addr] + amount; n < st.mintedBy[addr] || n > st.info.LimitationForAddress {
		return ErrExceedPerAddressLimit
	}
	used := r.totalSupply + r.preMinted
	if n := used + amount; n < used || n > r.maxSupplyLocked() {
		return ErrExceedMaxSupply
	}

	st.minted += amount
	st.mintedBy[addr] += amount
	r.totalSupply += amount
	return nil
}

// Release undoes a reservation. It is the rollback arm of a mint call whose
// later steps failed; the pair must execute within one serialized mint.
func (r *StageRegistry) Release(stage string, addr common.Address, amount uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stages[stage]
	if !ok {
		return
	}

	st.minted -= amount
	st.mintedBy[addr] -= amount
	r.totalSupply -= amount
}

// StageToMint returns the configuration of a stage.
func (r *StageRegistry) StageToMint(stage string) (StageMintInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.stages[stage]
	if !ok {
		return StageMintInfo{}, ErrUnknownStage
	}
	return st.info.Copy(), nil
}

// StageNames returns the names of all registered stages.
func (r *StageRegistry) StageNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	return names
}

// MintedInStage returns the units minted in a stage so far.
func (r *StageRegistry) MintedInStage(stage string) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.stages[stage]
	if !ok {
		return 0, ErrUnknownStage
	}
	return st.minted, nil
}

// MintedByAddress returns the units an address minted in a stage.
func (r *StageRegistry) MintedByAddress(stage string, addr common.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.stages[stage]
	if !ok {
		return 0, ErrUnknownStage
	}
	return st.mintedBy[addr], nil
}

// TotalSupply returns the units minted through stages. Pre-minted units are
// tracked separately and do not appear here.
func (r *StageRegistry) TotalSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.totalSupply
}

// PreMintedCount returns the pre-minted allowance.
func (r *StageRegistry) PreMintedCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.preMinted
}

// MaxSupply returns the effective max supply: the pre-minted count plus the
// sum of all stage caps, unless an operator override is in force.
func (r *StageRegistry) MaxSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.maxSupplyLocked()
}

func (r *StageRegistry) maxSupplyLocked() uint64 {
	if r.maxOverride != 0 {
		return r.maxOverride
	}
	return r.derivedMaxLocked()
}

func (r *StageRegistry) derivedMaxLocked() uint64 {
	max := r.preMinted
	for _, st := range r.stages {
		max += st.info.MaxSupplyForStage
	}
	return max
}
