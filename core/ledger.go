package core

import (
	"sync"
	"time"
)

// Ledger owns the ordered, append-only block sequence. It is never empty:
// construction seals genesis, and the sequence only grows by Append or is
// wholesale-replaced by a validated LoadAndValidate. The RWMutex serializes
// the single writer against concurrent readers; the slice itself never
// leaves the struct, only deep copies do.
type Ledger struct {
	mutex      sync.RWMutex
	blocks     []*Block
	difficulty int
}

// NewLedger creates a ledger holding only the genesis block. A difficulty
// of zero or less falls back to DefaultDifficulty.
func NewLedger(difficulty int) *Ledger {
	if difficulty <= 0 {
		difficulty = DefaultDifficulty
	}
	return &Ledger{
		blocks:     []*Block{GenesisBlock()},
		difficulty: difficulty,
	}
}

// Difficulty returns the configured leading-zero count.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// Append mines and seals exactly one block over the payload and pushes it.
// It cannot fail: mining always terminates and no existing block is
// touched. The caller is responsible for the payload invariants and for
// snapshotting the chain afterwards.
func (l *Ledger) Append(payload BlockPayload) *Block {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	// nil and empty slices encode differently in JSON; canonical form for
	// hashing is empty.
	if payload.EvidenceHashes == nil {
		payload.EvidenceHashes = []Digest{}
	}
	if payload.AuthorityRouted == nil {
		payload.AuthorityRouted = []string{}
	}

	now := time.Now().UnixMilli()
	if payload.Timestamp == 0 {
		payload.Timestamp = now
	}

	prev := l.blocks[len(l.blocks)-1]
	b := &Block{
		Index:        prev.Index + 1,
		Timestamp:    now,
		Data:         payload,
		PreviousHash: prev.Hash,
	}
	b.Hash, b.Nonce = mineBlock(b.Index, b.Timestamp, b.Data, b.PreviousHash, l.difficulty)
	l.blocks = append(l.blocks, b)
	return b.clone()
}

// Latest returns the last block. The ledger is never empty, so this always
// succeeds.
func (l *Ledger) Latest() *Block {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.blocks[len(l.blocks)-1].clone()
}

// Length returns the number of blocks, genesis included.
func (l *Ledger) Length() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.blocks)
}

// FindByReportID scans for the first block sealing the given report id.
// An unknown id is a normal outcome, signalled by the second return value.
func (l *Ledger) FindByReportID(id string) (*Block, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	for _, b := range l.blocks {
		if b.Data.ReportID == id {
			return b.clone(), true
		}
	}
	return nil, false
}

// IsValid rechecks the whole chain: every hash is recomputed from block
// content and every linkage is compared against the predecessor's stored
// hash. Recomputation is the point; comparing cached values would miss a
// block whose data and hash were rewritten together.
func (l *Ledger) IsValid() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return validateChain(l.blocks)
}

// LoadAndValidate replaces the active chain with candidate if and only if
// candidate passes full validation. On failure the previously active chain
// stays in place; an unverified chain is never adopted. Returns whether the
// load happened.
func (l *Ledger) LoadAndValidate(candidate []*Block) bool {
	if !validateChain(candidate) {
		return false
	}
	adopted := make([]*Block, len(candidate))
	for i, b := range candidate {
		adopted[i] = b.clone()
	}
	l.mutex.Lock()
	l.blocks = adopted
	l.mutex.Unlock()
	return true
}

// ExportSnapshot returns a deep copy of the full chain for serialization.
func (l *Ledger) ExportSnapshot() []*Block {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	out := make([]*Block, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b.clone()
	}
	return out
}

// validateChain runs the two integrity checks over every block, fail-fast.
// Genesis is exempt from the linkage check only; its hash is recomputed
// like any other block's.
func validateChain(blocks []*Block) bool {
	if len(blocks) == 0 {
		return false
	}
	for i, b := range blocks {
		if b.Hash != b.computeHash() {
			return false
		}
		if i == 0 {
			continue
		}
		if b.PreviousHash != blocks[i-1].Hash {
			return false
		}
	}
	return true
}
