package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Block is one sealed, hash-linked record in the ledger.
type Block struct {
	Index        int          `json:"index"`
	Timestamp    int64        `json:"timestamp"` // milliseconds since epoch
	Data         BlockPayload `json:"data"`
	PreviousHash Digest       `json:"previousHash"`
	Hash         Digest       `json:"hash"`
	Nonce        uint64       `json:"nonce"`
}

// ComputeHash calculates the digest a block with these fields must carry.
// The struct literal fixes the field order; together with the payload's JSON
// tags it is the canonical encoding, shared by the sealing and the verifying
// code paths.
func ComputeHash(index int, timestamp int64, data BlockPayload, previousHash Digest, nonce uint64) Digest {
	enc, _ := json.Marshal(struct {
		Index        int          `json:"index"`
		Timestamp    int64        `json:"timestamp"`
		Data         BlockPayload `json:"data"`
		PreviousHash Digest       `json:"previousHash"`
		Nonce        uint64       `json:"nonce"`
	}{
		Index:        index,
		Timestamp:    timestamp,
		Data:         data,
		PreviousHash: previousHash,
		Nonce:        nonce,
	})
	hash := sha256.Sum256(enc)
	return Digest(fmt.Sprintf("%x", hash))
}

// computeHash recalculates the block's own digest from its stored fields.
func (b *Block) computeHash() Digest {
	return ComputeHash(b.Index, b.Timestamp, b.Data, b.PreviousHash, b.Nonce)
}

// HashText digests a single opaque string. Intake uses it to privacy-hash
// a citizen's description and evidence references before they ever reach a
// payload.
func HashText(raw string) Digest {
	hash := sha256.Sum256([]byte(raw))
	return Digest(fmt.Sprintf("%x", hash))
}

// clone returns a deep copy so callers can never reach into the ledger's
// live sequence through a returned block.
func (b *Block) clone() *Block {
	c := *b
	if b.Data.EvidenceHashes != nil {
		c.Data.EvidenceHashes = append([]Digest(nil), b.Data.EvidenceHashes...)
	}
	if b.Data.AuthorityRouted != nil {
		c.Data.AuthorityRouted = append([]string(nil), b.Data.AuthorityRouted...)
	}
	return &c
}
