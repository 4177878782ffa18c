package core

import "strings"

// DefaultDifficulty is the number of leading zero hex characters a mined
// hash must show. Sized for responsiveness, not adversarial resistance:
// there is exactly one writer.
const DefaultDifficulty = 2

// mineBlock searches nonce = 0, 1, 2, ... until the block hash starts with
// difficulty zero characters. Expected cost grows roughly 16x per
// difficulty level; termination is guaranteed for an unbroken digest.
func mineBlock(index int, timestamp int64, data BlockPayload, previousHash Digest, difficulty int) (Digest, uint64) {
	prefix := strings.Repeat("0", difficulty)
	var nonce uint64
	for {
		hash := ComputeHash(index, timestamp, data, previousHash, nonce)
		if strings.HasPrefix(string(hash), prefix) {
			return hash, nonce
		}
		nonce++
	}
}
