package core

const (
	// genesisTimestamp is a fixed historical instant so every fresh ledger
	// produces the same genesis hash.
	genesisTimestamp int64 = 1700000000000

	// genesisPreviousHash is the linkage sentinel for index 0, digest-width
	// so it is visually distinct from any real SHA-256 output.
	genesisPreviousHash Digest = "0000000000000000000000000000000000000000000000000000000000000000"
)

// GenesisBlock synthesizes the fixed first block. Its content is constant
// and its nonce is 0: genesis is exempt from mining, not from hashing.
func GenesisBlock() *Block {
	payload := BlockPayload{
		ReportID: "GENESIS",
		Category: "SYSTEM",
		Urgency:  UrgencyNone,
		Location: Location{
			Area:           "N/A",
			Address:        "N/A",
			NearestStation: "N/A",
		},
		DescriptionHash: HashText("GENESIS"),
		EvidenceHashes:  []Digest{},
		Identity:        IdentityAnonymous,
		Timestamp:       genesisTimestamp,
		AuthorityRouted: []string{},
		Status:          StatusResolved,
	}
	b := &Block{
		Index:        0,
		Timestamp:    genesisTimestamp,
		Data:         payload,
		PreviousHash: genesisPreviousHash,
		Nonce:        0,
	}
	b.Hash = b.computeHash()
	return b
}
