package core

// Digest is a lowercase hex SHA-256 digest. Payload fields that must never
// carry raw citizen narrative (description, evidence) are typed Digest so a
// plain string cannot be sealed into a block by accident.
type Digest string

// Urgency classifies how quickly a report needs attention.
type Urgency string

const (
	UrgencyCritical Urgency = "Critical"
	UrgencyHigh     Urgency = "High"
	UrgencyMedium   Urgency = "Medium"
	UrgencyLow      Urgency = "Low"
	// UrgencyNone is a sentinel used only by the genesis block.
	UrgencyNone Urgency = "NONE"
)

// ValidUrgency reports whether u is one of the four report urgency levels.
func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// Status is the report status as recorded in a block at sealing time.
// Later transitions live in the external metadata store, never in a block.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusResolved    Status = "RESOLVED"
	StatusDismissed   Status = "DISMISSED"
)

// Identity says whether the reporter chose to be named.
type Identity string

const (
	IdentityNamed     Identity = "named"
	IdentityAnonymous Identity = "anonymous"
)

// Location is routing/display data for a report. Plain text, not hashed.
type Location struct {
	Area           string `json:"area"`
	Address        string `json:"address"`
	NearestStation string `json:"nearestStation"`
}

// BlockPayload is one civic report at the moment of sealing. The JSON tags
// are the canonical encoding used for hashing and must never change once a
// chain exists. DescriptionHash and EvidenceHashes are digests only; the raw
// text never enters a block.
type BlockPayload struct {
	ReportID        string   `json:"reportId"`
	Category        string   `json:"category"`
	Urgency         Urgency  `json:"urgency"`
	Location        Location `json:"location"`
	DescriptionHash Digest   `json:"descriptionHash"`
	EvidenceHashes  []Digest `json:"evidenceHashes"`
	Identity        Identity `json:"identity"`
	CitizenID       string   `json:"citizenId,omitempty"`
	Timestamp       int64    `json:"timestamp"`
	AuthorityRouted []string `json:"authorityRouted"`
	Status          Status   `json:"status"`
}

// NamedPayload builds a payload for a reporter who chose to be identified.
func NamedPayload(reportID, category string, urgency Urgency, loc Location, descriptionHash Digest, evidenceHashes []Digest, citizenID string, authorities []string) BlockPayload {
	p := newPayload(reportID, category, urgency, loc, descriptionHash, evidenceHashes, authorities)
	p.Identity = IdentityNamed
	p.CitizenID = citizenID
	return p
}

// AnonymousPayload builds a payload with no citizen-identifying field. There
// is deliberately no way to pass a citizen id here.
func AnonymousPayload(reportID, category string, urgency Urgency, loc Location, descriptionHash Digest, evidenceHashes []Digest, authorities []string) BlockPayload {
	p := newPayload(reportID, category, urgency, loc, descriptionHash, evidenceHashes, authorities)
	p.Identity = IdentityAnonymous
	return p
}

func newPayload(reportID, category string, urgency Urgency, loc Location, descriptionHash Digest, evidenceHashes []Digest, authorities []string) BlockPayload {
	return BlockPayload{
		ReportID:        reportID,
		Category:        category,
		Urgency:         urgency,
		Location:        loc,
		DescriptionHash: descriptionHash,
		EvidenceHashes:  evidenceHashes,
		AuthorityRouted: authorities,
		Status:          StatusPending,
	}
}
