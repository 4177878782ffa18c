package intake

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/civicseal/civicledger/core"
	"github.com/civicseal/civicledger/storage"
)

var (
	ErrEmptyReportID      = errors.New("report id is required")
	ErrEmptyCategory      = errors.New("category is required")
	ErrEmptyDescription   = errors.New("description is required")
	ErrInvalidUrgency     = errors.New("urgency must be Critical, High, Medium or Low")
	ErrInvalidIdentity    = errors.New("identity must be named or anonymous")
	ErrMissingCitizenID   = errors.New("named reports require a citizen id")
	ErrAnonymousCitizenID = errors.New("anonymous reports must not carry a citizen id")
	ErrDuplicateReport    = errors.New("report id already sealed on the ledger")

	// ErrReportNotFound is re-exported so API callers branch on one package.
	ErrReportNotFound = storage.ErrReportNotFound
)

// Report is the untrusted submission shape. Description and Evidence hold
// raw text here and only here; Submit hashes them before anything reaches
// a block payload.
type Report struct {
	ReportID    string        `json:"reportId"`
	Category    string        `json:"category"`
	Urgency     core.Urgency  `json:"urgency"`
	Location    core.Location `json:"location"`
	Description string        `json:"description"`
	Evidence    []string      `json:"evidence"`
	Identity    core.Identity `json:"identity"`
	CitizenID   string        `json:"citizenId"`
	Authorities []string      `json:"authorities"`
}

// Receipt is what a submitter gets back: enough to find and verify the
// sealed record later.
type Receipt struct {
	ReferenceID string      `json:"referenceId"`
	ReportID    string      `json:"reportId"`
	BlockIndex  int         `json:"blockIndex"`
	BlockHash   core.Digest `json:"blockHash"`
}

// Record merges the sealed block with the live metadata view for lookups.
type Record struct {
	Block    *core.Block            `json:"block"`
	Metadata storage.ReportMetadata `json:"metadata"`
}

// ChainInfo answers the health/integrity query.
type ChainInfo struct {
	Length int         `json:"length"`
	Valid  bool        `json:"valid"`
	Head   core.Digest `json:"head"`
}

// Service validates and normalizes untrusted reports, derives privacy
// hashes, appends to the ledger, and keeps the snapshot and metadata
// stores in step. It owns the single-writer discipline for the ledger it
// was constructed with.
type Service struct {
	ledger    *core.Ledger
	snapshots *storage.SnapshotStore
	metadata  *storage.MetadataStore
}

// NewService wires a service around an owned ledger and its stores.
func NewService(ledger *core.Ledger, snapshots *storage.SnapshotStore, metadata *storage.MetadataStore) *Service {
	return &Service{ledger: ledger, snapshots: snapshots, metadata: metadata}
}

// Restore loads the persisted chain and gates it through validation. A
// missing snapshot is a normal first boot. An invalid snapshot keeps the
// fresh genesis chain and is logged loudly: the durable record disagrees
// with itself, which a deployment should alert on.
func (s *Service) Restore() error {
	blocks, err := s.snapshots.Load()
	if errors.Is(err, storage.ErrNoSnapshot) {
		slog.Info("no chain snapshot found, starting from genesis")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load chain snapshot: %v", err)
	}
	if !s.ledger.LoadAndValidate(blocks) {
		slog.Error("stored chain snapshot failed integrity validation, keeping genesis chain",
			"snapshotBlocks", len(blocks))
		return nil
	}
	slog.Info("chain restored from snapshot", "blocks", s.ledger.Length())
	return nil
}

// Submit runs the full intake flow: validate, normalize, privacy-hash,
// append, snapshot, record metadata. A snapshot or metadata failure after
// a successful append is logged and surfaced, but the appended block
// stands; the in-memory ledger does not un-append.
func (s *Service) Submit(r Report) (Receipt, error) {
	r = normalize(r)
	if err := validate(r); err != nil {
		return Receipt{}, err
	}
	if _, exists := s.ledger.FindByReportID(r.ReportID); exists {
		return Receipt{}, fmt.Errorf("%w: %s", ErrDuplicateReport, r.ReportID)
	}

	evidenceHashes := make([]core.Digest, 0, len(r.Evidence))
	for _, ev := range r.Evidence {
		evidenceHashes = append(evidenceHashes, core.HashText(ev))
	}

	var payload core.BlockPayload
	if r.Identity == core.IdentityNamed {
		payload = core.NamedPayload(r.ReportID, r.Category, r.Urgency, r.Location,
			core.HashText(r.Description), evidenceHashes, r.CitizenID, r.Authorities)
	} else {
		payload = core.AnonymousPayload(r.ReportID, r.Category, r.Urgency, r.Location,
			core.HashText(r.Description), evidenceHashes, r.Authorities)
	}

	block := s.ledger.Append(payload)
	slog.Info("report sealed", "reportId", r.ReportID, "index", block.Index, "hash", block.Hash)

	if err := s.snapshots.Save(s.ledger.ExportSnapshot()); err != nil {
		slog.Error("failed to persist chain snapshot after append", "error", err)
		return Receipt{}, fmt.Errorf("report sealed at index %d but snapshot failed: %v", block.Index, err)
	}

	meta := storage.ReportMetadata{
		ReferenceID: uuid.NewString(),
		ReportID:    r.ReportID,
		Category:    r.Category,
		Urgency:     r.Urgency,
		Status:      core.StatusPending,
		Location:    r.Location,
		BlockIndex:  block.Index,
		BlockHash:   block.Hash,
		SubmittedAt: block.Timestamp,
	}
	if err := s.metadata.Put(meta); err != nil {
		slog.Error("failed to store report metadata", "reportId", r.ReportID, "error", err)
		return Receipt{}, fmt.Errorf("report sealed at index %d but metadata write failed: %v", block.Index, err)
	}

	return Receipt{
		ReferenceID: meta.ReferenceID,
		ReportID:    r.ReportID,
		BlockIndex:  block.Index,
		BlockHash:   block.Hash,
	}, nil
}

// Lookup answers "does this report exist on the ledger and what is its
// sealed fingerprint". Not-found is a normal outcome.
func (s *Service) Lookup(reportID string) (Record, error) {
	block, ok := s.ledger.FindByReportID(reportID)
	if !ok {
		return Record{}, ErrReportNotFound
	}
	meta, err := s.metadata.Get(reportID)
	if err != nil {
		return Record{}, err
	}
	return Record{Block: block, Metadata: meta}, nil
}

// UpdateStatus advances a report's workflow status in the metadata store.
// The sealed block is never rewritten.
func (s *Service) UpdateStatus(reportID string, next core.Status) (storage.ReportMetadata, error) {
	return s.metadata.UpdateStatus(reportID, next)
}

// ListByStatus lists reports currently in the given workflow status.
func (s *Service) ListByStatus(status core.Status) ([]storage.ReportMetadata, error) {
	return s.metadata.ListByStatus(status)
}

// VerifyChain re-validates the whole chain and reports its shape.
func (s *Service) VerifyChain() ChainInfo {
	return ChainInfo{
		Length: s.ledger.Length(),
		Valid:  s.ledger.IsValid(),
		Head:   s.ledger.Latest().Hash,
	}
}

// ExportChain returns a copy of the full chain, e.g. for a public audit
// endpoint. Safe to expose: payloads carry digests, never raw narrative.
func (s *Service) ExportChain() []*core.Block {
	return s.ledger.ExportSnapshot()
}

func normalize(r Report) Report {
	r.ReportID = strings.TrimSpace(r.ReportID)
	r.Category = strings.TrimSpace(r.Category)
	r.CitizenID = strings.TrimSpace(r.CitizenID)
	r.Description = strings.TrimSpace(r.Description)
	r.Location.Area = strings.TrimSpace(r.Location.Area)
	r.Location.Address = strings.TrimSpace(r.Location.Address)
	r.Location.NearestStation = strings.TrimSpace(r.Location.NearestStation)
	if r.Identity == "" {
		r.Identity = core.IdentityAnonymous
	}
	return r
}

func validate(r Report) error {
	if r.ReportID == "" {
		return ErrEmptyReportID
	}
	if r.Category == "" {
		return ErrEmptyCategory
	}
	if r.Description == "" {
		return ErrEmptyDescription
	}
	if !core.ValidUrgency(r.Urgency) {
		return ErrInvalidUrgency
	}
	switch r.Identity {
	case core.IdentityNamed:
		if r.CitizenID == "" {
			return ErrMissingCitizenID
		}
	case core.IdentityAnonymous:
		// Hard error rather than silent strip: dropping caller data
		// quietly would hide caller bugs.
		if r.CitizenID != "" {
			return ErrAnonymousCitizenID
		}
	default:
		return ErrInvalidIdentity
	}
	return nil
}
