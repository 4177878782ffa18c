package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/civicseal/civicledger/core"
)

var (
	// ErrReportNotFound is the normal outcome for an unknown report id.
	ErrReportNotFound = errors.New("report metadata not found")

	// ErrInvalidTransition signals a status change the workflow forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

const reportKeyPrefix = "report:"

// ReportMetadata is the queryable, mutable view of a report. Status changes
// happen here; the sealed block on the ledger is never touched.
type ReportMetadata struct {
	ReferenceID string        `json:"referenceId"`
	ReportID    string        `json:"reportId"`
	Category    string        `json:"category"`
	Urgency     core.Urgency  `json:"urgency"`
	Status      core.Status   `json:"status"`
	Location    core.Location `json:"location"`
	BlockIndex  int           `json:"blockIndex"`
	BlockHash   core.Digest   `json:"blockHash"`
	SubmittedAt int64         `json:"submittedAt"`
	UpdatedAt   int64         `json:"updatedAt"`
}

// MetadataStore keeps report metadata in LevelDB, keyed by report id.
type MetadataStore struct {
	db *leveldb.DB
}

// OpenMetadataStore opens (or creates) the LevelDB at path.
func OpenMetadataStore(path string) (*MetadataStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %v", err)
	}
	return &MetadataStore{db: db}, nil
}

// Close releases the underlying database.
func (m *MetadataStore) Close() error {
	return m.db.Close()
}

// Put stores metadata for a newly sealed report.
func (m *MetadataStore) Put(meta ReportMetadata) error {
	enc, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %v", err)
	}
	if err := m.db.Put(reportKey(meta.ReportID), enc, nil); err != nil {
		return fmt.Errorf("failed to store metadata: %v", err)
	}
	return nil
}

// Get retrieves metadata for one report.
func (m *MetadataStore) Get(reportID string) (ReportMetadata, error) {
	enc, err := m.db.Get(reportKey(reportID), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return ReportMetadata{}, ErrReportNotFound
	}
	if err != nil {
		return ReportMetadata{}, fmt.Errorf("failed to read metadata: %v", err)
	}
	var meta ReportMetadata
	if err := json.Unmarshal(enc, &meta); err != nil {
		return ReportMetadata{}, fmt.Errorf("failed to unmarshal metadata: %v", err)
	}
	return meta, nil
}

// UpdateStatus advances a report through the workflow
// PENDING -> UNDER_REVIEW -> RESOLVED | DISMISSED. Terminal states are
// immutable.
func (m *MetadataStore) UpdateStatus(reportID string, next core.Status) (ReportMetadata, error) {
	meta, err := m.Get(reportID)
	if err != nil {
		return ReportMetadata{}, err
	}
	if !allowedTransition(meta.Status, next) {
		return ReportMetadata{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, meta.Status, next)
	}
	meta.Status = next
	meta.UpdatedAt = time.Now().UnixMilli()
	if err := m.Put(meta); err != nil {
		return ReportMetadata{}, err
	}
	return meta, nil
}

// ListByStatus scans all reports and returns those currently in the given
// status.
func (m *MetadataStore) ListByStatus(status core.Status) ([]ReportMetadata, error) {
	var out []ReportMetadata
	iter := m.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		if !strings.HasPrefix(string(iter.Key()), reportKeyPrefix) {
			continue
		}
		var meta ReportMetadata
		if err := json.Unmarshal(iter.Value(), &meta); err != nil {
			continue
		}
		if meta.Status == status {
			out = append(out, meta)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterator error: %v", err)
	}
	return out, nil
}

func allowedTransition(from, to core.Status) bool {
	switch from {
	case core.StatusPending:
		return to == core.StatusUnderReview
	case core.StatusUnderReview:
		return to == core.StatusResolved || to == core.StatusDismissed
	}
	return false
}

func reportKey(reportID string) []byte {
	return []byte(reportKeyPrefix + reportID)
}
