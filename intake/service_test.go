package intake

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicseal/civicledger/core"
	"github.com/civicseal/civicledger/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	snapshots, err := storage.OpenSnapshotStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { snapshots.Close() })

	metadata, err := storage.OpenMetadataStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { metadata.Close() })

	return NewService(core.NewLedger(1), snapshots, metadata)
}

func validReport() Report {
	return Report{
		ReportID:    "R1",
		Category:    "Infrastructure",
		Urgency:     core.UrgencyMedium,
		Location:    core.Location{Area: "Setagaya", Address: "4-5-6", NearestStation: "Sangenjaya"},
		Description: "broken streetlight",
		Evidence:    []string{"photo-ref-001"},
		Identity:    core.IdentityAnonymous,
		Authorities: []string{"Public Works"},
	}
}

func TestSubmitSealsReport(t *testing.T) {
	svc := newTestService(t)

	receipt, err := svc.Submit(validReport())
	require.NoError(t, err)
	require.Equal(t, "R1", receipt.ReportID)
	require.Equal(t, 1, receipt.BlockIndex)
	require.NotEmpty(t, receipt.ReferenceID)

	record, err := svc.Lookup("R1")
	require.NoError(t, err)
	require.Equal(t, receipt.BlockHash, record.Block.Hash)
	require.Equal(t, core.HashText("broken streetlight"), record.Block.Data.DescriptionHash)
	require.Equal(t, []core.Digest{core.HashText("photo-ref-001")}, record.Block.Data.EvidenceHashes)
	require.Equal(t, core.StatusPending, record.Metadata.Status)

	info := svc.VerifyChain()
	require.True(t, info.Valid)
	require.Equal(t, 2, info.Length)
	require.Equal(t, receipt.BlockHash, info.Head)
}

func TestSubmitNeverSealsRawText(t *testing.T) {
	svc := newTestService(t)
	r := validReport()
	r.Description = "pothole near the park"
	_, err := svc.Submit(r)
	require.NoError(t, err)

	for _, b := range svc.ExportChain() {
		enc, err := json.Marshal(b)
		require.NoError(t, err)
		require.NotContains(t, string(enc), "pothole near the park")
		require.NotContains(t, string(enc), "photo-ref-001")
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*Report)
		want   error
	}{
		{"missing report id", func(r *Report) { r.ReportID = " " }, ErrEmptyReportID},
		{"missing category", func(r *Report) { r.Category = "" }, ErrEmptyCategory},
		{"missing description", func(r *Report) { r.Description = "" }, ErrEmptyDescription},
		{"bad urgency", func(r *Report) { r.Urgency = "Whenever" }, ErrInvalidUrgency},
		{"genesis urgency sentinel", func(r *Report) { r.Urgency = core.UrgencyNone }, ErrInvalidUrgency},
		{"bad identity", func(r *Report) { r.Identity = "pseudonymous" }, ErrInvalidIdentity},
		{"named without citizen id", func(r *Report) { r.Identity = core.IdentityNamed }, ErrMissingCitizenID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validReport()
			tc.mutate(&r)
			_, err := svc.Submit(r)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAnonymousWithCitizenIDRejected(t *testing.T) {
	svc := newTestService(t)
	r := validReport()
	r.CitizenID = "citizen-42"

	_, err := svc.Submit(r)
	require.ErrorIs(t, err, ErrAnonymousCitizenID)

	// Nothing was sealed.
	require.Equal(t, 1, svc.VerifyChain().Length)
}

func TestNamedReportCarriesCitizenID(t *testing.T) {
	svc := newTestService(t)
	r := validReport()
	r.Identity = core.IdentityNamed
	r.CitizenID = "citizen-42"

	_, err := svc.Submit(r)
	require.NoError(t, err)

	record, err := svc.Lookup("R1")
	require.NoError(t, err)
	require.Equal(t, core.IdentityNamed, record.Block.Data.Identity)
	require.Equal(t, "citizen-42", record.Block.Data.CitizenID)
}

func TestDuplicateReportRejected(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Submit(validReport())
	require.NoError(t, err)

	_, err = svc.Submit(validReport())
	require.ErrorIs(t, err, ErrDuplicateReport)
	require.Equal(t, 2, svc.VerifyChain().Length)
}

func TestLookupNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Lookup("unknown")
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestStatusFlowLeavesBlockSealed(t *testing.T) {
	svc := newTestService(t)
	receipt, err := svc.Submit(validReport())
	require.NoError(t, err)

	_, err = svc.UpdateStatus("R1", core.StatusUnderReview)
	require.NoError(t, err)
	meta, err := svc.UpdateStatus("R1", core.StatusResolved)
	require.NoError(t, err)
	require.Equal(t, core.StatusResolved, meta.Status)

	// The sealed block still records the status at submission time.
	record, err := svc.Lookup("R1")
	require.NoError(t, err)
	require.Equal(t, core.StatusPending, record.Block.Data.Status)
	require.Equal(t, receipt.BlockHash, record.Block.Hash)
	require.True(t, svc.VerifyChain().Valid)
}

func TestRestoreAcrossRestart(t *testing.T) {
	snapDir := t.TempDir()
	metaDir := t.TempDir()

	snapshots, err := storage.OpenSnapshotStore(snapDir)
	require.NoError(t, err)
	metadata, err := storage.OpenMetadataStore(metaDir)
	require.NoError(t, err)

	svc := NewService(core.NewLedger(1), snapshots, metadata)
	require.NoError(t, svc.Restore())
	receipt, err := svc.Submit(validReport())
	require.NoError(t, err)
	require.NoError(t, snapshots.Close())
	require.NoError(t, metadata.Close())

	// "Process restart": fresh stores, fresh ledger, same paths.
	snapshots, err = storage.OpenSnapshotStore(snapDir)
	require.NoError(t, err)
	defer snapshots.Close()
	metadata, err = storage.OpenMetadataStore(metaDir)
	require.NoError(t, err)
	defer metadata.Close()

	restored := NewService(core.NewLedger(1), snapshots, metadata)
	require.NoError(t, restored.Restore())
	require.Equal(t, 2, restored.VerifyChain().Length)

	record, err := restored.Lookup("R1")
	require.NoError(t, err)
	require.Equal(t, receipt.BlockHash, record.Block.Hash)
}
