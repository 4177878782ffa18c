package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicseal/civicledger/core"
)

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	store, err := OpenSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ledger := core.NewLedger(1)
	ledger.Append(core.AnonymousPayload(
		"R1", "Infrastructure", core.UrgencyMedium,
		core.Location{Area: "Minato"}, core.HashText("leaking hydrant"), nil, nil,
	))

	require.NoError(t, store.Save(ledger.ExportSnapshot()))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, ledger.ExportSnapshot(), loaded)

	// The deserialized chain passes the ledger's loading gate.
	restored := core.NewLedger(1)
	require.True(t, restored.LoadAndValidate(loaded))
	require.Equal(t, 2, restored.Length())
}

func TestSnapshotLoadEmpty(t *testing.T) {
	store, err := OpenSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotOverwrite(t *testing.T) {
	store, err := OpenSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ledger := core.NewLedger(1)
	require.NoError(t, store.Save(ledger.ExportSnapshot()))
	ledger.Append(core.AnonymousPayload(
		"R1", "Safety", core.UrgencyHigh,
		core.Location{}, core.HashText("x"), nil, nil,
	))
	require.NoError(t, store.Save(ledger.ExportSnapshot()))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestCorruptedSnapshotFailsLoadingGate(t *testing.T) {
	store, err := OpenSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ledger := core.NewLedger(1)
	ledger.Append(core.AnonymousPayload(
		"R1", "Infrastructure", core.UrgencyLow,
		core.Location{}, core.HashText("x"), nil, nil,
	))
	corrupt := ledger.ExportSnapshot()
	corrupt[1].Data.Category = "Altered"
	require.NoError(t, store.Save(corrupt))

	loaded, err := store.Load()
	require.NoError(t, err)

	fresh := core.NewLedger(1)
	require.False(t, fresh.LoadAndValidate(loaded))
	require.Equal(t, 1, fresh.Length())
}
