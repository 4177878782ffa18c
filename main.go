package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/civicseal/civicledger/api"
	"github.com/civicseal/civicledger/core"
	"github.com/civicseal/civicledger/intake"
	"github.com/civicseal/civicledger/storage"
)

func main() {
	listen := flag.String("listen", ":8080", "HTTP listen address")
	dataDir := flag.String("data", "data", "directory for LevelDB databases")
	difficulty := flag.Int("difficulty", core.DefaultDifficulty, "leading zero hex characters required of mined block hashes")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(log.Writer(), nil)))

	snapshots, err := storage.OpenSnapshotStore(filepath.Join(*dataDir, "chain.db"))
	if err != nil {
		log.Fatal("Error opening snapshot store: ", err)
	}
	defer snapshots.Close()

	metadata, err := storage.OpenMetadataStore(filepath.Join(*dataDir, "reports.db"))
	if err != nil {
		log.Fatal("Error opening metadata store: ", err)
	}
	defer metadata.Close()

	ledger := core.NewLedger(*difficulty)
	svc := intake.NewService(ledger, snapshots, metadata)
	if err := svc.Restore(); err != nil {
		log.Fatal("Error restoring chain: ", err)
	}

	hub := api.NewHub()
	server := api.NewServer(svc, hub)

	slog.Info("civic ledger running",
		"listen", *listen,
		"difficulty", ledger.Difficulty(),
		"blocks", ledger.Length())
	if err := http.ListenAndServe(*listen, server.Routes()); err != nil {
		log.Fatal("Error starting server: ", err)
	}
}
