// peerd - PEER visual accountability server
//
// Hosts the focus engine behind the HTTP/websocket API. The video/model
// layer posts detection payloads; peerd turns them into live scores,
// distraction events and session history.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peerhq/peer/internal/config"
	"github.com/peerhq/peer/internal/log"
	"github.com/peerhq/peer/internal/metrics"
	"github.com/peerhq/peer/pkg/evidence"
	"github.com/peerhq/peer/pkg/focus"
	"github.com/peerhq/peer/pkg/history"
	"github.com/peerhq/peer/pkg/web"
)

func main() {
	log.Init(config.LogLevel())

	cfg := focus.FromEnv()
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "config error:", e)
		}
		os.Exit(1)
	}

	dataDir := config.DataDir()

	evidenceStore, err := evidence.NewFileStore(filepath.Join(dataDir, "evidence"))
	if err != nil {
		log.Error("evidence store init failed", "error", err)
		os.Exit(1)
	}

	historyStore, err := history.NewJSONStore(filepath.Join(dataDir, "sessions.json"), cfg.SparklineBuckets)
	if err != nil {
		log.Error("history store init failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	manager := focus.NewManager(cfg, historyStore, evidenceStore, m)
	server := web.NewServer(config.Port(), manager, historyStore, evidenceStore, m)

	// Handle Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		server.Shutdown()
	}()

	log.Info("peerd starting",
		"port", config.Port(),
		"data_dir", dataDir,
		"confirm_window", cfg.ConfirmWindow,
		"score_tick", cfg.ScoreTick)

	if err := server.Start(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
