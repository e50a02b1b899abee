package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"aura/internal/config"
	"aura/internal/domain"
	"aura/internal/hub"
	"aura/internal/orchestrator"
	"aura/internal/quickcmd"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevelMap[strings.ToLower(*logLevel)],
	}))

	godotenv.Load(*envFile)

	cfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inventory := hub.NewInventory(cfg.EntityStaleTTL)
	haHub := hub.New(hub.Config{
		BrokerURL:   cfg.MQTTBrokerURL,
		ClientID:    cfg.MQTTClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		TopicPrefix: cfg.MQTTTopicPrefix,
		CallTimeout: cfg.CallTimeout,
	}, inventory, logger)
	if err := haHub.Start(ctx); err != nil {
		logger.Error("start hub failed", "error", err)
		os.Exit(1)
	}

	store := quickcmd.NewStore(cfg.DataRoot, cfg.Profile, logger)
	orch := orchestrator.New(orchestrator.Config{
		Locale:       cfg.Locale,
		FuzzyEnabled: cfg.FuzzyEnabled,
		VerifySettle: cfg.VerifySettle,
		CallTimeout:  cfg.CallTimeout,
	}, store, haHub, logger)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Post("/v1/assist", func(w http.ResponseWriter, req *http.Request) {
		var assistReq domain.AssistRequest
		if err := json.NewDecoder(req.Body).Decode(&assistReq); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
			return
		}
		if strings.TrimSpace(assistReq.Text) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "text is required"})
			return
		}

		resp, err := orch.HandleUtterance(req.Context(), assistReq)
		if err != nil {
			logger.Error("assist failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/v1/entities", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"entities":      haHub.Entities(),
			"snapshot_hash": haHub.SnapshotHash(),
		})
	})

	r.Get("/v1/quick-commands", func(w http.ResponseWriter, _ *http.Request) {
		doc := store.LoadRaw()
		writeJSON(w, http.StatusOK, map[string]any{
			"profile":                         store.Profile(),
			"commands":                        store.LoadCommands(),
			"last_generated_from_entities_at": doc.LastGeneratedFromEntitiesAt,
			"entity_snapshot_hash":            doc.EntitySnapshotHash,
		})
	})

	r.Post("/v1/quick-commands", func(w http.ResponseWriter, req *http.Request) {
		var raw json.RawMessage
		if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
			return
		}
		cmd, ok := quickcmd.FromRaw(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid quick command"})
			return
		}

		commands := store.LoadCommands()
		for _, existing := range commands {
			if existing.ID == cmd.ID {
				writeJSON(w, http.StatusConflict, map[string]any{"error": "id already exists"})
				return
			}
		}
		if err := store.SaveCommands(append(commands, cmd), nil, nil); err != nil {
			logger.Error("save quick command failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, cmd)
	})

	r.Delete("/v1/quick-commands/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		commands := store.LoadCommands()
		kept := commands[:0]
		removed := 0
		for _, cmd := range commands {
			if cmd.ID == id {
				removed++
				continue
			}
			kept = append(kept, cmd)
		}
		if removed == 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown quick command"})
			return
		}
		if err := store.SaveCommands(kept, nil, nil); err != nil {
			logger.Error("save quick commands failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
	})

	r.Post("/v1/quick-commands/generate", func(w http.ResponseWriter, req *http.Request) {
		locale := req.URL.Query().Get("locale")
		resp, err := orch.RegenerateQuickCommands(locale)
		if err != nil {
			logger.Error("generate quick commands failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("aura server started", "addr", cfg.HTTPAddr, "profile", cfg.Profile)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	// Deferred quick actions must not fire once the hub disconnects.
	orch.Close()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
