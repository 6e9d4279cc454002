package main

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lotnotify/lotbridge/internal/config"
	"github.com/lotnotify/lotbridge/internal/profile"
	"github.com/lotnotify/lotbridge/internal/store"
)

const maxHookBody = 1 << 20 // 1 MiB

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := initBridge(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(cfg, b),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter assembles the HTTP surface: the webhook, the operator API
// behind basic auth, and the unauthenticated health and metrics probes.
func newRouter(cfg *config.Config, b *bridge) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Post("/hook", handleHook(cfg, b))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", b.metrics.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		if cfg.Server.UIUser != "" {
			r.Use(middleware.BasicAuth("lotbridge", map[string]string{
				cfg.Server.UIUser: cfg.Server.UIPass,
			}))
		}
		r.Get("/history", handleHistory(cfg, b))
		r.Get("/status", handleStatus(b))
		r.Get("/catalog", handleCatalog(b))
		r.Get("/config", handleConfigGet(b))
		r.Post("/config", handleConfigPost(b))
	})

	return r
}

// handleHook ingests one webhook event. The shared secret rides in the
// token query parameter because upstream senders cannot set headers.
func handleHook(cfg *config.Config, b *bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret := cfg.Server.WebhookSecret; secret != "" {
			token := r.URL.Query().Get("token")
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "invalid token"})
				return
			}
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxHookBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "body too large"})
			return
		}

		result, err := b.pipeline.Process(r.Context(), body)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleHistory(cfg *config.Config, b *bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := cfg.History.Limit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			if n < limit {
				limit = n
			}
		}

		entries, err := b.store.History(r.Context(), limit)
		if err != nil {
			serverError(w, "history query", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleStatus(b *bridge) http.HandlerFunc {
	type statusResponse struct {
		StartedAt time.Time `json:"startedAt"`
		*store.Status
	}
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := b.store.Status(r.Context())
		if err != nil {
			serverError(w, "status query", err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{StartedAt: b.startedAt, Status: st})
	}
}

func handleCatalog(b *bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := b.store.Catalog(r.Context())
		if err != nil {
			serverError(w, "catalog query", err)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}

func handleConfigGet(b *bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, b.profiles.Snapshot())
	}
}

func handleConfigPost(b *bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f profile.File
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := b.profiles.Replace(f); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, b.profiles.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func serverError(w http.ResponseWriter, what string, err error) {
	zap.L().Error("api: "+what+" failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
