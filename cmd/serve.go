package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only task status API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
			AllowedHeaders: []string{"*"},
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/tasks", func(w http.ResponseWriter, r *http.Request) {
			filter := store.TaskFilter{
				Status: model.TaskStatus(r.URL.Query().Get("status")),
				Kind:   model.TaskKind(r.URL.Query().Get("kind")),
				Limit:  queryInt(r, "limit", 50),
				Offset: queryInt(r, "offset", 0),
			}
			tasks, err := st.ListTasks(r.Context(), filter)
			if err != nil {
				zap.L().Error("list tasks failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list tasks failed"})
				return
			}
			if tasks == nil {
				tasks = []model.Task{}
			}
			writeJSON(w, http.StatusOK, tasks)
		})

		r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
			task, err := st.GetTask(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
				return
			}
			writeJSON(w, http.StatusOK, task)
		})

		r.Get("/tasks/{id}/checks", func(w http.ResponseWriter, r *http.Request) {
			checks, err := st.ListVisibilityChecks(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				zap.L().Error("list checks failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list checks failed"})
				return
			}
			if checks == nil {
				checks = []model.VisibilityCheck{}
			}
			writeJSON(w, http.StatusOK, checks)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
