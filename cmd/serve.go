package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forensic-cli/internal/model"
	"github.com/sells-group/forensic-cli/internal/scorer"
	"github.com/sells-group/forensic-cli/internal/sentiment"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring API server",
	Long: `Expose batch scoring and tone assessment over HTTP.

POST /v1/score takes canonical company records and returns the scored
batch under a single grouping policy. POST /v1/sentiment takes text (and
an optional forensic score) and returns the tone assessment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		deps := serverDeps{
			warm:          scorer.New(cfg.Scorer),
			tone:          sentiment.New(cfg.Sentiment, cfg.Scorer.HighRiskThreshold),
			maxConcurrent: cfg.Batch.MaxConcurrentRecords,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background()) //nolint:errcheck
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

// serverDeps holds the scoring services the handlers close over.
type serverDeps struct {
	warm          *scorer.WARM
	tone          *sentiment.Scorer
	maxConcurrent int
}

// newRouter builds the API router.
func newRouter(deps serverDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/score", deps.handleScore)
	r.Post("/v1/sentiment", deps.handleSentiment)

	return r
}

// scoreRequest is the POST /v1/score body.
type scoreRequest struct {
	Records []model.CompanyRecord `json:"records"`
}

func (d serverDeps) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Records) == 0 {
		writeJSONError(w, http.StatusBadRequest, "records is required")
		return
	}

	batch, err := d.warm.ScoreBatch(r.Context(), req.Records, d.maxConcurrent)
	if err != nil {
		zap.L().Error("serve: batch scoring failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

// sentimentRequest is the POST /v1/sentiment body. Score is optional; when
// present the response includes the divergence check against it.
type sentimentRequest struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score,omitempty"`
}

func (d serverDeps) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	var result *model.RiskScoreResult
	if req.Score != nil {
		result = &model.RiskScoreResult{Score: *req.Score}
	}

	writeJSON(w, http.StatusOK, d.tone.Assess(req.Text, result))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
