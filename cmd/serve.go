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

	"github.com/sells-group/campuswatch/internal/route"
	"github.com/sells-group/campuswatch/internal/scan"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the safety API server",
	Long: `Serve the risk API for the campus safety app:

  GET  /health
  GET  /api/risk?lat=&lon=&hour=
  POST /api/route        {"from_lat":..,"from_lon":..,"to_lat":..,"to_lon":..,"hour":..}
  GET  /api/scan?hour=&top=
  GET  /api/heatmap`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("serve"); err != nil {
		return err
	}

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	annotator := route.NewAnnotator(env.scorer, buildRouter())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"incidents": env.store.Len(),
		})
	})

	r.Get("/api/risk", func(w http.ResponseWriter, r *http.Request) {
		lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if latErr != nil || lonErr != nil {
			writeError(w, http.StatusBadRequest, "lat and lon are required numbers")
			return
		}
		detail, err := env.scorer.Score(lat, lon, queryHour(r))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, detail)
	})

	r.Post("/api/route", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FromLat float64 `json:"from_lat"`
			FromLon float64 `json:"from_lon"`
			ToLat   float64 `json:"to_lat"`
			ToLon   float64 `json:"to_lon"`
			Hour    *int    `json:"hour"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		hour := cfg.Scan.Hour
		if req.Hour != nil {
			hour = *req.Hour
		}
		annotated, err := annotator.AnnotateRoute(r.Context(), req.FromLat, req.FromLon, req.ToLat, req.ToLon, hour)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, annotated)
	})

	r.Get("/api/scan", func(w http.ResponseWriter, r *http.Request) {
		top := cfg.Scan.TopN
		if v := r.URL.Query().Get("top"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				top = n
			}
		}
		report, err := env.orchestrator.AnalyzeTopHotspots(r.Context(), queryHour(r), scan.Options{
			TopN:         top,
			MinRiskScore: cfg.Scan.MinRiskScore,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	r.Get("/api/heatmap", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, env.orchestrator.TemporalHeatmap())
	})

	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		_ = srv.Shutdown(ctx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func queryHour(r *http.Request) int {
	if v := r.URL.Query().Get("hour"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			return h
		}
	}
	return cfg.Scan.Hour
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
