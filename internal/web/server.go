// Package web serves the upload form, runs the prediction pipeline for uploaded
// files, and streams the latest snapshot back as a CSV download.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/pipeline"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/report"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

//go:embed templates/index.html
var templateFS embed.FS

const (
	formFileField        = "file"
	defaultRecentRuns    = 20
	maxRecentRuns        = 500
	multipartMemoryBytes = 8 << 20
)

// Runner executes one upload (*pipeline.Pipeline).
type Runner interface {
	Run(ctx context.Context, upload *pipeline.Upload) (*pipeline.Result, error)
}

// ResultReader exposes the stored snapshot (*storage.ResultStore).
type ResultReader interface {
	Exists() bool
	Read() ([]byte, error)
}

// RunLister lists recent runs (*storage.Store).
type RunLister interface {
	RecentRuns(limit int) ([]storage.RunRecord, error)
}

// MetricsInterface defines metrics methods needed by the server
type MetricsInterface interface {
	DownloadsInc()
}

// View is everything the home template renders. Download availability is
// computed from the result store on every render.
type View struct {
	Summary           *report.Summary
	Preview           *report.Preview
	Error             string
	Notice            string
	DownloadAvailable bool
}

// Config wires the server. Runs, Hub, Metrics and Gatherer are optional.
type Config struct {
	ListenAddr     string
	MaxUploadBytes int64
	Backend        string
	Pipeline       Runner
	Results        ResultReader
	Runs           RunLister
	Hub            *Hub
	Metrics        MetricsInterface
	Gatherer       prometheus.Gatherer
}

// Server is the HTTP front-end.
type Server struct {
	cfg     Config
	tmpl    *template.Template
	router  *mux.Router
	server  *http.Server
	started time.Time
}

// NewServer parses the embedded template and sets up routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = common.DefaultMaxUploadBytes
	}

	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{"deref": func(v *float64) float64 { return *v }}).
		ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	s := &Server{cfg: cfg, tmpl: tmpl, started: time.Now()}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.HandleFunc("/", s.handleHome).Methods("GET")
	r.HandleFunc("/predict_csv", s.handlePredict).Methods("POST")
	r.HandleFunc("/download_predictions", s.handleDownload).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/runs", s.handleRuns).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	} else {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
	s.router = r

	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	log.Info().Str("address", s.server.Addr).Msg("Starting web server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and disconnects live feed clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.Hub != nil {
		s.cfg.Hub.Close()
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	view := View{}
	if r.URL.Query().Get("notice") == common.NoticeNoPredictions {
		view.Notice = common.MsgNoPredictions
	}
	s.render(w, http.StatusOK, view)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	upload, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Int64("limit", tooLarge.Limit).Msg("Upload rejected: too large")
			s.render(w, http.StatusRequestEntityTooLarge, View{
				Error: fmt.Sprintf(common.MsgReadCSVFailed, fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit)),
			})
			return
		}
		log.Error().Err(err).Msg("Failed to read upload")
		s.render(w, http.StatusBadRequest, View{Error: fmt.Sprintf(common.MsgReadCSVFailed, err)})
		return
	}

	result, err := s.cfg.Pipeline.Run(r.Context(), upload)
	if err != nil {
		var userErr pipeline.UserError
		if errors.As(err, &userErr) {
			s.render(w, http.StatusBadRequest, View{Error: userErr.UserMessage()})
			return
		}
		s.render(w, http.StatusInternalServerError, View{Error: common.MsgInternalError})
		return
	}

	s.render(w, http.StatusOK, View{Summary: &result.Summary, Preview: &result.Preview})
}

// readUpload extracts the file part. A missing part is not an error; it yields
// an Upload the pipeline rejects with the matching message.
func readUpload(r *http.Request) (*pipeline.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return &pipeline.Upload{}, nil
		}
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formFileField)
	if errors.Is(err, http.ErrMissingFile) {
		// A file input submitted with nothing chosen arrives as an empty value.
		_, selected := r.MultipartForm.Value[formFileField]
		return &pipeline.Upload{Present: selected}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &pipeline.Upload{Present: true, Filename: header.Filename, Data: data}, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, err := s.cfg.Results.Read()
	if errors.Is(err, storage.ErrNotFound) {
		http.Redirect(w, r, "/?notice="+common.NoticeNoPredictions, http.StatusSeeOther)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to read predictions snapshot")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.DownloadsInc()
	}

	w.Header().Set("Content-Type", common.CSVContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", common.PredictionsFileName))
	http.ServeContent(w, r, common.PredictionsFileName, time.Time{}, bytes.NewReader(data))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                "ok",
		"backend":               s.cfg.Backend,
		"uptime_seconds":        int64(time.Since(s.started).Seconds()),
		"predictions_available": s.cfg.Results.Exists(),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentRuns
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRecentRuns {
			http.Error(w, fmt.Sprintf("limit must be between 1 and %d", maxRecentRuns), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs := []storage.RunRecord{}
	if s.cfg.Runs != nil {
		recent, err := s.cfg.Runs.RecentRuns(limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list runs")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if recent != nil {
			runs = recent
		}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Hub == nil {
		http.NotFound(w, r)
		return
	}

	var backlog []storage.RunRecord
	if s.cfg.Runs != nil {
		recent, err := s.cfg.Runs.RecentRuns(defaultRecentRuns)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load run backlog for live feed")
		}
		backlog = recent
	}
	s.cfg.Hub.ServeWS(w, r, backlog)
}

func (s *Server) render(w http.ResponseWriter, status int, view View) {
	view.DownloadAvailable = s.cfg.Results.Exists()

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, view); err != nil {
		log.Error().Err(err).Msg("Failed to render home view")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
