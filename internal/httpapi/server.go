// Package httpapi serves the question answering and upload endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/metrics"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/orchestrator"
)

const (
	uploadFailed    = "Something went wrong"
	multipartMemory = 8 << 20
	// multipartSlack covers boundaries and headers around the file part.
	multipartSlack = 1 << 20
)

// Service is the part of rag.Service the handlers need.
type Service interface {
	Ask(ctx context.Context, question string) (*orchestrator.Answer, error)
	SaveUpload(ctx context.Context, name string, r io.Reader) (string, error)
}

type Server struct {
	svc       Service
	cfg       config.ServerConfig
	maxUpload int64
	handler   http.Handler
	srv       *http.Server
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

func New(svc Service, cfg config.ServerConfig, maxUpload int64) *Server {
	s := &Server{svc: svc, cfg: cfg, maxUpload: maxUpload}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/api/v1/users", s.ask).Methods("POST")
	r.HandleFunc("/api/v1/users/uploadDocument", s.upload).Methods("POST")

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(r)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.srv = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("httpapi: listening on %s", s.cfg.Address())
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ctx := r.Context()
	if s.cfg.RequestTimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.RequestTimeoutS)*time.Second)
		defer cancel()
	}
	ans, err := s.svc.Ask(ctx, req.Question)
	if err != nil {
		logger.Errorf("httpapi: ask failed: %v", err)
		writeJSON(w, errs.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Message: ans.Message})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartSlack)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "expected multipart form with a file field"})
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing file"})
		return
	}
	defer file.Close()

	name, err := s.svc.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidUpload) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		logger.Errorf("httpapi: upload %q failed: %v", header.Filename, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": uploadFailed})
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Filename: name, Status: "uploaded"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("httpapi: encode response: %v", err)
	}
}
