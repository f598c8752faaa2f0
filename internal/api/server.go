package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/services"
)

// Server exposes the sync operations over HTTP. It stays deliberately thin:
// parse, validate, delegate, map errors to status codes.
type Server struct {
	httpServer   *http.Server
	compressor   *services.Compressor
	decompressor *services.Decompressor
	shortlister  *services.Shortlister
	validate     *validator.Validate
}

type applicantRequest struct {
	AppID  string `json:"app_id" validate:"required"`
	Rec    string `json:"rec" validate:"required"`
	DryRun bool   `json:"dry_run"`
}

func NewServer(port int, compressor *services.Compressor, decompressor *services.Decompressor,
	shortlister *services.Shortlister) *Server {

	server := &Server{
		compressor:   compressor,
		decompressor: decompressor,
		shortlister:  shortlister,
		validate:     validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/run_compressor", server.runCompressor)
	mux.HandleFunc("/run_compressor_all", server.runCompressorAll)
	mux.HandleFunc("/run_decompressor", server.runDecompressor)
	mux.HandleFunc("/run_decompressor_all", server.runDecompressorAll)
	mux.HandleFunc("/run_shortlist", server.runShortlist)
	mux.HandleFunc("/run_shortlist_all", server.runShortlistAll)

	server.httpServer = &http.Server{Addr: ":" + strconv.Itoa(port), Handler: mux}
	return server
}

func (s *Server) Run() error {
	log.Infof("api server listening on %v", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) runCompressor(w http.ResponseWriter, r *http.Request) {

	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payload, err := s.compressor.CompressOne(r.Context(), req.AppID, req.Rec)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rec": req.Rec, "payload": payload})
}

func (s *Server) runCompressorAll(w http.ResponseWriter, r *http.Request) {

	result, err := s.compressor.CompressAll(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": result.Message()})
}

func (s *Server) runDecompressor(w http.ResponseWriter, r *http.Request) {

	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snapshot, err := s.decompressor.DecompressOne(r.Context(), req.AppID, req.Rec, req.DryRun)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rec": req.Rec, "payload": snapshot})
}

func (s *Server) runDecompressorAll(w http.ResponseWriter, r *http.Request) {

	result, err := s.decompressor.DecompressAll(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": result.Message()})
}

func (s *Server) runShortlist(w http.ResponseWriter, r *http.Request) {

	req, err := s.parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.shortlister.ShortlistOne(r.Context(), req.AppID, req.Rec)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) runShortlistAll(w http.ResponseWriter, r *http.Request) {

	summary, err := s.shortlister.ShortlistAll(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": summary})
}

func (s *Server) parseRequest(r *http.Request) (applicantRequest, error) {

	var req applicantRequest

	if r.Method == http.MethodGet {
		req.AppID = r.URL.Query().Get("app_id")
		req.Rec = r.URL.Query().Get("rec")
		req.DryRun = r.URL.Query().Get("dry_run") == "true"
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("request body is not valid JSON")
		}
	}

	if err := s.validate.Struct(req); err != nil {
		return req, errors.New("missing app_id or rec")
	}

	return req, nil
}

func writeOperationError(w http.ResponseWriter, err error) {

	var validationErr *services.ValidationError
	var corruptErr *services.CorruptSnapshotError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &corruptErr):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"status": "error", "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}
