package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/civicseal/civicledger/core"
	"github.com/civicseal/civicledger/intake"
	"github.com/civicseal/civicledger/storage"
)

// Server is the thin HTTP front over the intake service. It never touches
// the ledger directly.
type Server struct {
	svc     *intake.Service
	hub     *Hub
	limiter *rate.Limiter
}

func NewServer(svc *intake.Service, hub *Hub) *Server {
	return &Server{
		svc:     svc,
		hub:     hub,
		limiter: rate.NewLimiter(rate.Every(time.Minute/100), 100),
	}
}

// Routes builds the mux: report intake and lookup, status workflow, chain
// export and verification, plus the live WebSocket feed.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", s.handleReports)
	mux.HandleFunc("/reports/status", s.handleStatus)
	mux.HandleFunc("/chain", s.handleChain)
	mux.HandleFunc("/chain/verify", s.handleVerify)
	mux.HandleFunc("/ws", s.hub.HandleWS)
	return mux
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleLookup(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "submission rate limit exceeded")
		return
	}
	var report intake.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	receipt, err := s.svc.Submit(report)
	if err != nil {
		writeError(w, submitStatus(err), err.Error())
		return
	}
	s.hub.Broadcast(BlockEvent{
		Action:      "reportSealed",
		ReportID:    receipt.ReportID,
		BlockIndex:  receipt.BlockIndex,
		BlockHash:   receipt.BlockHash,
		ChainLength: s.svc.VerifyChain().Length,
	})
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}
	record, err := s.svc.Lookup(id)
	if errors.Is(err, intake.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		ReportID string      `json:"reportId"`
		Status   core.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	meta, err := s.svc.UpdateStatus(req.ReportID, req.Status)
	if errors.Is(err, storage.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if errors.Is(err, storage.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ExportChain())
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.VerifyChain())
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, intake.ErrDuplicateReport):
		return http.StatusConflict
	case errors.Is(err, intake.ErrEmptyReportID),
		errors.Is(err, intake.ErrEmptyCategory),
		errors.Is(err, intake.ErrEmptyDescription),
		errors.Is(err, intake.ErrInvalidUrgency),
		errors.Is(err, intake.ErrInvalidIdentity),
		errors.Is(err, intake.ErrMissingCitizenID),
		errors.Is(err, intake.ErrAnonymousCitizenID):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
