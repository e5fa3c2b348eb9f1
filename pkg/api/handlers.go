package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/psaab/birdlg/pkg/bird"
	"github.com/psaab/birdlg/pkg/logging"
)

// maxRequestBody bounds query request bodies.
const maxRequestBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, StatusResponse{
		Uptime:      time.Since(s.startTime).Truncate(time.Second).String(),
		QueriesSeen: s.queryLog.Len(),
	})
}

// queryHandler serves a backend endpoint. With an empty endpoint the
// target is taken from the request body, as /api/lgproxy does.
func (s *Server) queryHandler(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, QueryResponse{Error: "invalid request body"})
			return
		}
		target := endpoint
		if target == "" {
			target = req.Endpoint
		}

		ctx := r.Context()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		out, err := s.backend.Query(ctx, target, req.Command)
		elapsed := time.Since(start)

		rec := logging.QueryRecord{
			Time:     start,
			Endpoint: target,
			Command:  req.Command,
			Remote:   r.RemoteAddr,
			Duration: elapsed,
			Bytes:    len(out),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		s.queryLog.Add(rec)

		switch {
		case errors.Is(err, bird.ErrUnknownEndpoint):
			// Caller-chosen endpoints are not used as label values.
			s.stats.inc("other", outcomeRejected)
			slog.Warn("query rejected", "endpoint", target, "err", err)
			writeJSON(w, http.StatusBadRequest, QueryResponse{Error: err.Error()})
		case errors.Is(err, bird.ErrInvalidTarget):
			s.stats.inc(target, outcomeRejected)
			slog.Warn("query rejected", "endpoint", target, "command", req.Command, "err", err)
			writeJSON(w, http.StatusBadRequest, QueryResponse{Error: err.Error()})
		case err != nil:
			s.stats.inc(target, outcomeError)
			s.duration.WithLabelValues(target).Observe(elapsed.Seconds())
			slog.Warn("query failed", "endpoint", target, "command", req.Command, "duration", elapsed, "err", err)
			writeJSON(w, http.StatusBadGateway, QueryResponse{Error: err.Error()})
		default:
			s.stats.inc(target, outcomeOK)
			s.duration.WithLabelValues(target).Observe(elapsed.Seconds())
			slog.Info("query", "endpoint", target, "command", req.Command, "duration", elapsed, "bytes", len(out))
			writeJSON(w, http.StatusOK, QueryResponse{Result: out})
		}
	}
}

func (s *Server) protocolsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	rows, err := s.backend.Protocols(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeOK(w, ProtocolsResponse{Protocols: rows, Count: len(rows)})
}

func (s *Server) queriesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records := s.queryLog.Latest(limit)
	if records == nil {
		records = []logging.QueryRecord{}
	}
	writeOK(w, records)
}
