// Package api exposes fund performance over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"fund-valuation/internal/config"
	"fund-valuation/internal/domain"
	"fund-valuation/internal/idhash"
	"fund-valuation/internal/observability"
	"fund-valuation/internal/performance"
)

// PerformanceResponse is the JSON body of GET /funds/{address}/performance.
// Values are decimal strings keyed by bucket timestamp (Unix seconds).
type PerformanceResponse struct {
	FundAddress            string            `json:"fundAddress"`
	ReferenceTimestamp     uint32            `json:"referenceTimestamp"`
	FundValuesByTimeStamps map[string]string `json:"fundValuesByTimeStamps"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Handler serves the performance API.
type Handler struct {
	calc      performance.Calculator
	reference func() uint32
	timeout   time.Duration
	logger    *log.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithReference sets the function supplying the reference time when a request
// has no "at" parameter.
func WithReference(fn func() uint32) Option {
	return func(h *Handler) {
		if fn != nil {
			h.reference = fn
		}
	}
}

// WithTimeout bounds each calculation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a handler over calc. By default the reference time is
// the wall clock.
func NewHandler(calc performance.Calculator, opts ...Option) *Handler {
	h := &Handler{
		calc:      calc,
		reference: func() uint32 { return uint32(time.Now().Unix()) },
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the HTTP routes wrapped in request ID middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /funds/{address}/performance", instrument("/funds/{address}/performance", http.HandlerFunc(h.handlePerformance)))
	mux.Handle("GET /health", instrument("/health", http.HandlerFunc(handleHealth)))
	mux.Handle("GET /metrics", observability.Handler())
	return withRequestID(mux)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	reference := h.reference()
	if at := r.URL.Query().Get("at"); at != "" {
		ts, err := config.ParseTimestamp(at)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		reference = ts
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	perf, err := h.calc.Calculate(ctx, address, reference)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError || code == http.StatusGatewayTimeout {
			h.logger.Printf("[%s] performance %s: %v", RequestID(r.Context()), address, err)
			writeError(w, r, code, http.StatusText(code))
			return
		}
		writeError(w, r, code, err.Error())
		return
	}

	etag := `"` + idhash.ComputeResultHash(perf) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, NewPerformanceResponse(perf))
}

// NewPerformanceResponse converts a result to its JSON form.
func NewPerformanceResponse(perf *domain.FundPerformance) PerformanceResponse {
	values := make(map[string]string, len(perf.Values))
	for _, v := range perf.Values {
		values[strconv.FormatUint(uint64(v.Timestamp), 10)] = v.Value.String()
	}
	return PerformanceResponse{
		FundAddress:            perf.FundAddress,
		ReferenceTimestamp:     perf.ReferenceTimestamp,
		FundValuesByTimeStamps: values,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, performance.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, performance.ErrFundNotFound):
		return http.StatusNotFound
	case errors.Is(err, performance.ErrNoAllocationData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, RequestID: RequestID(r.Context())})
}
