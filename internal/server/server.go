// Package server exposes the analysis engine as an HTTP JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/cache"
	"github.com/iwvelando/brrrr-analyzer/internal/config"
	"github.com/iwvelando/brrrr-analyzer/internal/optimizer"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/iwvelando/brrrr-analyzer/internal/timeline"
	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/iwvelando/brrrr-analyzer/pkg/datetime"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"go.uber.org/zap"
)

// CacheHeader reports whether a response was served from the result cache.
const CacheHeader = "X-Cache"

type handler struct {
	logger      *zap.Logger
	engine      *brrrr.Engine
	matrices    *sensitivity.Generator
	solver      *optimizer.Runner
	schedules   *mortgage.ScheduleGenerator
	results     cache.Cache
	limiter     *clientLimiter
	maxBodySize int64
	horizon     int
	version     string
}

// NewHandler constructs the HTTP handler serving the analysis API. A nil
// cache disables result caching.
func NewHandler(logger *zap.Logger, engine *brrrr.Engine, results cache.Cache, conf config.Configuration, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if results == nil {
		results = cache.Nop{}
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}
	horizon := conf.Timeline.HorizonMonths
	if horizon <= 0 {
		horizon = constants.DefaultTimelineHorizonMonths
	}

	h := &handler{
		logger:      logger,
		engine:      engine,
		matrices:    sensitivity.NewGenerator(logger, engine, 0),
		solver:      optimizer.NewRunner(logger, engine),
		schedules:   mortgage.NewScheduleGenerator(logger),
		results:     results,
		maxBodySize: conf.Server.BodySizeBytes(),
		horizon:     horizon,
		version:     trimmedVersion,
	}
	if conf.Server.RateLimit.RPS > 0 {
		h.limiter = newClientLimiter(conf.Server.RateLimit.RPS, conf.Server.RateLimit.Burst)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/brrrr/calculate", h.handleCalculate)
	mux.HandleFunc("POST /api/v1/brrrr/quick-metrics", h.handleQuickMetrics)
	mux.HandleFunc("POST /api/v1/brrrr/sensitivity", h.handleSensitivity)
	mux.HandleFunc("POST /api/v1/brrrr/timeline", h.handleTimeline)
	mux.HandleFunc("POST /api/v1/brrrr/optimize", h.handleOptimize)

	mux.HandleFunc("POST /api/v1/heloc/capacity", h.handleHelocCapacity)
	mux.HandleFunc("POST /api/v1/mortgage/schedule", h.handleSchedule)

	mux.HandleFunc("GET /api/v1/transfer-tax/calculate", h.handleTransferTax)
	mux.HandleFunc("GET /api/v1/transfer-tax/municipality-from-postal", h.handleMunicipality)

	mux.HandleFunc("GET /api/v1/rules/bsif", h.handleRulesBSIF)
	mux.HandleFunc("GET /api/v1/rules/cmhc", h.handleRulesCMHC)

	mux.HandleFunc("POST /api/v1/extraction/map", h.handleExtractionMap)

	mux.HandleFunc("GET /api/v1/health", h.handleHealth)

	var root http.Handler = mux
	root = h.withRateLimit(root)
	root = withCORS(conf.Server.CORSOrigins, root)
	root = withLogging(logger, root)
	return withRequestID(root)
}

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, logger *zap.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", "server.ListenAndServe"),
			zap.String("address", addr),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down",
		zap.String("op", "server.ListenAndServe"),
	)
	return srv.Shutdown(shutdownCtx)
}

// readBody reads the request body within the size limit and decodes it
// from JSON or, for a YAML content type, YAML.
func (h *handler) readBody(w http.ResponseWriter, r *http.Request, v any) (status int, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds limit of %d bytes", h.maxBodySize)
		}
		return http.StatusBadRequest, &validation.MalformedInputError{Reason: "failed to read request body: " + err.Error()}
	}

	encoding := validation.EncodingJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		encoding = validation.EncodingYAML
	}
	if err := validation.Decode(bytes.NewReader(data), encoding, v); err != nil {
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

// cached serves the encoded result of compute, stored under a key derived
// from op, the rules version and payload. Cache failures are logged and
// otherwise ignored.
func (h *handler) cached(w http.ResponseWriter, r *http.Request, op, rulesVersion string, payload any, compute func() (any, error)) {
	key, err := cache.Key(op, rulesVersion, payload)
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}

	if data, ok, err := h.results.Get(r.Context(), key); err != nil {
		h.logger.Warn("result cache read failed",
			zap.String("op", op),
			zap.Error(err),
		)
	} else if ok {
		h.logger.Debug("result cache hit",
			zap.String("op", op),
			zap.String("key", key),
		)
		w.Header().Set(CacheHeader, "HIT")
		h.writeRaw(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}
	if err := h.results.Set(r.Context(), key, data); err != nil {
		h.logger.Warn("result cache write failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}
	w.Header().Set(CacheHeader, "MISS")
	h.writeRaw(w, http.StatusOK, data)
}

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrMalformedInput),
		errors.Is(err, sensitivity.ErrInvalidAxis),
		errors.Is(err, timeline.ErrInvalidHorizon),
		errors.Is(err, mortgage.ErrInvalidMortgageParameters),
		errors.Is(err, datetime.ErrInvalidMonth),
		errors.Is(err, optimizer.ErrInvalidRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *handler) respondFailure(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())}
	var malformed *validation.MalformedInputError
	if errors.As(err, &malformed) {
		resp.Field = malformed.Field
	}
	if status == http.StatusInternalServerError {
		resp.Error = http.StatusText(status)
	}
	h.logFailure(r, status, err.Error(), op)
	h.writeJSON(w, status, resp)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logFailure(r, status, msg, op)
	h.writeJSON(w, status, errorResponse{Error: msg, RequestID: RequestID(r.Context())})
}

func (h *handler) logFailure(r *http.Request, status int, msg string, op string) {
	log := h.logger.Warn
	if status >= http.StatusInternalServerError {
		log = h.logger.Error
	}
	log("request failed",
		zap.String("op", op),
		zap.String("requestId", RequestID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"Internal Server Error"}`)
	}
	h.writeRaw(w, status, data)
}

func (h *handler) writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		h.logger.Warn("failed to write response",
			zap.String("op", "server.writeRaw"),
			zap.Error(err),
		)
	}
}
