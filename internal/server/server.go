package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/mortgage-trust/internal/cache"
	"github.com/iwvelando/mortgage-trust/internal/calibrate"
	"github.com/iwvelando/mortgage-trust/internal/config"
	"github.com/iwvelando/mortgage-trust/internal/engine"
	"github.com/iwvelando/mortgage-trust/pkg/assumptions"
	"github.com/iwvelando/mortgage-trust/pkg/constants"
	"github.com/iwvelando/mortgage-trust/pkg/loans"
	"github.com/iwvelando/mortgage-trust/pkg/money"
	"github.com/iwvelando/mortgage-trust/pkg/output"
	"github.com/iwvelando/mortgage-trust/pkg/statement"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID. An incoming value is reused.
const RequestIDHeader = "X-Request-ID"

// Options configures NewHandler.
type Options struct {
	MaxUploadSize int64
	Version       string
	// Cache is optional; nil disables schedule caching.
	Cache cache.Cache
	// RateLimit is optional; zero Requests disables limiting.
	RateLimit RateLimitConfig
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	engine        *engine.Engine
	calibrator    *calibrate.Runner
	metrics       *metrics
	cached        bool
}

type loggerKey struct{}

// NewHandler constructs the HTTP handler that serves the schedule, match and
// calibration API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	eng := engine.New(logger, opts.Cache)
	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		engine:        eng,
		calibrator:    calibrate.NewRunner(logger, eng),
		metrics:       newMetrics(),
		cached:        opts.Cache != nil,
	}

	mux := http.NewServeMux()

	// Schedule generation (JSON request or YAML job upload)
	mux.Handle("/api/schedule", h.instrument("schedule", h.handleSchedule))

	// Statement reconciliation
	mux.Handle("/api/match", h.instrument("match", h.handleMatch))

	// Assumption calibration against a statement
	mux.Handle("/api/calibrate", h.instrument("calibrate", h.handleCalibrate))

	mux.Handle("/api/presets", h.instrument("presets", h.handlePresets))
	mux.Handle("/api/version", h.instrument("version", h.handleVersion))
	mux.Handle("/metrics", h.metrics.handler())

	var root http.Handler = mux
	if opts.RateLimit.Requests > 0 {
		root = rateLimitMiddleware(NewRateLimiter(opts.RateLimit.Requests, opts.RateLimit.Window()), root)
	}
	return root
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument assigns a request ID, scopes the logger to it and records
// request metrics.
func (h *handler) instrument(endpoint string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := h.logger.With(zap.String("requestId", requestID))
		ctx := context.WithValue(r.Context(), loggerKey{}, logger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r.WithContext(ctx))

		h.metrics.requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		h.metrics.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

func (h *handler) log(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return h.logger
}

// scheduleRequest describes one loan and one assumption set. Without a
// preset or assumptions the standard monthly preset is used.
type scheduleRequest struct {
	Name          string                `json:"name,omitempty"`
	Loan          config.Loan           `json:"loan"`
	Preset        string                `json:"preset,omitempty"`
	Assumptions   *assumptions.Document `json:"assumptions,omitempty"`
	ExtraPayments []config.ExtraPayment `json:"extraPayments,omitempty"`
}

func (req scheduleRequest) job() (engine.Job, error) {
	var job engine.Job
	var err error

	if job.Loan, err = req.Loan.Parameters(); err != nil {
		return job, err
	}
	if job.LastPaymentDate, err = req.Loan.LastPayment(); err != nil {
		return job, err
	}

	sc := config.Scenario{
		Name:          req.Name,
		Active:        true,
		Preset:        req.Preset,
		Assumptions:   req.Assumptions,
		ExtraPayments: req.ExtraPayments,
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = "request"
	}
	if strings.TrimSpace(sc.Preset) == "" && sc.Assumptions == nil {
		sc.Preset = assumptions.PresetStandardMonthly
	}

	set, err := sc.AssumptionSet()
	if err != nil {
		return job, err
	}
	extras, err := config.ExpandExtraPayments(sc.ExtraPayments, job.Loan.TermMonths)
	if err != nil {
		return job, err
	}
	job.Scenarios = []engine.Scenario{{Name: sc.Name, Assumptions: set, Extras: extras}}
	job.MatchOptions = statement.DefaultOptions()
	return job, nil
}

type scheduleResponse struct {
	RequestID string          `json:"requestId"`
	Results   []engine.Result `json:"results"`
	CSV       string          `json:"csv"`
	Warnings  []string        `json:"warnings,omitempty"`
	Duration  string          `json:"duration"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var job engine.Job
	var warnings []string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		configBytes, ok := h.readUpload(w, r, op)
		if !ok {
			return
		}
		conf, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
		if strings.TrimSpace(conf.Common.Statement.CSVFile) != "" {
			h.respondError(w, r, http.StatusBadRequest, "statement csvFile is not supported for uploads; use inline rows", op)
			return
		}
		warnings = conf.ValidateConfiguration()
		if job, err = engine.NewJob(conf); err != nil {
			h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
	} else {
		var req scheduleRequest
		if !h.decodeJSON(w, r, &req, op) {
			return
		}
		var err error
		if job, err = req.job(); err != nil {
			h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
	}

	results, err := h.engine.Run(r.Context(), job)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}
	for _, result := range results {
		if h.cached {
			h.metrics.observeCache(result.Cached)
		}
		if result.Match != nil {
			h.metrics.observeMatch(result.Match.Status)
		}
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, results); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render CSV: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.log(r).Info("schedule computed",
		zap.String("op", op),
		zap.Int("scenarios", len(results)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, scheduleResponse{
		RequestID: w.Header().Get(RequestIDHeader),
		Results:   results,
		CSV:       csvBuf.String(),
		Warnings:  warnings,
		Duration:  elapsed.String(),
	})
}

// matchRequest reconciles Statement against Expected, or against the
// schedule generated from the embedded loan when Expected is empty.
type matchRequest struct {
	scheduleRequest
	Expected  []statement.Row    `json:"expected,omitempty"`
	Statement []statement.Row    `json:"statement"`
	Options   config.MatchConfig `json:"options,omitempty"`
}

type matchResponse struct {
	statement.Result
	RequestID string `json:"requestId"`
}

func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMatch"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req matchRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	opts := req.Options.Options()

	expected := req.Expected
	if len(expected) == 0 {
		job, err := req.job()
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
			return
		}
		sc := job.Scenarios[0]
		schedule, hit, err := h.engine.Schedule(r.Context(), job.Loan, sc.Assumptions, sc.Extras, job.LastPaymentDate)
		if err != nil {
			h.respondError(w, r, statusFor(err), err.Error(), op)
			return
		}
		if h.cached {
			h.metrics.observeCache(hit)
		}
		expected = statement.Columns(statement.RowsFromSchedule(schedule), req.Statement)
	}

	result := statement.Match(expected, req.Statement, opts)
	h.metrics.observeMatch(result.Status)
	h.log(r).Info("statement reconciled",
		zap.String("op", op),
		zap.String("status", string(result.Status)),
		zap.Int("rows", len(req.Statement)),
	)

	h.writeJSON(w, http.StatusOK, matchResponse{Result: result, RequestID: w.Header().Get(RequestIDHeader)})
}

// calibrateRequest ranks Presets (all presets when both lists are empty)
// and inline Assumptions against Statement.
type calibrateRequest struct {
	Loan          config.Loan            `json:"loan"`
	ExtraPayments []config.ExtraPayment  `json:"extraPayments,omitempty"`
	Statement     []statement.Row        `json:"statement"`
	Options       config.MatchConfig     `json:"options,omitempty"`
	Presets       []string               `json:"presets,omitempty"`
	Assumptions   []assumptions.Document `json:"assumptions,omitempty"`
}

func (req calibrateRequest) request() (calibrate.Request, error) {
	var out calibrate.Request
	var err error

	if out.Loan, err = req.Loan.Parameters(); err != nil {
		return out, err
	}
	if out.LastPaymentDate, err = req.Loan.LastPayment(); err != nil {
		return out, err
	}
	if out.Extras, err = config.ExpandExtraPayments(req.ExtraPayments, out.Loan.TermMonths); err != nil {
		return out, err
	}
	for _, name := range req.Presets {
		set, err := assumptions.PresetByName(name)
		if err != nil {
			return out, err
		}
		out.Candidates = append(out.Candidates, set)
	}
	for _, doc := range req.Assumptions {
		set, err := doc.Build()
		if err != nil {
			return out, err
		}
		out.Candidates = append(out.Candidates, set)
	}

	out.Statement = req.Statement
	out.Options = req.Options.Options()
	return out, nil
}

type calibrateResponse struct {
	RequestID string              `json:"requestId"`
	Rankings  []calibrate.Ranking `json:"rankings"`
	Best      string              `json:"best,omitempty"`
}

func (h *handler) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalibrate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req calibrateRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if len(req.Statement) == 0 {
		h.respondError(w, r, http.StatusBadRequest, "statement rows are required", op)
		return
	}
	calReq, err := req.request()
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	rankings, err := h.calibrator.Run(r.Context(), calReq)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	resp := calibrateResponse{RequestID: w.Header().Get(RequestIDHeader), Rankings: rankings}
	if best, ok := calibrate.Best(rankings); ok {
		resp.Best = best.Name
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	presets := assumptions.Presets()
	docs := make([]assumptions.Document, 0, len(presets))
	for _, set := range presets {
		docs = append(docs, set.Document())
	}
	h.writeJSON(w, http.StatusOK, map[string][]assumptions.Document{"presets": docs})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// readUpload returns the multipart "file" field.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing configuration file", op)
		return nil, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.log(r).Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return nil, false
	}
	return buf.Bytes(), true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, loans.ErrInvalidLoan),
		errors.Is(err, loans.ErrConfigurationMismatch),
		errors.Is(err, assumptions.ErrValidation),
		errors.Is(err, money.ErrInvalidRate),
		errors.Is(err, money.ErrInvalidPeriod),
		errors.Is(err, money.ErrInvalidDayCountBasis),
		errors.Is(err, calibrate.ErrNoCandidates):
		return http.StatusBadRequest
	case errors.Is(err, loans.ErrScheduleNotConverged),
		errors.Is(err, money.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.log(r).Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
