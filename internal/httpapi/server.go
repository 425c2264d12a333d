// Package httpapi serves predictions over a local JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"yashubustudio/segmenter/segmenter"
)

// maxRequestBodySize limits POST bodies; a feature vector is a few hundred bytes.
const maxRequestBodySize = 64 << 10

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Predictor is the part of *segmenter.Service the API serves from.
type Predictor interface {
	HandlePredictionRequest(fv segmenter.FeatureVector) (segmenter.RenderModel, error)
	Legend() []segmenter.LegendEntry
	Comparison() segmenter.ComparisonTable
}

// Server exposes a Predictor over HTTP.
type Server struct {
	pred    Predictor
	metrics *Metrics
	reg     *prometheus.Registry
	logger  *zap.Logger
	handler http.Handler
}

// New builds a Server and registers its metrics on reg.
func New(pred Predictor, reg *prometheus.Registry, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	s := &Server{pred: pred, metrics: metrics, reg: reg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/predict", s.handlePredict)
	mux.HandleFunc("GET /v1/segments", s.handleSegments)
	mux.HandleFunc("GET /v1/summary", s.handleSummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	s.handler = s.withRequestID(mux)
	return s, nil
}

// Handler returns the routed handler with request id and logging middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		s.logger.Info("http server stopped")
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	// Omitted fields take the form defaults.
	fv := segmenter.DefaultFeatureVector()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fv); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if r.URL.Query().Get("clamp") == "true" {
		fv = segmenter.FieldSpecs.Clamp(fv)
	} else if err := segmenter.FieldSpecs.Validate(fv); err != nil {
		var rangeErr *segmenter.InputRangeError
		if errors.As(err, &rangeErr) {
			s.metrics.observeRejected(rangeErr.Field)
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: rangeErr.Field})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	rm, err := s.pred.HandlePredictionRequest(fv)
	if err != nil {
		s.logger.Error("prediction failed",
			zap.String("request_id", requestID(r)),
			zap.Bool("config_mismatch", errors.Is(err, segmenter.ErrConfigMismatch)),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.observePrediction(rm.ClusterID, time.Since(start))
	writeJSON(w, http.StatusOK, rm)
}

func (s *Server) handleSegments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pred.Legend())
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pred.Comparison())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ctxKey struct{}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
