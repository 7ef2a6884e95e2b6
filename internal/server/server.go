// Package server exposes findiff over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/expr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Addr      string
	Stencil   findiff.Stencil   // Used when a request names no stencil
	Bandwidth findiff.Bandwidth // Used when a request names no bandwidth
	Logger    *slog.Logger
}

// Server serves the findiff HTTP API.
type Server struct {
	addr      string
	stencil   findiff.Stencil
	bandwidth findiff.Bandwidth
	logger    *slog.Logger
}

// New creates a server. A zero Stencil defaults to five-point central, a
// zero Bandwidth to the adaptive optimal width, and a nil Logger discards
// records.
func New(cfg Config) *Server {
	s := &Server{
		addr:      cfg.Addr,
		stencil:   cfg.Stencil,
		bandwidth: cfg.Bandwidth,
		logger:    cfg.Logger,
	}
	if s.stencil.IsZero() {
		s.stencil = findiff.FivePointCentral
	}
	if s.bandwidth == (findiff.Bandwidth{}) {
		s.bandwidth = findiff.OptimalBandwidth(findiff.DefaultStepOptions())
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/coefficients", s.handleCoefficients)
		r.Post("/derivative", s.handleDerivative)
		r.Post("/gradient", s.handleGradient)
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting findiff server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down findiff server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// MaxOrder bounds d+n for stencils named in requests.
const MaxOrder = 32

// StencilSpec is the JSON form of a stencil.
type StencilSpec struct {
	Kind string `json:"kind"`
	D    int    `json:"d"`
	N    int    `json:"n"`
}

func (sp *StencilSpec) value(fallback findiff.Stencil) (findiff.Stencil, error) {
	if sp == nil {
		return fallback, nil
	}
	if sp.D > MaxOrder || sp.N > MaxOrder || sp.D+sp.N > MaxOrder {
		return findiff.Stencil{}, fmt.Errorf("%w: orders d=%d n=%d exceed the server limit %d",
			findiff.ErrInvalidStencil, sp.D, sp.N, MaxOrder)
	}
	kind, err := findiff.ParseKind(sp.Kind)
	if err != nil {
		return findiff.Stencil{}, err
	}
	return findiff.NewStencil(kind, sp.D, sp.N)
}

func stencilSpec(s findiff.Stencil) StencilSpec {
	return StencilSpec{Kind: s.Kind().String(), D: s.DerivativeOrder(), N: s.ErrorOrder()}
}

// BandwidthSpec is the JSON form of a bandwidth. PowerOfTwo defaults to
// true when omitted.
type BandwidthSpec struct {
	Strategy   string  `json:"strategy"`
	Width      float64 `json:"width,omitempty"`
	TrialWidth float64 `json:"trial_width,omitempty"`
	PowerOfTwo *bool   `json:"power_of_two,omitempty"`
}

func (bs *BandwidthSpec) value(fallback findiff.Bandwidth) (findiff.Bandwidth, error) {
	if bs == nil {
		return fallback, nil
	}
	strategy, err := findiff.ParseStrategy(bs.Strategy)
	if err != nil {
		return findiff.Bandwidth{}, err
	}
	pow2 := bs.PowerOfTwo == nil || *bs.PowerOfTwo

	var bw findiff.Bandwidth
	switch strategy {
	case findiff.Fixed:
		bw = findiff.FixedBandwidth(bs.Width)
	case findiff.RuleOfThumb:
		bw = findiff.RuleOfThumbBandwidth(pow2)
	default:
		opts := findiff.DefaultStepOptions()
		opts.TrialWidth = bs.TrialWidth
		opts.UsePowerOfTwo = pow2
		bw = findiff.OptimalBandwidth(opts)
	}
	return bw, bw.Validate()
}

// DerivativeRequest is the body of POST /v1/derivative.
type DerivativeRequest struct {
	Expr      string         `json:"expr"`
	X         float64        `json:"x"`
	Stencil   *StencilSpec   `json:"stencil,omitempty"`
	Bandwidth *BandwidthSpec `json:"bandwidth,omitempty"`
}

// DerivativeResponse is the body returned by POST /v1/derivative.
type DerivativeResponse struct {
	Value   float64     `json:"value"`
	Width   float64     `json:"width"`
	Stencil StencilSpec `json:"stencil"`
}

// GradientRequest is the body of POST /v1/gradient.
type GradientRequest struct {
	Expr      string         `json:"expr"`
	X         []float64      `json:"x"`
	Stencil   *StencilSpec   `json:"stencil,omitempty"`
	Bandwidth *BandwidthSpec `json:"bandwidth,omitempty"`
}

// GradientResponse is the body returned by POST /v1/gradient.
type GradientResponse struct {
	Gradient []float64 `json:"gradient"`
}

// CoefficientsResponse is the body returned by GET /v1/coefficients.
type CoefficientsResponse struct {
	Stencil      StencilSpec `json:"stencil"`
	Offsets      []int       `json:"offsets"`
	Coefficients []float64   `json:"coefficients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCoefficients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec := stencilSpec(s.stencil)
	if v := q.Get("kind"); v != "" {
		spec.Kind = v
	}
	for name, dst := range map[string]*int{"d": &spec.D, "n": &spec.N} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, badRequest(fmt.Errorf("query parameter %s: %w", name, err)))
			return
		}
		*dst = n
	}

	st, err := spec.value(s.stencil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	c, err := findiff.Coefficients(st)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CoefficientsResponse{
		Stencil:      stencilSpec(st),
		Offsets:      st.Offsets(),
		Coefficients: c,
	})
}

func (s *Server) handleDerivative(w http.ResponseWriter, r *http.Request) {
	var req DerivativeRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := req.Stencil.value(s.stencil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	bw, err := req.Bandwidth.value(s.bandwidth)
	if err != nil {
		s.writeError(w, err)
		return
	}
	u, err := expr.CompileUnivariate(req.Expr)
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}

	d, err := findiff.NewDerivativeFunc(u.Func(), st, bw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	value, width, err := d.AtWithWidth(req.X)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := u.Err(); err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	if err := finite(value); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Debug("derivative", "expr", req.Expr, "x", req.X, "stencil", st.String(), "width", width)
	writeJSON(w, http.StatusOK, DerivativeResponse{Value: value, Width: width, Stencil: stencilSpec(st)})
}

func (s *Server) handleGradient(w http.ResponseWriter, r *http.Request) {
	var req GradientRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := req.Stencil.value(s.stencil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	bw, err := req.Bandwidth.value(s.bandwidth)
	if err != nil {
		s.writeError(w, err)
		return
	}
	m, err := expr.CompileMultivariate(req.Expr)
	if err != nil {
		s.writeError(w, badRequest(err))
		return
	}

	grad, err := findiff.Gradient(m.MultiFunc(), req.X, []findiff.Stencil{st}, []findiff.Bandwidth{bw})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := m.Err(); err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	for _, v := range grad {
		if err := finite(v); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, GradientResponse{Gradient: grad})
}

// inputError marks errors caused by the request rather than the server.
type inputError struct{ err error }

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

func badRequest(err error) error { return inputError{err} }

// errNonFinite is returned when an estimate cannot be encoded as JSON.
var errNonFinite = errors.New("result is not finite")

func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", errNonFinite, v)
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func statusFor(err error) int {
	var in inputError
	switch {
	case errors.As(err, &in),
		errors.Is(err, findiff.ErrInvalidStencil),
		errors.Is(err, findiff.ErrInvalidBandwidth),
		errors.Is(err, findiff.ErrDimension):
		return http.StatusBadRequest
	case errors.Is(err, errNonFinite):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
