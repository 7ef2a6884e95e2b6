package server

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(Config{Logger: testutil.NewTestLogger(t)})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestCoefficients(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/coefficients?kind=central&d=1&n=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out CoefficientsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, StencilSpec{Kind: "central", D: 1, N: 2}, out.Stencil)
	assert.Equal(t, []int{-1, 0, 1}, out.Offsets)
	require.Len(t, out.Coefficients, 3)
	assert.InDelta(t, -0.5, out.Coefficients[0], 1e-15)
	assert.InDelta(t, 0.5, out.Coefficients[2], 1e-15)
}

func TestCoefficients_Default(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/coefficients")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out CoefficientsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, StencilSpec{Kind: "central", D: 1, N: 4}, out.Stencil)
	assert.Len(t, out.Coefficients, 5)
}

func TestCoefficients_Invalid(t *testing.T) {
	ts := newTestServer(t)

	for _, q := range []string{"kind=sideways", "n=0", "d=one", "n=120", "d=20&n=13", "n=9223372036854775807"} {
		resp, err := http.Get(ts.URL + "/v1/coefficients?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestDerivative(t *testing.T) {
	ts := newTestServer(t)

	resp, out := post(t, ts, "/v1/derivative", `{"expr": "math.sin(x)", "x": 1.0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.InDelta(t, math.Cos(1), out["value"], 1e-9)
	assert.Greater(t, out["width"], 0.0)
}

func TestDerivative_StencilAndBandwidth(t *testing.T) {
	ts := newTestServer(t)

	body := `{
		"expr": "x*x*x",
		"x": 2,
		"stencil": {"kind": "central", "d": 2, "n": 2},
		"bandwidth": {"strategy": "fixed", "width": 0.0078125}
	}`
	resp, out := post(t, ts, "/v1/derivative", body)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.InDelta(t, 12.0, out["value"], 1e-9)
	assert.Equal(t, 0.0078125, out["width"])
}

func TestDerivative_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"expr":`, http.StatusBadRequest},
		{"unknown field", `{"expr": "x", "x": 1, "y": 2}`, http.StatusBadRequest},
		{"bad expression", `{"expr": "math.sin(", "x": 1}`, http.StatusBadRequest},
		{"bad stencil", `{"expr": "x", "x": 1, "stencil": {"kind": "central", "d": 1, "n": 0}}`, http.StatusBadRequest},
		{"stencil too large", `{"expr": "x", "x": 1, "stencil": {"kind": "central", "d": 1, "n": 100}}`, http.StatusBadRequest},
		{"bad bandwidth", `{"expr": "x", "x": 1, "bandwidth": {"strategy": "fixed"}}`, http.StatusBadRequest},
		{"evaluation error", `{"expr": "1 / (x - 1)", "x": 1}`, http.StatusBadRequest},
		{"non-finite", `{"expr": "math.sqrt(x)", "x": -1}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts, "/v1/derivative", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, out)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestGradient(t *testing.T) {
	ts := newTestServer(t)

	body := `{"expr": "x[0]*x[0] + 3*x[1]*x[2] + math.sin(x[2])", "x": [1.5, -0.5, 0.8]}`
	resp, err := http.Post(ts.URL+"/v1/gradient", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out GradientResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	want := []float64{3, 2.4, -1.5 + math.Cos(0.8)}
	require.Len(t, out.Gradient, 3)
	for i := range want {
		assert.InDelta(t, want[i], out.Gradient[i], 1e-7, "component %d", i)
	}
}

func TestGradient_Errors(t *testing.T) {
	ts := newTestServer(t)

	resp, out := post(t, ts, "/v1/gradient", `{"expr": "x[0]", "x": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, out)

	resp, out = post(t, ts, "/v1/gradient", `{"expr": "x[0]", "x": [1], "stencil": {"kind": "central", "d": 2, "n": 2}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, out)

	resp, out = post(t, ts, "/v1/gradient", `{"expr": "x[5]", "x": [1, 2]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, out)
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, findiff.FivePointCentral, s.stencil)
	assert.Equal(t, findiff.AdaptiveOptimal, s.bandwidth.Strategy)
	assert.NotNil(t, s.logger)

	s = New(Config{Bandwidth: findiff.FixedBandwidth(0x1p-10)})
	assert.Equal(t, findiff.FivePointCentral, s.stencil)
	assert.Equal(t, findiff.FixedBandwidth(0x1p-10), s.bandwidth)
}

func TestServe_Shutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := New(Config{Addr: addr, Logger: testutil.NewTestLogger(t)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
