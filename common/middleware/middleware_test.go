package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	hr "github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPanicRecoverer(t *testing.T) {
	wrec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fake", nil)
	prm := hr.Param{Key: "foo", Value: "bar"}
	cnt := 0
	h := func(w http.ResponseWriter, r *http.Request, p hr.Params) {
		cnt++
		// params are passed through as expected
		assert.Equal(t, req, r, "unexpected request value")
		assert.Equal(t, hr.Params{prm}, p, "unexpected params value")
		panic("boom!")
	}
	wrapped := Chain(h, PanicRecoverer())

	wrapped(wrec, req, hr.Params{prm})
	assert.Equal(t, 1, cnt, "underlying handler not called by middleware")
	assert.Equal(t, http.StatusInternalServerError, wrec.Code)
	assert.JSONEq(t, `{"error":"ServiceFailure","message":"internal server error"}`, wrec.Body.String())
}

func TestChainOrder(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(h hr.Handle) hr.Handle {
			return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
				calls = append(calls, name)
				h(w, r, p)
			}
		}
	}
	h := func(w http.ResponseWriter, r *http.Request, p hr.Params) {
		calls = append(calls, "handler")
	}
	wrapped := Chain(h, mark("inner"), mark("outer"))
	wrapped(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}

func TestMetricsInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := func(w http.ResponseWriter, r *http.Request, p hr.Params) {
		w.WriteHeader(http.StatusTeapot)
	}
	wrapped := Chain(h, m.Instrument("fake"))

	wrapped(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fake", nil), nil)
	wrapped(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fake", nil), nil)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("fake", http.MethodGet, "418")), 1e-9)
}

func TestStatusRecorderDefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}
	_, err := sr.Write([]byte("ok"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, sr.status)
}
