package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/index"
	"github.com/hupe1980/qbucket/prom"
	"github.com/hupe1980/qbucket/testutil"
)

func trainProducts(t *testing.T) *qbucket.Index {
	t.Helper()
	ix, err := qbucket.TrainFromRecords(context.Background(), testutil.ProductRecords(),
		[]string{"company", "category"}, []string{"listPrice"})
	require.NoError(t, err)
	return ix
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBoundary(t *testing.T) {
	s := New(trainProducts(t))

	tests := []struct {
		name  string
		query url.Values
		want  float64
	}{
		{"median", url.Values{"attribute": {"listPrice"}, "bucket": {"2"}, "op": {"<"}}, 50},
		{"default op", url.Values{"attribute": {"listPrice"}, "bucket": {"4"}}, 2000},
		{"clothes min", url.Values{"attribute": {"listPrice"}, "bucket": {"1"}, "op": {">"}, "filter": {"category=Clothes"}}, 50},
		{"custom buckets", url.Values{"attribute": {"listPrice"}, "bucket": {"2"}, "op": {">"}, "buckets": {"100,0"}}, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s.Handler(), "/v1/boundary?"+tt.query.Encode())
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp BoundaryResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Value)
			assert.Equal(t, "listPrice", resp.Attribute)
		})
	}
}

func TestBoundary_Debug(t *testing.T) {
	s := New(trainProducts(t))

	q := url.Values{"attribute": {"listPrice"}, "bucket": {"1"}, "op": {">"}, "filter": {"category=Clothes"}, "debug": {"true"}}
	rec := get(t, s.Handler(), "/v1/boundary?"+q.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BoundaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "listPrice#category_=Clothes", resp.Key)
	assert.Len(t, resp.List, 11)
}

func TestBoundary_Errors(t *testing.T) {
	s := New(trainProducts(t))

	tests := []struct {
		name  string
		query url.Values
		code  int
	}{
		{"missing attribute", url.Values{"bucket": {"1"}}, http.StatusBadRequest},
		{"bad bucket", url.Values{"attribute": {"listPrice"}, "bucket": {"x"}}, http.StatusBadRequest},
		{"unknown attribute", url.Values{"attribute": {"weight"}, "bucket": {"1"}}, http.StatusBadRequest},
		{"bucket out of range", url.Values{"attribute": {"listPrice"}, "bucket": {"5"}}, http.StatusBadRequest},
		{"bad spec", url.Values{"attribute": {"listPrice"}, "bucket": {"1"}, "buckets": {"50,60"}}, http.StatusBadRequest},
		{"bad buckets", url.Values{"attribute": {"listPrice"}, "bucket": {"1"}, "buckets": {"a,b"}}, http.StatusBadRequest},
		{"overflowing spec", url.Values{"attribute": {"listPrice"}, "bucket": {"2"}, "buckets": {"9223372036854775807,9223372036854775798,111"}}, http.StatusBadRequest},
		{"bad operator", url.Values{"attribute": {"listPrice"}, "bucket": {"1"}, "op": {"="}}, http.StatusBadRequest},
		{"bad filter", url.Values{"attribute": {"listPrice"}, "bucket": {"1"}, "filter": {"category"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s.Handler(), "/v1/boundary?"+tt.query.Encode())
			assert.Equal(t, tt.code, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusCode(index.ErrNoIndexForFilters))
	assert.Equal(t, http.StatusServiceUnavailable, statusCode(errUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusCode(errors.New("disk on fire")))
	assert.Equal(t, http.StatusBadRequest, statusCode(qbucket.ErrInvalidInput))
	assert.Equal(t, http.StatusTooManyRequests, statusCode(errTooManyRequests))
	assert.Equal(t, http.StatusConflict, statusCode(ErrReloadInProgress))
	assert.Equal(t, http.StatusNotImplemented, statusCode(ErrNoLoader))
}

func TestBoundary_MaxInflight(t *testing.T) {
	s := New(trainProducts(t), WithMaxInflight(1))
	target := "/v1/boundary?attribute=listPrice&bucket=2"

	require.True(t, s.limits.TryAcquireQuery())
	assert.Equal(t, http.StatusTooManyRequests, get(t, s.Handler(), target).Code)

	s.limits.ReleaseQuery()
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), target).Code)
	assert.Equal(t, int64(0), s.limits.Inflight())
}

func TestIndexAndHealth(t *testing.T) {
	s := New(nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/v1/index").Code)

	ix := trainProducts(t)
	s.Swap(ix)

	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)

	rec := get(t, s.Handler(), "/v1/index")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp IndexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.QuantileGap)
	assert.Equal(t, ix.Len(), resp.Entries)
	assert.Equal(t, []string{"listPrice"}, resp.Numeric)
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(trainProducts(t))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/boundary", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(trainProducts(t), WithMetrics(prom.New(reg), reg))

	get(t, s.Handler(), "/v1/boundary?attribute=listPrice&bucket=1")
	get(t, s.Handler(), "/v1/boundary?attribute=listPrice&bucket=9")

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `qbucket_http_requests_total{method="GET",route="/v1/boundary",status="200"} 1`)
	assert.Contains(t, body, `qbucket_http_requests_total{method="GET",route="/v1/boundary",status="400"} 1`)
}

func TestReload(t *testing.T) {
	ctx := context.Background()

	assert.ErrorIs(t, New(nil).Reload(ctx), ErrNoLoader)

	calls := 0
	s := New(nil, WithLoader(func(context.Context) (*qbucket.Index, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("store unavailable")
		}
		return trainProducts(t), nil
	}))

	require.NoError(t, s.Reload(ctx))
	first := s.Index()
	require.NotNil(t, first)

	require.Error(t, s.Reload(ctx))
	assert.Same(t, first, s.Index())

	require.True(t, s.limits.TryAcquireReload())
	assert.ErrorIs(t, s.Reload(ctx), ErrReloadInProgress)
	s.limits.ReleaseReload()
	assert.Equal(t, 2, calls)
}

func TestReloadEndpoint(t *testing.T) {
	post := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
		return rec
	}

	assert.Equal(t, http.StatusNotImplemented, post(New(nil).Handler()).Code)

	s := New(nil, WithLoader(func(context.Context) (*qbucket.Index, error) {
		return trainProducts(t), nil
	}))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/healthz").Code)

	rec := post(s.Handler())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp IndexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"listPrice"}, resp.Numeric)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)
}

func TestRun_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(trainProducts(t))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0", 0, 0) }()
	cancel()

	require.NoError(t, <-done)
}
