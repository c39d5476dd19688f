package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/codec"
	"github.com/hupe1980/qbucket/filter"
	"github.com/hupe1980/qbucket/index"
)

// BoundaryResponse is the body of GET /v1/boundary.
type BoundaryResponse struct {
	Attribute  string    `json:"attribute"`
	Bucket     int       `json:"bucket"`
	Operator   string    `json:"op"`
	Value      float64   `json:"value"`
	Key        string    `json:"key"`
	Percentile int       `json:"percentile"`
	Position   int       `json:"position"`
	List       []float64 `json:"list,omitempty"`
}

// IndexResponse is the body of GET /v1/index.
type IndexResponse struct {
	Version     uint64   `json:"version"`
	QuantileGap int      `json:"quantile_gap"`
	MaxDepth    int      `json:"max_depth"`
	Entries     int      `json:"entries"`
	Categorical []string `json:"filter_features"`
	Numeric     []string `json:"bucket_features"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks request parsing failures.
var errBadRequest = errors.New("bad request")

// errUnavailable is returned while no index is loaded.
var errUnavailable = errors.New("no index loaded")

// errTooManyRequests is returned when the in-flight query limit is reached.
var errTooManyRequests = errors.New("too many requests")

func (s *Server) boundary(w http.ResponseWriter, r *http.Request) error {
	ix := s.index.Load()
	if ix == nil {
		return errUnavailable
	}
	if !s.limits.TryAcquireQuery() {
		return errTooManyRequests
	}
	defer s.limits.ReleaseQuery()

	q := r.URL.Query()
	attribute := q.Get("attribute")
	if attribute == "" {
		return fmt.Errorf("%w: attribute is required", errBadRequest)
	}

	bucket, err := strconv.Atoi(q.Get("bucket"))
	if err != nil {
		return fmt.Errorf("%w: bucket: %v", errBadRequest, err)
	}

	opParam := q.Get("op")
	if opParam == "" {
		opParam = "<"
	}
	op, err := index.ParseOperator(opParam)
	if err != nil {
		return err
	}

	filters, err := filter.Parse(q["filter"]...)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	opts := []qbucket.QueryOption{qbucket.WithFilters(filters)}
	if raw := q.Get("buckets"); raw != "" {
		buckets, err := parseBuckets(raw)
		if err != nil {
			return err
		}
		opts = append(opts, qbucket.WithBuckets(buckets...))
	}

	res, err := ix.Lookup(r.Context(), attribute, bucket, op, opts...)
	if err != nil {
		return err
	}

	resp := BoundaryResponse{
		Attribute:  attribute,
		Bucket:     bucket,
		Operator:   op.String(),
		Value:      res.Value,
		Key:        res.Key,
		Percentile: res.Percentile,
		Position:   res.Position,
	}
	if q.Get("debug") == "true" {
		resp.List = res.List
	}
	return writeJSON(w, http.StatusOK, resp)
}

func parseBuckets(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: buckets: %v", errBadRequest, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Server) describe(w http.ResponseWriter, _ *http.Request) error {
	ix := s.index.Load()
	if ix == nil {
		return errUnavailable
	}
	return writeJSON(w, http.StatusOK, describeIndex(ix))
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) error {
	if err := s.Reload(r.Context()); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, describeIndex(s.index.Load()))
}

func describeIndex(ix *qbucket.Index) IndexResponse {
	return IndexResponse{
		Version:     ix.Version(),
		QuantileGap: ix.QuantileGap(),
		MaxDepth:    ix.MaxDepth(),
		Entries:     ix.Len(),
		Categorical: ix.CategoricalAttributes(),
		Numeric:     ix.NumericAttributes(),
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) error {
	if s.index.Load() == nil {
		return errUnavailable
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withErrorHandle(hndl func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := hndl(w, r)
		if err == nil {
			return
		}
		code := statusCode(err)
		if code >= http.StatusInternalServerError {
			s.opts.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		}
		_ = writeJSON(w, code, ErrorResponse{Error: err.Error()})
	}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest), qbucket.IsInvalidInput(err), errors.Is(err, qbucket.ErrInvalidOperator):
		return http.StatusBadRequest
	case errors.Is(err, qbucket.ErrNoIndexForFilters):
		return http.StatusNotFound
	case errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrReloadInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrNoLoader):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	data, err := codec.Default.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(data)
	return err
}
