package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ensilo","version":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	var dest struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/info", nil, &dest))
	assert.Equal(t, "ensilo", dest.Name)
	assert.Equal(t, 1, dest.Version)
}

func TestGetJSON_NumbersKeepDigits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"eventId":123456789}]`))
	}))
	defer srv.Close()

	var dest []map[string]any
	require.NoError(t, New(srv.URL, "tok").GetJSON(context.Background(), "/", nil, &dest))
	require.Len(t, dest, 1)
	assert.Equal(t, json.Number("123456789"), dest[0]["eventId"])
}

func TestGetJSON_TokenHeader(t *testing.T) {
	var gotToken, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(TokenHeader)
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token-123")
	require.NoError(t, c.GetJSON(context.Background(), "/", nil, &struct{}{}))
	assert.Equal(t, "secret-token-123", gotToken)
	assert.Empty(t, gotAuth)
}

func TestGet_BasicAuth(t *testing.T) {
	var user, pass string
	var ok bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		w.Header().Set(TokenHeader, "issued")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", WithBasicAuth("admin", "pw"))
	hdr, _, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "pw", pass)
	assert.Equal(t, "issued", hdr.Get(TokenHeader))
}

func TestGet_DiagnosticsGoThroughSlog(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	// Basic auth over plain http makes resty emit a warning.
	_, _, err := New(srv.URL, "", WithBasicAuth("admin", "pw")).Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "component=resty")
}

func TestGetJSON_QueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	q := url.Values{}
	q.Set("fromDate", "2026-10-19 10:00:00")
	q.Set("toDate", "2026-10-19 10:15:00")
	require.NoError(t, New(srv.URL, "tok").GetJSON(context.Background(), "/logs", q, &struct{}{}))
	assert.Equal(t, "2026-10-19 10:00:00", gotQuery.Get("fromDate"))
	assert.Equal(t, "2026-10-19 10:15:00", gotQuery.Get("toDate"))
}

func TestGetJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").GetJSON(context.Background(), "/bad", nil, &struct{}{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %T: %v", err, err)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, `{"error":"bad request"}`, apiErr.Body)
}

func TestGetJSON_APIErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").GetJSON(context.Background(), "/", nil, &struct{}{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, apiErr.Body, 512)
}

func TestGetJSON_NoRetryOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(503)
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").GetJSON(context.Background(), "/", nil, &struct{}{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := New(srv.URL, "tok").GetJSON(ctx, "/", nil, &struct{}{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").GetJSON(context.Background(), "/x", nil, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode /x")
}
