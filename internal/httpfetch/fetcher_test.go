package httpfetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestFetcher(retries int) *Fetcher {
	f := New(Options{
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
		UserAgents: []string{"ua-test"},
	}, nil, nil)
	f.pickUA = func(pool []string) string { return pool[0] }
	return f
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept-Encoding")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
	require.Equal(t, "ua-test", gotUA)
	require.Equal(t, "gzip, deflate", gotAccept)
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("third time"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "third time", string(body))
	require.EqualValues(t, 3, calls.Load())
}

func TestFetch_ExhaustedReturnsFetchError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestFetcher(2).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, 2, fe.Attempts)
	require.Equal(t, srv.URL, fe.URL)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusForbidden, se.Code)
	require.EqualValues(t, 2, calls.Load())
}

func TestFetch_DecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("compressed page"))
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := newTestFetcher(1).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "compressed page", string(body))
}

func TestFetch_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	f.opts.MaxBodyBytes = 16

	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrBodyTooLarge)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, 1, fe.Attempts)
}

func TestFetch_ContextCancelStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	f.opts.BaseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := newTestFetcher(1).Fetch(context.Background(), "not a url")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Zero(t, fe.Attempts)
}
