package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": success, "message": message, "data": data})
}

type refreshStub struct {
	calls atomic.Int32
	ok    bool
	delay time.Duration
}

func (s *refreshStub) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if !s.ok {
		writeEnvelope(w, http.StatusUnauthorized, false, "Refresh token not found", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "fresh", Path: "/", HttpOnly: true})
	writeEnvelope(w, http.StatusOK, true, "Token refreshed successfully", nil)
}

func fresh(r *http.Request) bool {
	c, err := r.Cookie("accessToken")
	return err == nil && c.Value == "fresh"
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, append([]Option{WithHTTPClient(&http.Client{Timeout: 5 * time.Second})}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
	_, err = New("http://localhost:5500/")
	assert.NoError(t, err)
}

func TestDoDecodesData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeEnvelope(w, http.StatusOK, true, "ok", in)
	})
	c := newTestClient(t, mux)

	var out map[string]string
	env := c.Do(context.Background(), http.MethodPost, "/api/echo", map[string]string{"k": "v"}, &out)

	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Message)
	assert.Equal(t, map[string]string{"k": "v"}, out)
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const n = 8

	var arrived sync.WaitGroup
	arrived.Add(n)
	release := make(chan struct{})
	go func() {
		arrived.Wait()
		close(release)
	}()

	refresh := &refreshStub{ok: true, delay: 150 * time.Millisecond}
	var dataCalls atomic.Int32
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", refresh)
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		if fresh(r) {
			writeEnvelope(w, http.StatusOK, true, "ok", nil)
			return
		}
		arrived.Done()
		<-release
		writeEnvelope(w, http.StatusUnauthorized, false, "Authentication expired, please log in again", nil)
	})

	var cleared atomic.Int32
	c := newTestClient(t, mux, WithOnAuthCleared(func() { cleared.Add(1) }))

	results := make([]Envelope, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), refresh.calls.Load(), "exactly one refresh call")
	assert.Equal(t, int32(2*n), dataCalls.Load(), "each request retried exactly once")
	assert.Zero(t, cleared.Load())
	for i, env := range results {
		assert.True(t, env.Success, "request %d: %s", i, env.Message)
	}
}

func TestRefreshFailureClearsAndRedirects(t *testing.T) {
	refresh := &refreshStub{ok: false}
	var dataCalls atomic.Int32
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", refresh)
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, _ *http.Request) {
		dataCalls.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, false, "User not authenticated", nil)
	})

	var cleared atomic.Int32
	var redirects []string
	c := newTestClient(t, mux,
		WithOnAuthCleared(func() { cleared.Add(1) }),
		WithLocation(func() string { return "/dashboard?tab=1" }),
		WithRedirect(func(u string) { redirects = append(redirects, u) }),
	)

	env := c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)

	assert.False(t, env.Success)
	assert.Equal(t, "User not authenticated", env.Message)
	assert.Equal(t, int32(1), dataCalls.Load(), "no retry after a failed refresh")
	assert.Equal(t, int32(1), refresh.calls.Load())
	assert.Equal(t, int32(1), cleared.Load())
	assert.Equal(t, []string{"/login?expired=true&redirect=%2Fdashboard%3Ftab%3D1"}, redirects)
}

func TestNoRefreshOnLoginSurface(t *testing.T) {
	refresh := &refreshStub{ok: true}
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", refresh)
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
	})

	redirected := false
	c := newTestClient(t, mux,
		WithLocation(func() string { return "/login?expired=true" }),
		WithRedirect(func(string) { redirected = true }),
	)

	env := c.Do(context.Background(), http.MethodPost, "/api/auth/login", map[string]string{}, nil)
	assert.False(t, env.Success)
	assert.Zero(t, refresh.calls.Load())
	assert.False(t, redirected)
}

func TestRedirectSkippedWhenAlreadyOnLoginPrefix(t *testing.T) {
	refresh := &refreshStub{ok: false}
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", refresh)
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "User not authenticated", nil)
	})

	redirected := false
	c := newTestClient(t, mux,
		WithLocation(func() string { return "/login/reset" }),
		WithRedirect(func(string) { redirected = true }),
	)

	c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)
	assert.Equal(t, int32(1), refresh.calls.Load(), "only the exact login path suppresses refresh")
	assert.False(t, redirected)
}

func TestRetryNeverRefreshesTwice(t *testing.T) {
	refresh := &refreshStub{ok: true}
	var dataCalls atomic.Int32
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", refresh)
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, _ *http.Request) {
		dataCalls.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid token or user is unauthorized", nil)
	})
	redirected := false
	c := newTestClient(t, mux, WithRedirect(func(string) { redirected = true }))

	env := c.Do(context.Background(), http.MethodGet, "/api/data", nil, nil)

	assert.False(t, env.Success)
	assert.Equal(t, int32(2), dataCalls.Load())
	assert.Equal(t, int32(1), refresh.calls.Load())
	assert.False(t, redirected)
}

func TestTransportFailuresAreNormalized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	c := newTestClient(t, mux)

	env := c.Do(context.Background(), http.MethodGet, "/api/html", nil, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid response from server", env.Message)
	assert.Equal(t, http.StatusOK, env.Status)

	srv := httptest.NewServer(mux)
	srv.Close()
	dead, err := New(srv.URL)
	require.NoError(t, err)
	env = dead.Do(context.Background(), http.MethodGet, "/api/html", nil, nil)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
	assert.Zero(t, env.Status)
}

func TestDownload(t *testing.T) {
	refresh := &refreshStub{ok: true}
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", refresh)
	mux.HandleFunc("/api/files/report", func(w http.ResponseWriter, r *http.Request) {
		if !fresh(r) {
			writeEnvelope(w, http.StatusUnauthorized, false, "Authentication expired, please log in again", nil)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
		_, _ = io.WriteString(w, "a,b\n1,2\n")
	})
	mux.HandleFunc("/api/files/plain", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "raw")
	})
	mux.HandleFunc("/api/files/missing", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, "File not found", nil)
	})
	mux.HandleFunc("/api/files/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	blob, env := c.Download(ctx, "/api/files/report")
	require.True(t, env.Success, env.Message)
	assert.Equal(t, "report.csv", blob.Filename)
	assert.Equal(t, "a,b\n1,2\n", string(blob.Data))
	assert.Equal(t, int32(1), refresh.calls.Load())

	blob, env = c.Download(ctx, "/api/files/plain")
	require.True(t, env.Success)
	assert.Equal(t, "download", blob.Filename)

	blob, env = c.Download(ctx, "/api/files/missing")
	assert.Nil(t, blob)
	assert.Equal(t, "File not found", env.Message)

	_, env = c.Download(ctx, "/api/files/broken")
	assert.Equal(t, "Something went wrong", env.Message)
}

func TestDownloadRefreshFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/api/auth/refresh", &refreshStub{ok: false})
	mux.HandleFunc("/api/files/report", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "User not authenticated", nil)
	})
	c := newTestClient(t, mux)

	blob, env := c.Download(context.Background(), "/api/files/report")
	assert.Nil(t, blob)
	assert.Equal(t, "Authentication failed", env.Message)
}

func TestUpload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, err.Error(), nil)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, err.Error(), nil)
			return
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		writeEnvelope(w, http.StatusOK, true, "uploaded", map[string]string{
			"title":    r.FormValue("title"),
			"filename": hdr.Filename,
			"content":  string(content),
		})
	})
	c := newTestClient(t, mux)

	var progress []int
	env := c.Upload(context.Background(), "/api/upload",
		map[string]string{"title": "notes"},
		[]File{{Field: "file", Name: "notes.txt", Content: strings.NewReader(strings.Repeat("x", 64<<10))}},
		func(p int) { progress = append(progress, p) },
	)

	require.True(t, env.Success, env.Message)
	var got map[string]string
	require.NoError(t, env.DecodeData(&got))
	assert.Equal(t, "notes", got["title"])
	assert.Equal(t, "notes.txt", got["filename"])
	assert.Len(t, got["content"], 64<<10)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	assert.IsIncreasing(t, progress)
}

func TestUploadTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	c := newTestClient(t, mux, WithUploadTimeout(50*time.Millisecond))

	env := c.Upload(context.Background(), "/api/upload", map[string]string{"a": "b"}, nil, nil)
	assert.Equal(t, "Upload timeout", env.Message)
}

func TestUploadOutlivesRequestTimeout(t *testing.T) {
	mux := http.NewServeMux()
	slow := func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
			writeEnvelope(w, http.StatusOK, true, "stored", nil)
		case <-r.Context().Done():
		}
	}
	mux.HandleFunc("/api/upload", slow)
	mux.HandleFunc("/api/slow", slow)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	// default http client: only the per-call budgets apply
	c, err := New(srv.URL, WithTimeout(100*time.Millisecond), WithUploadTimeout(2*time.Second))
	require.NoError(t, err)

	env := c.Upload(context.Background(), "/api/upload", map[string]string{"a": "b"}, nil, nil)
	assert.True(t, env.Success, env.Message)
	assert.Equal(t, "stored", env.Message)

	env = c.Do(context.Background(), http.MethodGet, "/api/slow", nil, nil)
	assert.False(t, env.Success)
	assert.Equal(t, 0, env.Status)
}

func TestDefaultClientHasNoGlobalTimeout(t *testing.T) {
	c, err := New("http://localhost:5500")
	require.NoError(t, err)
	assert.Zero(t, c.hc.Timeout)
	assert.Equal(t, defaultTimeout, c.timeout)
	assert.Equal(t, 30*time.Second, c.uploadTimeout)
}

func TestUploadNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)

	env := c.Upload(context.Background(), "/api/upload", nil, nil, nil)
	assert.Equal(t, "Network error occurred", env.Message)
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"":                                 "download",
		"attachment":                       "download",
		`attachment; filename="a b.pdf"`:   "a b.pdf",
		"attachment; filename=plain.txt":   "plain.txt",
		`inline; filename*=UTF-8''r%C3%A9`: "ré",
	}
	for in, want := range tests {
		assert.Equal(t, want, filename(in), fmt.Sprintf("%q", in))
	}
}
