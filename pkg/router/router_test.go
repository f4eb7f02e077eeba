package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func mark(name string) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, name)
	}
}

func get(t *testing.T, r *Router, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestRouterDispatch(t *testing.T) {
	r := New()
	r.GET("/api/v1/things", mark("list"))
	r.POST("/api/v1/things", mark("create"))
	r.GET("/api/v1/things/*", mark("detail"))
	r.GET("/api/v1/things/*/parts", mark("parts"))

	t.Run("exact route", func(t *testing.T) {
		code, body := get(t, r, "/api/v1/things")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "list", body)
	})

	t.Run("wildcard route", func(t *testing.T) {
		code, body := get(t, r, "/api/v1/things/42")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "detail", body)
	})

	t.Run("most specific wildcard wins", func(t *testing.T) {
		code, body := get(t, r, "/api/v1/things/42/parts")
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "parts", body)
	})

	t.Run("method not allowed on known path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/things", nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("method not allowed on wildcard path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/things/42", nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		code, _ := get(t, r, "/api/v1/nothing")
		require.Equal(t, http.StatusNotFound, code)
	})
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		path, pattern string
		want          bool
	}{
		{"/a/b/c", "/a/*/c", true},
		{"/a/b/d", "/a/*/c", false},
		{"/a/b", "/a/*", true},
		{"/a/b/c", "/a/*", true},
		{"/a", "/a/*", false},
		{"/a/b/c", "/a/b/c", true},
		{"/a/b", "/a/b/c", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, matchPattern(tc.path, tc.pattern),
			"path %q pattern %q", tc.path, tc.pattern)
	}
}

func TestMount(t *testing.T) {
	r := New()
	r.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "metrics")
	}))

	code, body := get(t, r, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "metrics", body)
}

func TestRoutes(t *testing.T) {
	r := New()
	r.GET("/api/v1/things", mark("list"))
	r.GET("/api/v1/things/*", mark("detail"))

	require.Equal(t, []string{
		"GET /api/v1/things",
		"GET /api/v1/things/*",
	}, r.Routes())
}
