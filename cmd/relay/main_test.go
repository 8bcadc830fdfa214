package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quicksquad-chat/internal/integrations/openai"
)

func TestNewRouter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>widget</html>"), 0o644))

	relayHits := 0
	relayHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayHits++
		_, _ = io.WriteString(w, `{"reply":"ok"}`)
	})
	srv := httptest.NewServer(newRouter(relayHandler, "/quicksquad-ai", dir))
	defer srv.Close()

	res, err := http.Post(srv.URL+"/quicksquad-ai", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, relayHits)

	res, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "widget")

	res, err = http.Get(srv.URL + "/quicksquad-ai")
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, 1, relayHits, "GET does not reach the relay")
}

func TestNewRouter_NoStaticDir(t *testing.T) {
	srv := httptest.NewServer(newRouter(http.NotFoundHandler(), "/quicksquad-ai", ""))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestNewRouter_Preflight(t *testing.T) {
	srv := httptest.NewServer(newRouter(http.NotFoundHandler(), "/quicksquad-ai", ""))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/quicksquad-ai", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.Equal(t, "https://shop.example", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestKeySource_PrefersExplicitKey(t *testing.T) {
	keys, err := keySource(context.Background(), "sk-env", "/quicksquad")
	require.NoError(t, err)
	require.Equal(t, openai.StaticKey("sk-env"), keys)

	keys, err = keySource(context.Background(), "", "")
	require.NoError(t, err)
	k, err := keys.APIKey(context.Background())
	require.NoError(t, err)
	require.Empty(t, k)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("QS_TEST_INT", "42")
	t.Setenv("QS_TEST_BAD", "x")
	t.Setenv("QS_TEST_STR", "  value ")
	require.Equal(t, 42, envInt("QS_TEST_INT", 1))
	require.Equal(t, 1, envInt("QS_TEST_BAD", 1))
	require.Equal(t, 7, envInt("QS_TEST_UNSET", 7))
	require.Equal(t, "value", envString("QS_TEST_STR", "d"))
	require.Equal(t, "d", envString("QS_TEST_UNSET", "d"))
}
