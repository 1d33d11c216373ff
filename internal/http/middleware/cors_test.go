package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func aplicaCORS(t *testing.T, permitidas []string, origin string) http.Header {
	t.Helper()

	handler := CORS(permitidas)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	handler.ServeHTTP(rec, req)
	return rec.Header()
}

func TestCORSOrigemExataComCredenciais(t *testing.T) {
	h := aplicaCORS(t, []string{"https://painel.feira.local"}, "https://painel.feira.local")
	require.Equal(t, "https://painel.feira.local", h.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

func TestCORSCuringaTotalNaoLiberaCredenciais(t *testing.T) {
	h := aplicaCORS(t, []string{"*"}, "https://qualquer.example.com")

	// origem refletida, mas sem expor o cookie de refresh a qualquer página
	require.Equal(t, "https://qualquer.example.com", h.Get("Access-Control-Allow-Origin"))
	require.Empty(t, h.Get("Access-Control-Allow-Credentials"))
}

func TestCORSSubdominioCuringa(t *testing.T) {
	h := aplicaCORS(t, []string{"*.feira.local"}, "https://totem1.feira.local")
	require.Equal(t, "https://totem1.feira.local", h.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

func TestCORSOrigemNaoPermitida(t *testing.T) {
	h := aplicaCORS(t, []string{"https://painel.feira.local"}, "https://intruso.example.com")
	require.Empty(t, h.Get("Access-Control-Allow-Origin"))
}
