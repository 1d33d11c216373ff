package facematch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func novoServidor(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestVerificarComMatch(t *testing.T) {
	candidatoID := uuid.New()

	client := novoServidor(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/verify", r.URL.Path)

		var req verifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Zm90bw==", req.FaceImage)
		require.Len(t, req.Candidatos, 1)

		_ = json.NewEncoder(w).Encode(verifyResponse{
			Encontrado:  true,
			CandidatoID: candidatoID,
			Distancia:   0.35,
		})
	})

	match, err := client.Verificar(context.Background(), "Zm90bw==", []Candidato{
		{ID: candidatoID, FaceImage: "Zm90bw=="},
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	require.Equal(t, candidatoID, match.CandidatoID)
	require.InDelta(t, 0.35, match.Distancia, 0.001)
}

func TestVerificarSemMatch(t *testing.T) {
	client := novoServidor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(verifyResponse{Encontrado: false})
	})

	match, err := client.Verificar(context.Background(), "Zm90bw==", nil)
	require.NoError(t, err)
	require.Nil(t, match)
}

func TestVerificarSemRosto(t *testing.T) {
	client := novoServidor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(verifyResponse{SemRosto: true})
	})

	_, err := client.Verificar(context.Background(), "Zm90bw==", nil)
	require.ErrorIs(t, err, ErrSemRosto)
}

func TestVerificarServicoIndisponivel(t *testing.T) {
	client := novoServidor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Verificar(context.Background(), "Zm90bw==", nil)
	require.ErrorIs(t, err, ErrIndisponivel)
}

func TestVerificarRespostaCorrompida(t *testing.T) {
	client := novoServidor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("isto não é json"))
	})

	_, err := client.Verificar(context.Background(), "Zm90bw==", nil)
	require.ErrorIs(t, err, ErrIndisponivel)
}

func TestVerificarServidorForaDoAr(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = client.Verificar(context.Background(), "Zm90bw==", nil)
	require.ErrorIs(t, err, ErrIndisponivel)
}
