package totem

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func servidorAPI(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	return client
}

func envelope(data any) map[string]any {
	return map[string]any{"data": data, "error": nil}
}

func envelopeErro(code, message string) map[string]any {
	return map[string]any{
		"data":  nil,
		"error": map[string]string{"code": code, "message": message},
	}
}

func TestClientVerificarRosto(t *testing.T) {
	usuarioID := uuid.New()
	client := servidorAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/verify-face", r.URL.Path)
		_ = json.NewEncoder(w).Encode(envelope(map[string]any{
			"found":   true,
			"usuario": map[string]any{"id": usuarioID, "nome": "Maria", "ja_votou": false},
		}))
	}))

	resolucao, err := client.VerificarRosto(context.Background(), "Zm90bw==")
	require.NoError(t, err)
	require.True(t, resolucao.Encontrado)
	require.Equal(t, usuarioID, resolucao.Usuario.ID)
	require.False(t, resolucao.Usuario.JaVotou)
}

func TestClientCadastrar(t *testing.T) {
	usuarioID := uuid.New()
	client := servidorAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, true, payload["lgpd_aceito"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(envelope(map[string]any{"usuario_id": usuarioID}))
	}))

	id, err := client.Cadastrar(context.Background(), Cadastro{
		Nome: "Maria Silva", CPF: "11122233344", Telefone: "92999990000",
		FaceImage: "Zm90bw==", LGPDAceito: true,
	})
	require.NoError(t, err)
	require.Equal(t, usuarioID, id)
}

func TestClientVotarConflito(t *testing.T) {
	client := servidorAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(envelopeErro("CONFLICT", "você já realizou sua votação"))
	}))

	err := client.Votar(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.True(t, apiErr.Conflito())
	require.Equal(t, "você já realizou sua votação", apiErr.Message)
	require.False(t, Transiente(err))
}

func TestClientErroTransiente(t *testing.T) {
	client := servidorAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(envelopeErro("UNAVAILABLE", "serviço de reconhecimento indisponível"))
	}))

	_, err := client.VerificarRosto(context.Background(), "Zm90bw==")
	require.Error(t, err)
	require.True(t, Transiente(err))
}

func TestClientListarTurmas(t *testing.T) {
	turmaID := uuid.New()
	client := servidorAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/turmas", r.URL.Path)
		_ = json.NewEncoder(w).Encode(envelope(map[string]any{
			"turmas": []map[string]any{{"id": turmaID, "nome_turma": "3A", "nome_projeto": "Horta"}},
		}))
	}))

	turmas, err := client.ListarTurmas(context.Background())
	require.NoError(t, err)
	require.Len(t, turmas, 1)
	require.Equal(t, turmaID, turmas[0].ID)
}
