package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/feiratec/votacao/internal/relatorio"
	"github.com/feiratec/votacao/internal/votacao"
)

func TestAdminHandlers(t *testing.T) {
	ctx := context.Background()
	store := votacao.NewMemoryStore()
	if err := SeedSenhaPadrao(ctx, store, "fucapi2026"); err != nil {
		t.Fatalf("seed senha: %v", err)
	}

	svc := novoService(t, store, nil)
	handler := NewHandler(svc, relatorio.NewService(store, time.UTC))

	turma, err := svc.CriarTurma(ctx, turmaValida())
	if err != nil {
		t.Fatalf("seed turma: %v", err)
	}

	comVotos, err := svc.CriarTurma(ctx, turmaValida())
	if err != nil {
		t.Fatalf("seed turma: %v", err)
	}
	p, err := store.CriarParticipante(ctx, votacao.CriarParticipanteParams{
		Nome: "Maria Silva", CPF: "11122233344", Telefone: "92999990000",
		FaceImage: "Zm90bw==", LGPDAceitoEm: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed participante: %v", err)
	}
	if _, err := store.RegistrarVoto(ctx, p.ID, comVotos.ID); err != nil {
		t.Fatalf("seed voto: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"login senha errada", http.MethodPost, "/login", map[string]string{"password": "errada"}, http.StatusUnauthorized},
		{"refresh sem cookie", http.MethodPost, "/refresh", nil, http.StatusUnauthorized},
		{"turmas", http.MethodGet, "/turmas", nil, http.StatusOK},
		{"criar turma", http.MethodPost, "/turmas", map[string]string{
			"nome_turma": "3C", "nome_projeto": "Robô Reciclador", "numero_barraca": "09", "foto_base64": "Zm90bw==",
		}, http.StatusCreated},
		{"criar turma incompleta", http.MethodPost, "/turmas", map[string]string{"nome_turma": "3D"}, http.StatusBadRequest},
		{"atualizar turma", http.MethodPut, "/turmas/" + turma.ID.String(), map[string]string{
			"nome_turma": "3A", "nome_projeto": "Horta 2.0", "numero_barraca": "07", "foto_base64": "Zm90bw==",
		}, http.StatusOK},
		{"atualizar turma desconhecida", http.MethodPut, "/turmas/00000000-0000-0000-0000-000000000001", map[string]string{
			"nome_turma": "3A", "nome_projeto": "Horta 2.0", "numero_barraca": "07", "foto_base64": "Zm90bw==",
		}, http.StatusNotFound},
		{"remover turma com votos", http.MethodDelete, "/turmas/" + comVotos.ID.String(), nil, http.StatusConflict},
		{"remover turma", http.MethodDelete, "/turmas/" + turma.ID.String(), nil, http.StatusOK},
		{"results", http.MethodGet, "/results", nil, http.StatusOK},
		{"reports", http.MethodGet, "/reports", nil, http.StatusOK},
		{"senha atual errada", http.MethodPost, "/change-password", map[string]string{
			"current_password": "errada", "new_password": "nova-senha",
		}, http.StatusUnauthorized},
		{"senha nova fraca", http.MethodPost, "/change-password", map[string]string{
			"current_password": "fucapi2026", "new_password": "curta",
		}, http.StatusBadRequest},
		{"trocar senha", http.MethodPost, "/change-password", map[string]string{
			"current_password": "fucapi2026", "new_password": "nova-senha",
		}, http.StatusOK},
		{"reset-all", http.MethodDelete, "/reset-all", nil, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterPublicRoutes(r)
			handler.RegisterProtectedRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}
