package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feiratec/votacao/internal/relatorio"
	"github.com/feiratec/votacao/internal/votacao"
)

const refreshCookieName = "admin_refresh"

// Handler expõe as rotas do painel administrativo.
type Handler struct {
	service    *Service
	relatorios *relatorio.Service
}

func NewHandler(service *Service, relatorios *relatorio.Service) *Handler {
	return &Handler{service: service, relatorios: relatorios}
}

// RegisterPublicRoutes registra as rotas de sessão, que não exigem token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
	r.Post("/logout", h.handleLogout)
}

// RegisterProtectedRoutes registra as rotas que ficam atrás do middleware
// de autenticação.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/turmas", h.handleListTurmas)
	r.Post("/turmas", h.handleCreateTurma)
	r.Put("/turmas/{id}", h.handleUpdateTurma)
	r.Delete("/turmas/{id}", h.handleDeleteTurma)

	r.Get("/results", h.handleResults)
	r.Get("/reports", h.handleReports)

	r.Post("/change-password", h.handleChangePassword)
	r.Delete("/reset-all", h.handleResetAll)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	sessao, err := h.service.Login(r.Context(), payload.Password)
	if err != nil {
		handleAdminError(w, err)
		return
	}

	setRefreshCookie(w, sessao)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": sessao.AccessToken,
		"token_type":   "Bearer",
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sessão expirada", nil)
		return
	}

	sessao, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		handleAdminError(w, err)
		return
	}

	setRefreshCookie(w, sessao)
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": sessao.AccessToken,
		"token_type":   "Bearer",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("falha ao revogar refresh token")
		}
	}

	clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "sessão encerrada"})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.service.AlterarSenha(r.Context(), payload.CurrentPassword, payload.NewPassword); err != nil {
		handleAdminError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Senha alterada com sucesso!"})
}

func (h *Handler) handleListTurmas(w http.ResponseWriter, r *http.Request) {
	turmas, err := h.service.ListarTurmas(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turmas)
}

func (h *Handler) handleCreateTurma(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeTurmaPayload(w, r)
	if !ok {
		return
	}

	turma, err := h.service.CriarTurma(r.Context(), input)
	if err != nil {
		handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, turma)
}

func (h *Handler) handleUpdateTurma(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	input, ok := decodeTurmaPayload(w, r)
	if !ok {
		return
	}

	turma, err := h.service.AtualizarTurma(r.Context(), id, input)
	if err != nil {
		handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turma)
}

func (h *Handler) handleDeleteTurma(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.service.RemoverTurma(r.Context(), id); err != nil {
		handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Turma removida com sucesso!"})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	resultados, err := h.relatorios.Resultados(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultados)
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	rel, err := h.relatorios.Relatorio(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (h *Handler) handleResetAll(w http.ResponseWriter, r *http.Request) {
	resultado, err := h.service.ResetarTudo(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Sistema reiniciado com sucesso!",
		"deleted": resultado,
	})
}

func decodeTurmaPayload(w http.ResponseWriter, r *http.Request) (votacao.TurmaInput, bool) {
	var payload struct {
		NomeTurma     string `json:"nome_turma"`
		NomeProjeto   string `json:"nome_projeto"`
		NumeroBarraca string `json:"numero_barraca"`
		FotoBase64    string `json:"foto_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return votacao.TurmaInput{}, false
	}

	return votacao.TurmaInput{
		NomeTurma:     payload.NomeTurma,
		NomeProjeto:   payload.NomeProjeto,
		NumeroBarraca: payload.NumeroBarraca,
		FotoBase64:    payload.FotoBase64,
	}, true
}

func setRefreshCookie(w http.ResponseWriter, sessao *Sessao) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    sessao.RefreshToken,
		Path:     "/api/admin",
		Expires:  sessao.RefreshExpira,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/admin",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSenhaIncorreta), errors.Is(err, ErrRefreshInvalido):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
	case errors.Is(err, ErrSenhaFraca), errors.Is(err, ErrTurmaInvalida):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, votacao.ErrTurmaNaoEncontrada):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, votacao.ErrTurmaComVotos):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("erro interno no painel")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}
