package votacao

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feiratec/votacao/internal/facematch"
)

// Handler expõe as rotas públicas consumidas pelos totens.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Post("/verify-face", h.handleVerifyFace)
	r.Post("/register", h.handleRegister)
	r.Get("/turmas", h.handleListTurmas)
	r.Post("/vote", h.handleVote)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API de Votação - Feira Tecnológica"})
}

func (h *Handler) handleVerifyFace(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FaceImage string `json:"face_image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	resolucao, err := h.service.ResolverRosto(r.Context(), payload.FaceImage)
	if err != nil {
		handleVotacaoError(w, err)
		return
	}

	if !resolucao.Encontrado {
		writeJSON(w, http.StatusOK, map[string]any{"found": false, "message": "Rosto não encontrado"})
		return
	}

	p := resolucao.Participante
	writeJSON(w, http.StatusOK, map[string]any{
		"found": true,
		"usuario": map[string]any{
			"id":       p.ID,
			"nome":     p.Nome,
			"cpf":      p.CPF,
			"telefone": p.Telefone,
			"ja_votou": p.JaVotou,
		},
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome       string `json:"nome"`
		CPF        string `json:"cpf"`
		Telefone   string `json:"telefone"`
		FaceImage  string `json:"face_image"`
		LGPDAceito bool   `json:"lgpd_aceito"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	participante, err := h.service.Cadastrar(r.Context(), CadastroInput{
		Nome:       payload.Nome,
		CPF:        payload.CPF,
		Telefone:   payload.Telefone,
		FaceImage:  payload.FaceImage,
		LGPDAceito: payload.LGPDAceito,
	})
	if err != nil {
		handleVotacaoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"usuario_id": participante.ID,
		"message":    "Usuário cadastrado com sucesso",
	})
}

func (h *Handler) handleListTurmas(w http.ResponseWriter, r *http.Request) {
	turmas, err := h.service.ListarTurmas(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if turmas == nil {
		turmas = []Turma{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turmas": turmas})
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UsuarioID string `json:"usuario_id"`
		TurmaID   string `json:"turma_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	participanteID, err := uuid.Parse(payload.UsuarioID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "usuario_id inválido", nil)
		return
	}
	turmaID, err := uuid.Parse(payload.TurmaID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "turma_id inválido", nil)
		return
	}

	if _, err := h.service.Votar(r.Context(), participanteID, turmaID); err != nil {
		handleVotacaoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Voto registrado com sucesso!"})
}

// handleVotacaoError mapeia os erros de domínio para o envelope HTTP.
func handleVotacaoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrJaVotou), errors.Is(err, ErrCPFDuplicado):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrParticipanteNaoEncontrado), errors.Is(err, ErrTurmaNaoEncontrada):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrCPFInvalido), errors.Is(err, ErrNomeObrigatorio),
		errors.Is(err, ErrTelefoneInvalido), errors.Is(err, ErrLGPDObrigatorio),
		errors.Is(err, ErrImagemInvalida):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, facematch.ErrSemRosto):
		writeError(w, http.StatusBadRequest, "VALIDATION",
			"Nenhum rosto detectado. Posicione seu rosto na moldura e tente novamente.", nil)
	case errors.Is(err, facematch.ErrIndisponivel):
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
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
	log.Error().Err(err).Msg("erro interno na votação")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}
