// Package totem implementa o controlador de fluxo dos quiosques da feira:
// a máquina de estados captura → resolução → cadastro-ou-voto → resultado
// e o cliente HTTP que conversa com a API de votação.
package totem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIError é uma falha reportada pelo servidor, com o envelope decodificado.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%d %s)", e.Message, e.Status, e.Code)
}

// Conflito indica violação de regra de negócio (já votou, CPF duplicado).
func (e *APIError) Conflito() bool { return e.Status == http.StatusConflict }

// NaoEncontrado indica estado local desatualizado (turma removida etc.).
func (e *APIError) NaoEncontrado() bool { return e.Status == http.StatusNotFound }

// Transiente indica falha de rede ou indisponibilidade; pode ser mostrada
// como "tente novamente", mas votos nunca são reenviados automaticamente.
func Transiente(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusServiceUnavailable
	}
	// erro sem envelope decodificável: rede, timeout, DNS
	return err != nil && !errors.Is(err, context.Canceled)
}

// Usuario é o participante visto pelo totem.
type Usuario struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"nome"`
	CPF      string    `json:"cpf"`
	Telefone string    `json:"telefone"`
	JaVotou  bool      `json:"ja_votou"`
}

// Resolucao é o resultado da identificação facial.
type Resolucao struct {
	Encontrado bool
	Usuario    *Usuario
}

// Turma é a entrada votável exibida na tela de escolha.
type Turma struct {
	ID            uuid.UUID `json:"id"`
	NomeTurma     string    `json:"nome_turma"`
	NomeProjeto   string    `json:"nome_projeto"`
	NumeroBarraca string    `json:"numero_barraca"`
	FotoBase64    string    `json:"foto_base64"`
	FotoURL       *string   `json:"foto_url,omitempty"`
}

// Cadastro são os dados coletados no formulário do totem.
type Cadastro struct {
	Nome       string
	CPF        string
	Telefone   string
	FaceImage  string
	LGPDAceito bool
}

// API é o que o controlador precisa do backend.
type API interface {
	VerificarRosto(ctx context.Context, faceImage string) (*Resolucao, error)
	Cadastrar(ctx context.Context, cadastro Cadastro) (uuid.UUID, error)
	ListarTurmas(ctx context.Context) ([]Turma, error)
	Votar(ctx context.Context, usuarioID, turmaID uuid.UUID) error
}

// Client fala com a API pública de votação.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient cria o cliente apontando para a API.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("totem: base url obrigatória")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}, baseURL: base}, nil
}

// VerificarRosto envia a amostra facial para identificação.
func (c *Client) VerificarRosto(ctx context.Context, faceImage string) (*Resolucao, error) {
	var data struct {
		Found   bool     `json:"found"`
		Usuario *Usuario `json:"usuario"`
	}
	if err := c.post(ctx, "/verify-face", map[string]string{"face_image": faceImage}, &data); err != nil {
		return nil, err
	}
	return &Resolucao{Encontrado: data.Found, Usuario: data.Usuario}, nil
}

// Cadastrar registra um novo participante e devolve seu id.
func (c *Client) Cadastrar(ctx context.Context, cadastro Cadastro) (uuid.UUID, error) {
	payload := map[string]any{
		"nome":        cadastro.Nome,
		"cpf":         cadastro.CPF,
		"telefone":    cadastro.Telefone,
		"face_image":  cadastro.FaceImage,
		"lgpd_aceito": cadastro.LGPDAceito,
	}

	var data struct {
		UsuarioID uuid.UUID `json:"usuario_id"`
	}
	if err := c.post(ctx, "/register", payload, &data); err != nil {
		return uuid.Nil, err
	}
	return data.UsuarioID, nil
}

// ListarTurmas busca o catálogo votável.
func (c *Client) ListarTurmas(ctx context.Context) ([]Turma, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/turmas", nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Turmas []Turma `json:"turmas"`
	}
	if err := c.do(req, &data); err != nil {
		return nil, err
	}
	return data.Turmas, nil
}

// Votar registra o voto. Nunca é repetido automaticamente.
func (c *Client) Votar(ctx context.Context, usuarioID, turmaID uuid.UUID) error {
	payload := map[string]string{
		"usuario_id": usuarioID.String(),
		"turma_id":   turmaID.String(),
	}
	return c.post(ctx, "/vote", payload, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		}
		return err
	}

	if envelope.Error != nil {
		return &APIError{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
	}

	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
