// Package facematch consome o serviço externo de reconhecimento facial.
// O algoritmo de comparação é uma capacidade externa; aqui só existe o
// cliente HTTP e o contrato de entrada/saída.
package facematch

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

var (
	// ErrSemRosto indica que nenhum rosto foi detectado na amostra enviada.
	ErrSemRosto = errors.New("nenhum rosto detectado na imagem")
	// ErrIndisponivel indica falha de comunicação com o serviço de comparação.
	ErrIndisponivel = errors.New("serviço de reconhecimento facial indisponível")
)

// Candidato é uma entrada da galeria enviada para comparação.
type Candidato struct {
	ID        uuid.UUID `json:"id"`
	FaceImage string    `json:"face_image"`
}

// Match descreve o melhor candidato aceito pelo serviço.
type Match struct {
	CandidatoID uuid.UUID `json:"candidato_id"`
	Distancia   float64   `json:"distancia"`
}

// Matcher abstrai o serviço de comparação para os testes.
type Matcher interface {
	// Verificar devolve o melhor match ou nil quando nenhum candidato passa
	// do limiar. ErrSemRosto quando a amostra não contém rosto detectável.
	Verificar(ctx context.Context, faceImage string, candidatos []Candidato) (*Match, error)
}

// Client encapsula chamadas ao serviço de comparação facial.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config descreve os parâmetros essenciais do cliente.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New cria um cliente apontando para o serviço configurado.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("facematch: base url obrigatória")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{httpClient: client, baseURL: base}, nil
}

type verifyRequest struct {
	FaceImage  string      `json:"face_image"`
	Candidatos []Candidato `json:"candidatos"`
}

type verifyResponse struct {
	Encontrado  bool      `json:"encontrado"`
	SemRosto    bool      `json:"sem_rosto"`
	CandidatoID uuid.UUID `json:"candidato_id"`
	Distancia   float64   `json:"distancia"`
}

// Verificar envia a amostra e a galeria de candidatos para o serviço.
func (c *Client) Verificar(ctx context.Context, faceImage string, candidatos []Candidato) (*Match, error) {
	payload, err := json.Marshal(verifyRequest{FaceImage: faceImage, Candidatos: candidatos})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndisponivel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrIndisponivel, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: resposta inválida", ErrIndisponivel)
	}

	if body.SemRosto {
		return nil, ErrSemRosto
	}
	if !body.Encontrado {
		return nil, nil
	}

	return &Match{CandidatoID: body.CandidatoID, Distancia: body.Distancia}, nil
}
