package votacao

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feiratec/votacao/internal/facematch"
	"github.com/feiratec/votacao/internal/util"
)

// Service contém as regras do fluxo de identificação, cadastro e voto.
type Service struct {
	store   Store
	matcher facematch.Matcher
}

// NewService cria o serviço de votação.
func NewService(store Store, matcher facematch.Matcher) *Service {
	return &Service{store: store, matcher: matcher}
}

// ResolucaoRosto é o resultado da identificação por captura facial. O campo
// JaVotou do participante é informativo para o totem: a barreira real contra
// voto duplicado é a seção crítica do RegistrarVoto.
type ResolucaoRosto struct {
	Encontrado   bool
	Participante *Participante
}

// ResolverRosto compara a amostra capturada com a galeria de cadastrados.
func (s *Service) ResolverRosto(ctx context.Context, faceImage string) (*ResolucaoRosto, error) {
	if _, err := DecodeFaceImage(faceImage); err != nil {
		return nil, ErrImagemInvalida
	}

	galeria, err := s.store.ListarGaleria(ctx)
	if err != nil {
		return nil, err
	}
	if len(galeria) == 0 {
		return &ResolucaoRosto{Encontrado: false}, nil
	}

	candidatos := make([]facematch.Candidato, 0, len(galeria))
	for _, item := range galeria {
		candidatos = append(candidatos, facematch.Candidato{ID: item.ParticipanteID, FaceImage: item.FaceImage})
	}

	match, err := s.matcher.Verificar(ctx, faceImage, candidatos)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return &ResolucaoRosto{Encontrado: false}, nil
	}

	participante, err := s.store.GetParticipante(ctx, match.CandidatoID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("participante", participante.ID.String()).Float64("distancia", match.Distancia).Msg("rosto reconhecido")
	return &ResolucaoRosto{Encontrado: true, Participante: participante}, nil
}

// Cadastrar valida e registra um novo participante. O aceite LGPD é
// verificado aqui, no servidor: o formulário do totem não é confiável.
func (s *Service) Cadastrar(ctx context.Context, input CadastroInput) (*Participante, error) {
	if !input.LGPDAceito {
		return nil, ErrLGPDObrigatorio
	}
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, ErrNomeObrigatorio
	}

	cpf, err := util.ValidateCPF(input.CPF)
	if err != nil {
		return nil, ErrCPFInvalido
	}

	telefone, err := util.ValidateTelefone(input.Telefone)
	if err != nil {
		return nil, ErrTelefoneInvalido
	}

	if _, err := DecodeFaceImage(input.FaceImage); err != nil {
		return nil, ErrImagemInvalida
	}

	participante, err := s.store.CriarParticipante(ctx, CriarParticipanteParams{
		Nome:         strings.TrimSpace(input.Nome),
		CPF:          cpf,
		Telefone:     telefone,
		FaceImage:    input.FaceImage,
		LGPDAceitoEm: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("participante", participante.ID.String()).Msg("participante cadastrado")
	return participante, nil
}

// Votar registra o voto único do participante na turma escolhida.
func (s *Service) Votar(ctx context.Context, participanteID, turmaID uuid.UUID) (*Voto, error) {
	voto, err := s.store.RegistrarVoto(ctx, participanteID, turmaID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("participante", participanteID.String()).
		Str("turma", turmaID.String()).
		Msg("voto registrado")
	return voto, nil
}

// ListarTurmas devolve o catálogo para a tela de escolha do totem.
func (s *Service) ListarTurmas(ctx context.Context) ([]Turma, error) {
	return s.store.ListarTurmas(ctx)
}

// DecodeFaceImage valida o payload base64 de uma foto, aceitando o prefixo
// data-URL que as câmeras dos totens enviam.
func DecodeFaceImage(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if idx := strings.IndexByte(payload, ','); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, ErrImagemInvalida
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrImagemInvalida
	}
	return raw, nil
}
