// Package admin concentra autenticação do operador, o CRUD de turmas e a
// limpeza total do sistema.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/feiratec/votacao/internal/auth"
	"github.com/feiratec/votacao/internal/storage"
	"github.com/feiratec/votacao/internal/util"
	"github.com/feiratec/votacao/internal/votacao"
)

var (
	// ErrSenhaIncorreta cobre login e troca de senha com credencial errada.
	ErrSenhaIncorreta = errors.New("senha incorreta")
	// ErrSenhaFraca indica nova senha abaixo do mínimo de 6 caracteres.
	ErrSenhaFraca = errors.New("a nova senha deve ter no mínimo 6 caracteres")
	// ErrRefreshInvalido indica refresh token desconhecido ou já rotacionado.
	ErrRefreshInvalido = errors.New("refresh token inválido")
	// ErrTurmaInvalida indica payload de turma com campos faltando.
	ErrTurmaInvalida = errors.New("dados da turma inválidos")
)

// Store é o que o painel precisa do armazenamento.
type Store interface {
	GetSenhaAdmin(ctx context.Context) (string, error)
	DefinirSenhaAdmin(ctx context.Context, hash string) error
	SeedSenhaAdmin(ctx context.Context, hash string) (bool, error)

	ListarTurmas(ctx context.Context) ([]votacao.Turma, error)
	CriarTurma(ctx context.Context, input votacao.TurmaInput) (*votacao.Turma, error)
	AtualizarTurma(ctx context.Context, id uuid.UUID, input votacao.TurmaInput) (*votacao.Turma, error)
	RemoverTurma(ctx context.Context, id uuid.UUID) error
	ResetarTudo(ctx context.Context) (*votacao.ResetResultado, error)
}

// Sessao é o par de credenciais emitido após login ou refresh.
type Sessao struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpira time.Time
}

// Service implementa o ciclo de vida administrativo.
type Service struct {
	store      Store
	jwt        *auth.JWTManager
	redis      *redis.Client
	uploader   storage.Uploader
	refreshTTL time.Duration
}

// NewService cria o serviço do painel. O uploader é opcional; sem ele a
// foto das turmas vive apenas no banco.
func NewService(store Store, jwt *auth.JWTManager, redisClient *redis.Client, uploader storage.Uploader, refreshTTL time.Duration) *Service {
	return &Service{store: store, jwt: jwt, redis: redisClient, uploader: uploader, refreshTTL: refreshTTL}
}

// SeedSenhaPadrao grava a senha padrão no primeiro start, se necessário.
// Starts seguintes não tocam na senha já configurada.
func SeedSenhaPadrao(ctx context.Context, store Store, senha string) error {
	hash, err := auth.Hash(senha)
	if err != nil {
		return err
	}

	criada, err := store.SeedSenhaAdmin(ctx, hash)
	if err != nil {
		return err
	}
	if criada {
		log.Info().Msg("senha administrativa inicializada com o valor padrão")
	}
	return nil
}

// Login valida a senha compartilhada e emite a sessão.
func (s *Service) Login(ctx context.Context, senha string) (*Sessao, error) {
	hash, err := s.store.GetSenhaAdmin(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := auth.Verify(senha, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSenhaIncorreta
	}

	return s.emitirSessao(ctx)
}

// Refresh rotaciona o refresh token: o antigo é consumido e um novo par é emitido.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*Sessao, error) {
	key := auth.RefreshRedisKey(auth.AudienceAdmin, auth.HashRefreshToken(rawToken))

	if err := s.redis.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalido
		}
		return nil, err
	}
	_ = s.redis.Del(ctx, key)

	return s.emitirSessao(ctx)
}

// Logout revoga o refresh token atual.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	key := auth.RefreshRedisKey(auth.AudienceAdmin, auth.HashRefreshToken(rawToken))
	return s.redis.Del(ctx, key).Err()
}

// AlterarSenha troca a senha compartilhada após validar a atual.
func (s *Service) AlterarSenha(ctx context.Context, atual, nova string) error {
	hash, err := s.store.GetSenhaAdmin(ctx)
	if err != nil {
		return err
	}

	ok, err := auth.Verify(atual, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSenhaIncorreta
	}

	if err := util.ValidatePassword(nova); err != nil {
		return ErrSenhaFraca
	}

	novoHash, err := auth.Hash(nova)
	if err != nil {
		return err
	}

	if err := s.store.DefinirSenhaAdmin(ctx, novoHash); err != nil {
		return err
	}

	log.Info().Msg("senha administrativa alterada")
	return nil
}

// ListarTurmas devolve o catálogo para o painel.
func (s *Service) ListarTurmas(ctx context.Context) ([]votacao.Turma, error) {
	return s.store.ListarTurmas(ctx)
}

// CriarTurma valida e insere uma turma; quando há storage configurado a
// foto também é publicada e a URL fica gravada junto.
func (s *Service) CriarTurma(ctx context.Context, input votacao.TurmaInput) (*votacao.Turma, error) {
	foto, err := validarTurma(&input)
	if err != nil {
		return nil, err
	}

	turma, err := s.store.CriarTurma(ctx, input)
	if err != nil {
		return nil, err
	}

	if url := s.publicarFoto(ctx, turma.ID, foto); url != "" {
		turma, err = s.store.AtualizarTurma(ctx, turma.ID, votacao.TurmaInput{
			NomeTurma:     turma.NomeTurma,
			NomeProjeto:   turma.NomeProjeto,
			NumeroBarraca: turma.NumeroBarraca,
			FotoBase64:    turma.FotoBase64,
			FotoURL:       &url,
		})
		if err != nil {
			return nil, err
		}
	}

	log.Info().Str("turma", turma.ID.String()).Str("nome", turma.NomeTurma).Msg("turma cadastrada")
	return turma, nil
}

// AtualizarTurma valida e edita uma turma existente.
func (s *Service) AtualizarTurma(ctx context.Context, id uuid.UUID, input votacao.TurmaInput) (*votacao.Turma, error) {
	foto, err := validarTurma(&input)
	if err != nil {
		return nil, err
	}

	if url := s.publicarFoto(ctx, id, foto); url != "" {
		input.FotoURL = &url
	}

	return s.store.AtualizarTurma(ctx, id, input)
}

// RemoverTurma apaga a turma; turmas com votos são recusadas.
func (s *Service) RemoverTurma(ctx context.Context, id uuid.UUID) error {
	return s.store.RemoverTurma(ctx, id)
}

// ResetarTudo apaga participantes, votos e turmas de uma vez.
func (s *Service) ResetarTudo(ctx context.Context) (*votacao.ResetResultado, error) {
	log.Warn().Msg("reset total solicitado: participantes, votos e turmas serão apagados")

	resultado, err := s.store.ResetarTudo(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("participantes", resultado.Participantes).
		Int64("votos", resultado.Votos).
		Int64("turmas", resultado.Turmas).
		Msg("reset concluído")
	return resultado, nil
}

func (s *Service) emitirSessao(ctx context.Context) (*Sessao, error) {
	access, _, err := s.jwt.GenerateAccessToken(auth.AudienceAdmin, auth.AudienceAdmin)
	if err != nil {
		return nil, err
	}

	raw, hashed, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	key := auth.RefreshRedisKey(auth.AudienceAdmin, hashed)
	if err := s.redis.Set(ctx, key, "1", s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &Sessao{
		AccessToken:   access,
		RefreshToken:  raw,
		RefreshExpira: time.Now().Add(s.refreshTTL),
	}, nil
}

// publicarFoto tenta subir a foto para o storage; falha vira log, não erro,
// porque o base64 no banco continua sendo a cópia canônica.
func (s *Service) publicarFoto(ctx context.Context, turmaID uuid.UUID, foto []byte) string {
	if s.uploader == nil || len(foto) == 0 {
		return ""
	}

	resultado, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:          storage.FotoTurmaKey(turmaID),
		Body:         foto,
		ContentType:  "image/jpeg",
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		log.Warn().Err(err).Str("turma", turmaID.String()).Msg("upload da foto falhou")
		return ""
	}
	return resultado.URL
}

func validarTurma(input *votacao.TurmaInput) ([]byte, error) {
	if err := util.RequireString(input.NomeTurma, "nome_turma"); err != nil {
		return nil, ErrTurmaInvalida
	}
	if err := util.RequireString(input.NomeProjeto, "nome_projeto"); err != nil {
		return nil, ErrTurmaInvalida
	}
	if err := util.RequireString(input.NumeroBarraca, "numero_barraca"); err != nil {
		return nil, ErrTurmaInvalida
	}

	foto, err := votacao.DecodeFaceImage(input.FotoBase64)
	if err != nil {
		return nil, ErrTurmaInvalida
	}
	return foto, nil
}
