package totem

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubCamera struct {
	amostra string
	err     error
}

func (c *stubCamera) Capturar(ctx context.Context) (string, error) {
	return c.amostra, c.err
}

type stubAPI struct {
	mu sync.Mutex

	resolucao   *Resolucao
	resolverErr error

	cadastroID   uuid.UUID
	cadastrarErr error
	cadastros    []Cadastro
	bloqueio     chan struct{}
	entrou       chan struct{}
	entrouOnce   sync.Once

	turmas []Turma

	votarErr       error
	votos          int
	votoBloqueio   chan struct{}
	votoEntrou     chan struct{}
	votoEntrouOnce sync.Once
}

func (a *stubAPI) VerificarRosto(ctx context.Context, faceImage string) (*Resolucao, error) {
	if a.resolverErr != nil {
		return nil, a.resolverErr
	}
	return a.resolucao, nil
}

func (a *stubAPI) Cadastrar(ctx context.Context, cadastro Cadastro) (uuid.UUID, error) {
	if a.entrou != nil {
		a.entrouOnce.Do(func() { close(a.entrou) })
	}
	if a.bloqueio != nil {
		<-a.bloqueio
	}
	a.mu.Lock()
	a.cadastros = append(a.cadastros, cadastro)
	a.mu.Unlock()
	if a.cadastrarErr != nil {
		return uuid.Nil, a.cadastrarErr
	}
	return a.cadastroID, nil
}

func (a *stubAPI) ListarTurmas(ctx context.Context) ([]Turma, error) {
	return a.turmas, nil
}

func (a *stubAPI) Votar(ctx context.Context, usuarioID, turmaID uuid.UUID) error {
	if a.votoEntrou != nil {
		a.votoEntrouOnce.Do(func() { close(a.votoEntrou) })
	}
	if a.votoBloqueio != nil {
		<-a.votoBloqueio
	}
	a.mu.Lock()
	a.votos++
	a.mu.Unlock()
	return a.votarErr
}

func (a *stubAPI) totalCadastros() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.cadastros)
}

const amostraTeste = "data:image/jpeg;base64,Zm90bw=="

func avancarParaCadastro(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))
	require.Equal(t, EstadoCadastrando, c.Estado())
}

func TestFluxoSemMatchVaiParaCadastro(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{Encontrado: false}, cadastroID: uuid.New()}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	require.Equal(t, EstadoOcioso, c.Estado())
	avancarParaCadastro(t, c)

	// a amostra capturada segue para o cadastro sem nova captura
	require.NoError(t, c.Cadastrar(context.Background(), "Maria Silva", "111.222.333-44", "92999990000", true))
	require.Equal(t, EstadoEscolhendoVoto, c.Estado())
	require.Equal(t, 1, api.totalCadastros())
	require.Equal(t, amostraTeste, api.cadastros[0].FaceImage)
}

func TestFluxoJaVotouEhTerminal(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{
		Encontrado: true,
		Usuario:    &Usuario{ID: uuid.New(), Nome: "Maria", JaVotou: true},
	}}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))

	require.Equal(t, EstadoResultado, c.Estado())
	resultado := c.Resultado()
	require.NotNil(t, resultado)
	require.False(t, resultado.Sucesso)
}

func TestFluxoCompletoDeVoto(t *testing.T) {
	usuario := &Usuario{ID: uuid.New(), Nome: "Maria", JaVotou: false}
	turma := Turma{ID: uuid.New(), NomeTurma: "3A"}
	api := &stubAPI{
		resolucao: &Resolucao{Encontrado: true, Usuario: usuario},
		turmas:    []Turma{turma},
	}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))
	require.Equal(t, EstadoEscolhendoVoto, c.Estado())

	turmas, err := c.Turmas(context.Background())
	require.NoError(t, err)
	require.Len(t, turmas, 1)

	require.NoError(t, c.Votar(context.Background(), turma.ID))
	require.Equal(t, EstadoResultado, c.Estado())
	require.True(t, c.Resultado().Sucesso)
	require.Equal(t, 1, api.votos)
}

func TestCadastroValidacaoLocalNaoChamaRede(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{Encontrado: false}}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)
	avancarParaCadastro(t, c)

	ctx := context.Background()
	require.ErrorIs(t, c.Cadastrar(ctx, "Maria", "11122233344", "92999990000", false), ErrCadastroInvalido)
	require.ErrorIs(t, c.Cadastrar(ctx, "", "11122233344", "92999990000", true), ErrCadastroInvalido)
	require.ErrorIs(t, c.Cadastrar(ctx, "Maria", "123", "92999990000", true), ErrCadastroInvalido)
	require.ErrorIs(t, c.Cadastrar(ctx, "Maria", "11122233344", "99", true), ErrCadastroInvalido)

	require.Zero(t, api.totalCadastros())
	require.Equal(t, EstadoCadastrando, c.Estado())
}

func TestCadastroDuplicadoEmVooRejeitado(t *testing.T) {
	api := &stubAPI{
		resolucao:  &Resolucao{Encontrado: false},
		cadastroID: uuid.New(),
		bloqueio:   make(chan struct{}),
		entrou:     make(chan struct{}),
	}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)
	avancarParaCadastro(t, c)

	done := make(chan error, 1)
	go func() {
		done <- c.Cadastrar(context.Background(), "Maria Silva", "11122233344", "92999990000", true)
	}()

	// espera a primeira chamada entrar em voo antes de tentar de novo
	<-api.entrou
	err := c.Cadastrar(context.Background(), "Maria Silva", "11122233344", "92999990000", true)
	require.ErrorIs(t, err, ErrOperacaoEmAndamento)

	close(api.bloqueio)
	require.NoError(t, <-done)
	require.Equal(t, 1, api.totalCadastros())
	require.Equal(t, EstadoEscolhendoVoto, c.Estado())
}

func TestAcoesForaDoEstado(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{Encontrado: false}}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	ctx := context.Background()
	require.ErrorIs(t, c.CapturarEResolver(ctx), ErrEstadoInvalido)
	require.ErrorIs(t, c.Cadastrar(ctx, "Maria", "11122233344", "92999990000", true), ErrEstadoInvalido)
	require.ErrorIs(t, c.Votar(ctx, uuid.New()), ErrEstadoInvalido)

	_, err := c.Turmas(ctx)
	require.ErrorIs(t, err, ErrEstadoInvalido)

	require.NoError(t, c.IniciarCaptura())
	require.ErrorIs(t, c.IniciarCaptura(), ErrEstadoInvalido)
}

func TestVotoConflitoViraResultadoFalha(t *testing.T) {
	usuario := &Usuario{ID: uuid.New(), JaVotou: false}
	api := &stubAPI{
		resolucao: &Resolucao{Encontrado: true, Usuario: usuario},
		votarErr:  &APIError{Status: 409, Code: "CONFLICT", Message: "você já realizou sua votação"},
	}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))
	require.NoError(t, c.Votar(context.Background(), uuid.New()))

	require.Equal(t, EstadoResultado, c.Estado())
	resultado := c.Resultado()
	require.False(t, resultado.Sucesso)
	require.Equal(t, "você já realizou sua votação", resultado.Mensagem)
}

func TestVotoTransienteNaoReenvia(t *testing.T) {
	usuario := &Usuario{ID: uuid.New(), JaVotou: false}
	api := &stubAPI{
		resolucao: &Resolucao{Encontrado: true, Usuario: usuario},
		votarErr:  errors.New("connection refused"),
	}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))

	err := c.Votar(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, Transiente(err))

	// nenhum reenvio automático: uma chamada só, operador decide repetir
	require.Equal(t, 1, api.votos)
	require.Equal(t, EstadoEscolhendoVoto, c.Estado())
}

func TestResultadoVoltaAoOciosoAposDelay(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{
		Encontrado: true,
		Usuario:    &Usuario{ID: uuid.New(), JaVotou: true},
	}}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, 20*time.Millisecond)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))
	require.Equal(t, EstadoResultado, c.Estado())

	require.Eventually(t, func() bool {
		return c.Estado() == EstadoOcioso
	}, time.Second, 5*time.Millisecond)
	require.Nil(t, c.Resultado())
}

func TestEncerrarCancelaTimerPendente(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{
		Encontrado: true,
		Usuario:    &Usuario{ID: uuid.New(), JaVotou: true},
	}}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, 30*time.Millisecond)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))
	require.Equal(t, EstadoResultado, c.Estado())

	// saída manual antes do timer; o fluxo seguinte não pode ser
	// interrompido por um redirect velho
	c.Encerrar()
	require.Equal(t, EstadoOcioso, c.Estado())

	require.NoError(t, c.IniciarCaptura())
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, EstadoCapturando, c.Estado())
}

func TestEncerrarDescartaRespostaTardiaDoVoto(t *testing.T) {
	usuario := &Usuario{ID: uuid.New(), JaVotou: false}
	api := &stubAPI{
		resolucao:    &Resolucao{Encontrado: true, Usuario: usuario},
		votoBloqueio: make(chan struct{}),
		votoEntrou:   make(chan struct{}),
	}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)

	require.NoError(t, c.IniciarCaptura())
	require.NoError(t, c.CapturarEResolver(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Votar(context.Background(), uuid.New()) }()

	// operador desiste com a chamada ainda em voo
	<-api.votoEntrou
	c.Encerrar()
	require.Equal(t, EstadoOcioso, c.Estado())

	close(api.votoBloqueio)
	require.NoError(t, <-done)

	// a resposta que chegou depois da saída não ressuscita o fluxo
	require.Equal(t, EstadoOcioso, c.Estado())
	require.Nil(t, c.Resultado())
}

func TestEncerrarDescartaRespostaTardiaDoCadastro(t *testing.T) {
	api := &stubAPI{
		resolucao:  &Resolucao{Encontrado: false},
		cadastroID: uuid.New(),
		bloqueio:   make(chan struct{}),
		entrou:     make(chan struct{}),
	}
	c := NewController(api, &stubCamera{amostra: amostraTeste}, time.Second)
	avancarParaCadastro(t, c)

	done := make(chan error, 1)
	go func() {
		done <- c.Cadastrar(context.Background(), "Maria Silva", "11122233344", "92999990000", true)
	}()

	<-api.entrou
	c.Encerrar()
	close(api.bloqueio)
	require.NoError(t, <-done)

	require.Equal(t, EstadoOcioso, c.Estado())
}

func TestFalhaDeCapturaVoltaParaCamera(t *testing.T) {
	api := &stubAPI{resolucao: &Resolucao{Encontrado: false}}
	camera := &stubCamera{err: errors.New("câmera indisponível")}
	c := NewController(api, camera, time.Second)

	require.NoError(t, c.IniciarCaptura())
	require.Error(t, c.CapturarEResolver(context.Background()))
	require.Equal(t, EstadoCapturando, c.Estado())

	// aparelho recuperado, o fluxo segue normalmente
	camera.err = nil
	camera.amostra = amostraTeste
	require.NoError(t, c.CapturarEResolver(context.Background()))
	require.Equal(t, EstadoCadastrando, c.Estado())
}
