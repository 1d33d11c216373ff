package totem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feiratec/votacao/internal/util"
)

// Estado enumera as telas do fluxo do quiosque.
type Estado int

const (
	EstadoOcioso Estado = iota
	EstadoCapturando
	EstadoResolvendo
	EstadoCadastrando
	EstadoEscolhendoVoto
	EstadoVotando
	EstadoResultado
)

func (e Estado) String() string {
	switch e {
	case EstadoOcioso:
		return "ocioso"
	case EstadoCapturando:
		return "capturando"
	case EstadoResolvendo:
		return "resolvendo"
	case EstadoCadastrando:
		return "cadastrando"
	case EstadoEscolhendoVoto:
		return "escolhendo_voto"
	case EstadoVotando:
		return "votando"
	case EstadoResultado:
		return "resultado"
	default:
		return "desconhecido"
	}
}

var (
	// ErrOperacaoEmAndamento rejeita submissões enquanto outra chamada
	// deste controlador ainda está em voo.
	ErrOperacaoEmAndamento = errors.New("operação em andamento, aguarde")
	// ErrEstadoInvalido é devolvido quando a ação não cabe no estado atual.
	ErrEstadoInvalido = errors.New("ação não permitida neste estado")
	// ErrCadastroInvalido agrupa falhas de validação local do formulário.
	ErrCadastroInvalido = errors.New("dados do cadastro inválidos")
)

// Camera é a capacidade de captura do aparelho; devolve a amostra em base64.
type Camera interface {
	Capturar(ctx context.Context) (string, error)
}

// Resultado é a tela final do fluxo.
type Resultado struct {
	Sucesso  bool
	Mensagem string
}

// Controller é a máquina de estados de um quiosque. Cada aparelho físico
// tem a sua instância; todas falam com o mesmo backend.
type Controller struct {
	api          API
	camera       Camera
	resultadoTTL time.Duration

	mu             sync.Mutex
	estado         Estado
	emVoo          bool
	usuarioID      uuid.UUID
	amostra        string
	resultado      *Resultado
	resultadoTimer *time.Timer
}

// NewController cria o controlador em estado ocioso.
func NewController(api API, camera Camera, resultadoTTL time.Duration) *Controller {
	if resultadoTTL <= 0 {
		resultadoTTL = 5 * time.Second
	}
	return &Controller{api: api, camera: camera, resultadoTTL: resultadoTTL, estado: EstadoOcioso}
}

// Estado devolve o estado atual.
func (c *Controller) Estado() Estado {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estado
}

// Resultado devolve a tela final, quando o fluxo chegou nela.
func (c *Controller) Resultado() *Resultado {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultado
}

// IniciarCaptura sai do ocioso para a tela de câmera. Nenhuma chamada de
// rede acontece aqui.
func (c *Controller) IniciarCaptura() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.estado != EstadoOcioso {
		return ErrEstadoInvalido
	}
	c.estado = EstadoCapturando
	return nil
}

// CapturarEResolver tira a amostra da câmera e submete para identificação.
// Uma única chamada em voo por controlador; reentrância é rejeitada.
func (c *Controller) CapturarEResolver(ctx context.Context) error {
	c.mu.Lock()
	if c.estado != EstadoCapturando {
		c.mu.Unlock()
		return ErrEstadoInvalido
	}
	if c.emVoo {
		c.mu.Unlock()
		return ErrOperacaoEmAndamento
	}
	c.emVoo = true
	c.estado = EstadoResolvendo
	c.mu.Unlock()

	amostra, err := c.camera.Capturar(ctx)
	if err != nil {
		c.abortar(EstadoCapturando)
		return err
	}

	resolucao, err := c.api.VerificarRosto(ctx, amostra)
	if err != nil {
		c.abortar(EstadoCapturando)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.estado != EstadoResolvendo {
		// Encerrar chegou durante a chamada; resposta tardia é descartada.
		return nil
	}
	c.emVoo = false

	switch {
	case !resolucao.Encontrado:
		// amostra segue para o cadastro, sem nova captura
		c.amostra = amostra
		c.estado = EstadoCadastrando
	case resolucao.Usuario.JaVotou:
		c.exibirResultadoLocked(false, "você já realizou sua votação")
	default:
		c.usuarioID = resolucao.Usuario.ID
		c.estado = EstadoEscolhendoVoto
	}
	return nil
}

// Cadastrar valida o formulário localmente e registra o participante.
// Validação falha não gera chamada de rede.
func (c *Controller) Cadastrar(ctx context.Context, nome, cpf, telefone string, lgpdAceito bool) error {
	c.mu.Lock()
	if c.estado != EstadoCadastrando {
		c.mu.Unlock()
		return ErrEstadoInvalido
	}
	if c.emVoo {
		c.mu.Unlock()
		return ErrOperacaoEmAndamento
	}

	if err := validarCadastro(nome, cpf, telefone, lgpdAceito); err != nil {
		c.mu.Unlock()
		return err
	}

	c.emVoo = true
	amostra := c.amostra
	c.mu.Unlock()

	usuarioID, err := c.api.Cadastrar(ctx, Cadastro{
		Nome:       nome,
		CPF:        cpf,
		Telefone:   telefone,
		FaceImage:  amostra,
		LGPDAceito: lgpdAceito,
	})
	if err != nil {
		c.abortar(EstadoCadastrando)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.estado != EstadoCadastrando {
		return nil
	}
	c.emVoo = false
	c.usuarioID = usuarioID
	c.amostra = ""
	c.estado = EstadoEscolhendoVoto
	return nil
}

// Turmas lista o catálogo para a tela de escolha. Leitura pura, não muda
// o estado nem disputa o single-flight das submissões.
func (c *Controller) Turmas(ctx context.Context) ([]Turma, error) {
	c.mu.Lock()
	estado := c.estado
	c.mu.Unlock()

	if estado != EstadoEscolhendoVoto {
		return nil, ErrEstadoInvalido
	}
	return c.api.ListarTurmas(ctx)
}

// Votar submete o voto escolhido. A chamada nunca é repetida
// automaticamente: em rede instável, reenvio fica a cargo do operador,
// e o servidor responde conflito se o voto já entrou.
func (c *Controller) Votar(ctx context.Context, turmaID uuid.UUID) error {
	c.mu.Lock()
	if c.estado != EstadoEscolhendoVoto {
		c.mu.Unlock()
		return ErrEstadoInvalido
	}
	if c.emVoo {
		c.mu.Unlock()
		return ErrOperacaoEmAndamento
	}
	c.emVoo = true
	c.estado = EstadoVotando
	usuarioID := c.usuarioID
	c.mu.Unlock()

	err := c.api.Votar(ctx, usuarioID, turmaID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.estado != EstadoVotando {
		return nil
	}
	c.emVoo = false

	if err == nil {
		c.exibirResultadoLocked(true, "Voto registrado com sucesso!")
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Conflito() || apiErr.NaoEncontrado()) {
		// falha de negócio: o motivo do servidor vira a tela final
		c.exibirResultadoLocked(false, apiErr.Message)
		return nil
	}

	// transiente: permanece na escolha para o operador tentar de novo
	c.estado = EstadoEscolhendoVoto
	return err
}

// Encerrar volta ao ocioso imediatamente, cancelando o timer pendente da
// tela de resultado para o redirect velho não disparar depois.
func (c *Controller) Encerrar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voltarOciosoLocked()
}

func (c *Controller) exibirResultadoLocked(sucesso bool, mensagem string) {
	c.estado = EstadoResultado
	c.resultado = &Resultado{Sucesso: sucesso, Mensagem: mensagem}

	if c.resultadoTimer != nil {
		c.resultadoTimer.Stop()
	}
	c.resultadoTimer = time.AfterFunc(c.resultadoTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.estado == EstadoResultado {
			c.voltarOciosoLocked()
		}
	})
}

func (c *Controller) voltarOciosoLocked() {
	if c.resultadoTimer != nil {
		c.resultadoTimer.Stop()
		c.resultadoTimer = nil
	}
	c.estado = EstadoOcioso
	c.emVoo = false
	c.usuarioID = uuid.Nil
	c.amostra = ""
	c.resultado = nil
}

// abortar desfaz o single-flight e devolve o fluxo ao estado anterior
// após uma falha (inclusive cancelamento pelo operador).
func (c *Controller) abortar(retorno Estado) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emVoo = false
	if c.estado != EstadoOcioso {
		c.estado = retorno
	}
	log.Debug().Str("estado", c.estado.String()).Msg("totem: operação abortada")
}

func validarCadastro(nome, cpf, telefone string, lgpdAceito bool) error {
	if !lgpdAceito {
		return ErrCadastroInvalido
	}
	if err := util.RequireString(nome, "nome"); err != nil {
		return ErrCadastroInvalido
	}
	if _, err := util.ValidateCPF(cpf); err != nil {
		return ErrCadastroInvalido
	}
	if _, err := util.ValidateTelefone(telefone); err != nil {
		return ErrCadastroInvalido
	}
	return nil
}
