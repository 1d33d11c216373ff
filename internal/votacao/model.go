package votacao

import (
	"time"

	"github.com/google/uuid"
)

// Participante é o visitante cadastrado pelo rosto na feira.
type Participante struct {
	ID           uuid.UUID  `json:"id"`
	Nome         string     `json:"nome"`
	CPF          string     `json:"cpf"`
	Telefone     string     `json:"telefone"`
	FaceImage    string     `json:"-"`
	LGPDAceito   bool       `json:"lgpd_aceito"`
	LGPDAceitoEm *time.Time `json:"lgpd_aceito_em,omitempty"`
	JaVotou      bool       `json:"ja_votou"`
	CriadoEm     time.Time  `json:"criado_em"`
}

// Turma é uma entrada votável do catálogo (equipe + projeto + barraca).
type Turma struct {
	ID            uuid.UUID `json:"id"`
	NomeTurma     string    `json:"nome_turma"`
	NomeProjeto   string    `json:"nome_projeto"`
	NumeroBarraca string    `json:"numero_barraca"`
	FotoBase64    string    `json:"foto_base64"`
	FotoURL       *string   `json:"foto_url,omitempty"`
	VotosCount    int       `json:"votos_count"`
	CriadoEm      time.Time `json:"criado_em"`
	AtualizadoEm  time.Time `json:"atualizado_em"`
}

// Voto vincula um participante a uma turma. Um por participante, sempre.
type Voto struct {
	ID             uuid.UUID `json:"id"`
	ParticipanteID uuid.UUID `json:"participante_id"`
	TurmaID        uuid.UUID `json:"turma_id"`
	CriadoEm       time.Time `json:"criado_em"`
}

// CadastroInput são os dados brutos vindos do totem de cadastro.
type CadastroInput struct {
	Nome       string
	CPF        string
	Telefone   string
	FaceImage  string
	LGPDAceito bool
}

// TurmaInput são os campos editáveis de uma turma.
type TurmaInput struct {
	NomeTurma     string
	NomeProjeto   string
	NumeroBarraca string
	FotoBase64    string
	FotoURL       *string
}

// GaleriaItem é uma foto cadastrada usada como candidata na comparação facial.
type GaleriaItem struct {
	ParticipanteID uuid.UUID
	FaceImage      string
}

// TurmaContagem agrega uma turma à contagem real de votos (derivada dos
// registros de voto, nunca de contadores cacheados).
type TurmaContagem struct {
	Turma Turma
	Votos int64
}

// HoraContagem é um balde do histograma de votos por hora do dia (0-23).
type HoraContagem struct {
	Hora  int
	Votos int64
}

// Snapshot é a leitura agregada dos relatórios. Todos os campos vêm da
// mesma visão dos dados: um voto que chega no meio da leitura entra em
// todos os campos ou em nenhum, nunca em parte deles.
type Snapshot struct {
	TotalParticipantes int64
	Contagens          []TurmaContagem
	HorariosVotos      []time.Time
}

// ResetResultado reporta quantos registros a limpeza total removeu.
type ResetResultado struct {
	Participantes int64 `json:"participantes"`
	Votos         int64 `json:"votos"`
	Turmas        int64 `json:"turmas"`
}
