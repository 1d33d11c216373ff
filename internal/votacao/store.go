package votacao

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CriarParticipanteParams carrega os dados já validados de um cadastro.
type CriarParticipanteParams struct {
	Nome         string
	CPF          string
	Telefone     string
	FaceImage    string
	LGPDAceitoEm time.Time
}

// Store é o que o fluxo de votação dos totens precisa do armazenamento.
// PostgresStore e MemoryStore implementam este contrato (e os contratos
// dos pacotes admin e relatorio).
type Store interface {
	CriarParticipante(ctx context.Context, params CriarParticipanteParams) (*Participante, error)
	GetParticipante(ctx context.Context, id uuid.UUID) (*Participante, error)
	ListarGaleria(ctx context.Context) ([]GaleriaItem, error)
	ListarTurmas(ctx context.Context) ([]Turma, error)

	// RegistrarVoto é a seção crítica: verificar ja_votou, criar o voto,
	// marcar o participante e incrementar o contador da turma é uma única
	// operação atômica frente a chamadas concorrentes do mesmo participante.
	RegistrarVoto(ctx context.Context, participanteID, turmaID uuid.UUID) (*Voto, error)
}
