package votacao

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore guarda tudo em memória sob um único mutex. Implementa os
// mesmos contratos do PostgresStore; usado pelos testes.
type MemoryStore struct {
	mu            sync.Mutex
	participantes []*Participante
	turmas        []*Turma
	votos         []*Voto
	senhaHash     string
}

// NewMemoryStore cria um store vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CriarParticipante(ctx context.Context, params CriarParticipanteParams) (*Participante, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participantes {
		if p.CPF == params.CPF {
			return nil, ErrCPFDuplicado
		}
	}

	aceitoEm := params.LGPDAceitoEm
	p := &Participante{
		ID:           uuid.New(),
		Nome:         params.Nome,
		CPF:          params.CPF,
		Telefone:     params.Telefone,
		FaceImage:    params.FaceImage,
		LGPDAceito:   true,
		LGPDAceitoEm: &aceitoEm,
		CriadoEm:     time.Now(),
	}
	s.participantes = append(s.participantes, p)

	clone := *p
	return &clone, nil
}

func (s *MemoryStore) GetParticipante(ctx context.Context, id uuid.UUID) (*Participante, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findParticipante(id)
	if p == nil {
		return nil, ErrParticipanteNaoEncontrado
	}
	clone := *p
	return &clone, nil
}

func (s *MemoryStore) GetParticipantePorCPF(ctx context.Context, cpf string) (*Participante, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participantes {
		if p.CPF == cpf {
			clone := *p
			return &clone, nil
		}
	}
	return nil, ErrParticipanteNaoEncontrado
}

func (s *MemoryStore) ListarGaleria(ctx context.Context) ([]GaleriaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	galeria := make([]GaleriaItem, 0, len(s.participantes))
	for _, p := range s.participantes {
		galeria = append(galeria, GaleriaItem{ParticipanteID: p.ID, FaceImage: p.FaceImage})
	}
	return galeria, nil
}

func (s *MemoryStore) ListarTurmas(ctx context.Context) ([]Turma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turmas := make([]Turma, 0, len(s.turmas))
	for _, t := range s.turmas {
		turmas = append(turmas, *t)
	}
	return turmas, nil
}

func (s *MemoryStore) GetTurma(ctx context.Context, id uuid.UUID) (*Turma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTurma(id)
	if t == nil {
		return nil, ErrTurmaNaoEncontrada
	}
	clone := *t
	return &clone, nil
}

func (s *MemoryStore) RegistrarVoto(ctx context.Context, participanteID, turmaID uuid.UUID) (*Voto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findParticipante(participanteID)
	if p == nil {
		return nil, ErrParticipanteNaoEncontrado
	}
	if p.JaVotou {
		return nil, ErrJaVotou
	}

	t := s.findTurma(turmaID)
	if t == nil {
		return nil, ErrTurmaNaoEncontrada
	}

	voto := &Voto{
		ID:             uuid.New(),
		ParticipanteID: participanteID,
		TurmaID:        turmaID,
		CriadoEm:       time.Now(),
	}
	s.votos = append(s.votos, voto)
	p.JaVotou = true
	t.VotosCount++
	t.AtualizadoEm = voto.CriadoEm

	clone := *voto
	return &clone, nil
}

func (s *MemoryStore) CriarTurma(ctx context.Context, input TurmaInput) (*Turma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := &Turma{
		ID:            uuid.New(),
		NomeTurma:     input.NomeTurma,
		NomeProjeto:   input.NomeProjeto,
		NumeroBarraca: input.NumeroBarraca,
		FotoBase64:    input.FotoBase64,
		FotoURL:       input.FotoURL,
		CriadoEm:      now,
		AtualizadoEm:  now,
	}
	s.turmas = append(s.turmas, t)

	clone := *t
	return &clone, nil
}

func (s *MemoryStore) AtualizarTurma(ctx context.Context, id uuid.UUID, input TurmaInput) (*Turma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTurma(id)
	if t == nil {
		return nil, ErrTurmaNaoEncontrada
	}

	t.NomeTurma = input.NomeTurma
	t.NomeProjeto = input.NomeProjeto
	t.NumeroBarraca = input.NumeroBarraca
	t.FotoBase64 = input.FotoBase64
	if input.FotoURL != nil {
		t.FotoURL = input.FotoURL
	}
	t.AtualizadoEm = time.Now()

	clone := *t
	return &clone, nil
}

func (s *MemoryStore) RemoverTurma(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.turmas {
		if t.ID == id {
			if t.VotosCount > 0 {
				return ErrTurmaComVotos
			}
			s.turmas = append(s.turmas[:i], s.turmas[i+1:]...)
			return nil
		}
	}
	return ErrTurmaNaoEncontrada
}

func (s *MemoryStore) ResetarTudo(ctx context.Context) (*ResetResultado, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultado := &ResetResultado{
		Participantes: int64(len(s.participantes)),
		Votos:         int64(len(s.votos)),
		Turmas:        int64(len(s.turmas)),
	}
	s.participantes = nil
	s.votos = nil
	s.turmas = nil
	return resultado, nil
}

func (s *MemoryStore) ContagemPorTurma(ctx context.Context) ([]TurmaContagem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contagemPorTurmaLocked(), nil
}

func (s *MemoryStore) contagemPorTurmaLocked() []TurmaContagem {
	porTurma := make(map[uuid.UUID]int64, len(s.turmas))
	for _, v := range s.votos {
		porTurma[v.TurmaID]++
	}

	contagens := make([]TurmaContagem, 0, len(s.turmas))
	for _, t := range s.turmas {
		contagens = append(contagens, TurmaContagem{Turma: *t, Votos: porTurma[t.ID]})
	}

	// Mesma ordenação do SQL: votos desc, criação asc, id asc.
	sort.SliceStable(contagens, func(i, j int) bool {
		if contagens[i].Votos != contagens[j].Votos {
			return contagens[i].Votos > contagens[j].Votos
		}
		if !contagens[i].Turma.CriadoEm.Equal(contagens[j].Turma.CriadoEm) {
			return contagens[i].Turma.CriadoEm.Before(contagens[j].Turma.CriadoEm)
		}
		return contagens[i].Turma.ID.String() < contagens[j].Turma.ID.String()
	})

	return contagens
}

// Snapshot monta os agregados dos relatórios sob um único lock, com a
// mesma garantia da versão Postgres: todos os campos da mesma visão.
func (s *MemoryStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horarios := make([]time.Time, 0, len(s.votos))
	for _, v := range s.votos {
		horarios = append(horarios, v.CriadoEm)
	}

	return &Snapshot{
		TotalParticipantes: int64(len(s.participantes)),
		Contagens:          s.contagemPorTurmaLocked(),
		HorariosVotos:      horarios,
	}, nil
}

func (s *MemoryStore) GetSenhaAdmin(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.senhaHash == "" {
		return "", ErrSenhaNaoConfigurada
	}
	return s.senhaHash, nil
}

func (s *MemoryStore) DefinirSenhaAdmin(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.senhaHash = hash
	return nil
}

func (s *MemoryStore) SeedSenhaAdmin(ctx context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.senhaHash != "" {
		return false, nil
	}
	s.senhaHash = hash
	return true, nil
}

func (s *MemoryStore) findParticipante(id uuid.UUID) *Participante {
	for _, p := range s.participantes {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *MemoryStore) findTurma(id uuid.UUID) *Turma {
	for _, t := range s.turmas {
		if t.ID == id {
			return t
		}
	}
	return nil
}
