// Package relatorio calcula os placares e relatórios do painel. Tudo aqui é
// derivado dos registros de voto a cada chamada; nenhum agregado fica em
// cache para não divergir da fonte de verdade.
package relatorio

import (
	"context"
	"math"
	"time"

	"github.com/feiratec/votacao/internal/votacao"
)

// Fonte é o que o agregador precisa ler do armazenamento. Snapshot entrega
// os agregados do relatório numa única leitura consistente; leituras soltas
// deixariam o histograma divergir do próprio total quando um voto chega no
// meio da montagem.
type Fonte interface {
	ContagemPorTurma(ctx context.Context) ([]votacao.TurmaContagem, error)
	Snapshot(ctx context.Context) (*votacao.Snapshot, error)
}

// ResultadoTurma é uma linha do placar com percentual calculado.
type ResultadoTurma struct {
	Turma      votacao.Turma `json:"turma"`
	Votos      int64         `json:"votos"`
	Percentual float64       `json:"percentual"`
}

// Resultados é o placar completo ordenado por votos.
type Resultados struct {
	TotalVotos int64            `json:"total_votos"`
	Turmas     []ResultadoTurma `json:"turmas"`
}

// HorarioPico é a hora do dia com mais votos.
type HorarioPico struct {
	Hora       int   `json:"hora"`
	TotalVotos int64 `json:"total_votos"`
}

// Relatorio agrega os números exibidos na tela de relatórios do painel.
type Relatorio struct {
	TotalParticipantes int64                  `json:"total_usuarios"`
	TotalVotos         int64                  `json:"total_votos"`
	HorarioPico        *HorarioPico           `json:"horario_pico"`
	VotosPorHora       []votacao.HoraContagem `json:"votos_por_hora"`
	TopProjetos        []ResultadoTurma       `json:"top_projetos"`
}

// Service calcula visões derivadas sob demanda.
type Service struct {
	fonte Fonte
	loc   *time.Location
}

// NewService cria o agregador. loc define o fuso dos baldes horários;
// nil usa o fuso local do processo.
func NewService(fonte Fonte, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{fonte: fonte, loc: loc}
}

// Resultados devolve o placar ordenado por votos (desc), com empates
// resolvidos pela turma criada primeiro. Percentual de cada turma é zero
// quando ainda não há votos.
func (s *Service) Resultados(ctx context.Context) (*Resultados, error) {
	contagens, err := s.fonte.ContagemPorTurma(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range contagens {
		total += c.Votos
	}

	turmas := make([]ResultadoTurma, 0, len(contagens))
	for _, c := range contagens {
		turmas = append(turmas, ResultadoTurma{
			Turma:      c.Turma,
			Votos:      c.Votos,
			Percentual: percentual(c.Votos, total),
		})
	}

	return &Resultados{TotalVotos: total, Turmas: turmas}, nil
}

// Relatorio devolve totais, histograma horário, horário de pico e top 5,
// todos derivados do mesmo snapshot: o total sempre bate com a soma do
// histograma e com os votos do top.
func (s *Service) Relatorio(ctx context.Context) (*Relatorio, error) {
	snap, err := s.fonte.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// um timestamp por voto: o total sai da mesma lista do histograma
	totalVotos := int64(len(snap.HorariosVotos))
	porHora, pico := histogramaHorario(snap.HorariosVotos, s.loc)

	top := make([]ResultadoTurma, 0, len(snap.Contagens))
	for _, c := range snap.Contagens {
		top = append(top, ResultadoTurma{
			Turma:      c.Turma,
			Votos:      c.Votos,
			Percentual: percentual(c.Votos, totalVotos),
		})
	}
	if len(top) > 5 {
		top = top[:5]
	}

	return &Relatorio{
		TotalParticipantes: snap.TotalParticipantes,
		TotalVotos:         totalVotos,
		HorarioPico:        pico,
		VotosPorHora:       porHora,
		TopProjetos:        top,
	}, nil
}

// histogramaHorario agrupa votos por hora do dia (0-23). Só horas com pelo
// menos um voto entram, em ordem crescente; o pico é a hora com mais votos,
// vencendo a mais cedo em caso de empate.
func histogramaHorario(horarios []time.Time, loc *time.Location) ([]votacao.HoraContagem, *HorarioPico) {
	var baldes [24]int64
	for _, h := range horarios {
		baldes[h.In(loc).Hour()]++
	}

	var porHora []votacao.HoraContagem
	var pico *HorarioPico
	for hora := 0; hora < 24; hora++ {
		if baldes[hora] == 0 {
			continue
		}
		porHora = append(porHora, votacao.HoraContagem{Hora: hora, Votos: baldes[hora]})
		if pico == nil || baldes[hora] > pico.TotalVotos {
			pico = &HorarioPico{Hora: hora, TotalVotos: baldes[hora]}
		}
	}
	return porHora, pico
}

func percentual(votos, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(votos)/float64(total)*1000) / 10
}
