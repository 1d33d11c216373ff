package totem

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller executa uma função em intervalo fixo até ser parado. As telas de
// resultado do painel usam isso para atualizar a contagem sem push.
type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context) error

	once   sync.Once
	cancel context.CancelFunc
}

// NewPoller cria o poller; intervalo não positivo vira 5s.
func NewPoller(interval time.Duration, fn func(ctx context.Context) error) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{interval: interval, fn: fn}
}

// Start dispara o loop em goroutine própria. Chamadas repetidas são no-op.
func (p *Poller) Start(parent context.Context) {
	p.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		p.cancel = cancel
		go p.runLoop(ctx)
	})
}

// Stop encerra o loop; o tick em andamento ainda termina.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) runLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", p.interval).Msg("poller: loop iniciado")

	if err := p.fn(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("poller: primeira execução falhou")
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("poller: loop encerrado")
			return
		case <-ticker.C:
			if err := p.fn(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("poller: execução periódica falhou")
			}
		}
	}
}
