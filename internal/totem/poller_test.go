package totem

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollerExecutaEPara(t *testing.T) {
	var execucoes atomic.Int64
	p := NewPoller(10*time.Millisecond, func(ctx context.Context) error {
		execucoes.Add(1)
		return nil
	})

	p.Start(context.Background())

	require.Eventually(t, func() bool {
		return execucoes.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	// deixa um tick em andamento terminar antes de congelar a contagem
	time.Sleep(30 * time.Millisecond)
	depois := execucoes.Load()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, depois, execucoes.Load())
}

func TestPollerStartRepetidoEhNoOp(t *testing.T) {
	var execucoes atomic.Int64
	p := NewPoller(5*time.Millisecond, func(ctx context.Context) error {
		execucoes.Add(1)
		return nil
	})
	defer p.Stop()

	p.Start(context.Background())
	p.Start(context.Background())

	require.Eventually(t, func() bool {
		return execucoes.Load() >= 2
	}, time.Second, time.Millisecond)
}
