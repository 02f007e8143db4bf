package infra

import (
	"context"
	"time"
)

// Sweeper é qualquer store que sabe liberar estado vencido.
type Sweeper interface {
	Cleanup()
}

// StartJanitor inicia uma goroutine que chama Cleanup em todas as stores a cada `every`.
// Pare cancelando o contexto. Com every <= 0 não faz nada.
func StartJanitor(ctx context.Context, every time.Duration, sweepers ...Sweeper) {
	if every <= 0 || len(sweepers) == 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				Sweep(sweepers...)
			}
		}
	}()
}

// Sweep roda uma varredura síncrona.
func Sweep(sweepers ...Sweeper) {
	for _, s := range sweepers {
		if s != nil {
			s.Cleanup()
		}
	}
}
