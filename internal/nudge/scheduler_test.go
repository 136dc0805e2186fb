//go:build unit

package nudge_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"usdt-exchange-bot/internal/nudge"
	"usdt-exchange-bot/internal/pkg/clock"
)

func TestScheduler_TicksUntilCancelled(t *testing.T) {
	t.Parallel()

	rec := &callRecorder{}
	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(rec)
	sender := &mockSender{}

	engine := testEngine(t, store, &mockStatusSource{}, sender, clk)
	sched := nudge.NewScheduler(engine, 5*time.Millisecond, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	assert.Eventually(t, func() bool {
		// Seven scans per tick; more than seven find_due calls proves a
		// second tick ran.
		count := 0
		for _, call := range rec.log() {
			if call == "find_due" {
				count++
			}
		}
		return count > 7
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	waited := make(chan struct{})
	go func() {
		sched.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
