package nudge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/clock"
)

const evaluateTimeout = 15 * time.Second

// Engine runs the seven campaign scans. Ordering contract: a candidate is
// claimed in storage before its message leaves the process, so a crashed or
// racing worker can lose a message but never duplicate one.
type Engine struct {
	env      Env
	policies []Policy
	sender   messenger.Sender
	clock    clock.Clock
	limit    int32
	log      *slog.Logger
}

func NewEngine(env Env, sender messenger.Sender, clk clock.Clock, batchLimit int32, log *slog.Logger) *Engine {
	return &Engine{
		env:      env,
		policies: Policies(),
		sender:   sender,
		clock:    clk,
		limit:    batchLimit,
		log:      log.With("component", "nudge_engine"),
	}
}

// Tick runs every campaign scan once, sequentially. A failing scan never
// stops the remaining ones.
func (e *Engine) Tick(ctx context.Context) {
	for _, p := range e.policies {
		if ctx.Err() != nil {
			return
		}
		e.runScan(ctx, p)
	}
}

func (e *Engine) runScan(ctx context.Context, p Policy) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("campaign scan panicked",
				"campaign", int(p.Campaign), "panic", fmt.Sprint(r))
		}
	}()

	now := e.clock.Now()
	candidates, err := e.env.Store.FindDue(ctx, p.Campaign, now, e.limit)
	if err != nil {
		e.log.Error("campaign scan query failed",
			"campaign", int(p.Campaign), "error", err)
		return
	}

	for _, c := range candidates {
		if ctx.Err() != nil {
			return
		}
		e.processCandidate(ctx, p, c)
	}
}

// processCandidate decides, claims, then sends. Evaluation errors (mostly
// transient CRM trouble) leave the candidate untouched for the next tick.
func (e *Engine) processCandidate(ctx context.Context, p Policy, c Candidate) {
	evalCtx, cancel := context.WithTimeout(ctx, evaluateTimeout)
	decision, err := p.Evaluate(evalCtx, e.env, c)
	cancel()
	if err != nil {
		e.log.Warn("candidate evaluation deferred",
			"campaign", int(p.Campaign), "candidate_id", c.ID, "error", err)
		return
	}

	now := e.clock.Now()

	if decision.Skipped() {
		if _, err := e.env.Store.MarkSkipped(ctx, p.Campaign, c.ID, decision.Sentinel, now); err != nil {
			e.log.Error("candidate skip failed",
				"campaign", int(p.Campaign), "candidate_id", c.ID, "error", err)
		}
		return
	}

	claimed, err := e.env.Store.MarkSent(ctx, p.Campaign, c.ID, now)
	if err != nil {
		e.log.Error("candidate claim failed",
			"campaign", int(p.Campaign), "candidate_id", c.ID, "error", err)
		return
	}
	if !claimed {
		// Another worker got there first.
		return
	}

	text, kb := p.Message(c)
	if err := e.sender.Send(ctx, c.Transport, c.PeerID, text, kb); err != nil {
		e.log.Error("nudge delivery failed",
			"campaign", int(p.Campaign), "candidate_id", c.ID,
			"transport", string(c.Transport), "error", err)
		return
	}

	e.log.Info("nudge sent",
		"campaign", int(p.Campaign), "candidate_id", c.ID,
		"transport", string(c.Transport))
}
