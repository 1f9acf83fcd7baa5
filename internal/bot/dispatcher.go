// AngelaMos | 2026
// dispatcher.go

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/commerce"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/core"
)

const replyTimeout = 10 * time.Second

type DispatcherConfig struct {
	Responder      Responder
	Guilds         Guilds
	Entitlements   Entitlements
	Sync           config.SyncConfig
	CommandTimeout time.Duration
	Logger         *slog.Logger
	Metrics        *core.Metrics
}

// Dispatcher routes slash commands to their flows. Every invocation it
// accepts gets exactly one reply.
type Dispatcher struct {
	responder    Responder
	entitlements Entitlements
	synchronizer *Synchronizer
	timeout      time.Duration
	logger       *slog.Logger
	metrics      *core.Metrics
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		responder:    cfg.Responder,
		entitlements: cfg.Entitlements,
		synchronizer: NewSynchronizer(cfg.Entitlements, cfg.Guilds, cfg.Sync, cfg.Metrics),
		timeout:      cfg.CommandTimeout,
		logger:       logger,
		metrics:      cfg.Metrics,
	}
}

type flow func(ctx context.Context, inv *Invocation) (string, error)

func (d *Dispatcher) Handle(ctx context.Context, inv *Invocation) {
	switch inv.Command {
	case CommandProducts:
		d.run(ctx, inv, MsgProductsFailed, d.products)
	case CommandSync:
		d.run(ctx, inv, MsgSyncFailed, d.sync)
	default:
		d.logger.DebugContext(ctx, "ignoring unknown command",
			"command", inv.Command,
			"interaction_id", inv.ID,
		)
	}
}

func (d *Dispatcher) run(
	ctx context.Context,
	inv *Invocation,
	failureReply string,
	fn flow,
) {
	start := time.Now()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ctx, span := core.StartSpan(ctx, "command."+inv.Command,
		attribute.String("discord.interaction_id", inv.ID),
		attribute.String("discord.user_id", inv.UserID),
		attribute.String("discord.guild_id", inv.GuildID),
	)
	defer span.End()

	logger := d.logger.With(
		"request_id", uuid.New().String(),
		"interaction_id", inv.ID,
		"command", inv.Command,
		"user_id", inv.UserID,
		"guild_id", inv.GuildID,
	)
	if traceID := core.TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}

	if err := d.responder.DeferEphemeral(ctx, inv); err != nil {
		core.SetSpanError(ctx, err)
		logger.ErrorContext(ctx, "defer reply failed", "error", err)
		d.metrics.ObserveCommand(inv.Command, "defer_failed", time.Since(start))
		return
	}

	reply, err := d.execute(ctx, inv, fn)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		core.SetSpanError(ctx, err)
		logger.ErrorContext(ctx, "command failed",
			"error", err,
			"not_linked", errors.Is(err, commerce.ErrAccountNotLinked),
			"upstream_status", upstreamStatus(err),
		)
		reply = failureReply
	}

	// The command context may already be past its deadline; the final
	// reply still has to go out.
	replyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()

	if err := d.responder.EditReply(replyCtx, inv, reply); err != nil {
		outcome = "reply_failed"
		logger.ErrorContext(ctx, "edit reply failed", "error", err)
	}

	elapsed := time.Since(start)
	d.metrics.ObserveCommand(inv.Command, outcome, elapsed)
	logger.InfoContext(ctx, "command handled",
		"outcome", outcome,
		"duration", elapsed,
	)
}

// execute converts a panic inside a flow into an error so the invocation
// still gets its failure reply.
func (d *Dispatcher) execute(
	ctx context.Context,
	inv *Invocation,
	fn flow,
) (reply string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v", inv.Command, p)
		}
	}()

	return fn(ctx, inv)
}

func (d *Dispatcher) products(ctx context.Context, inv *Invocation) (string, error) {
	accesses, err := d.entitlements.ResolveAccesses(ctx, inv.UserID)
	if err != nil {
		return "", err
	}

	if len(accesses) == 0 {
		return MsgNoPurchases, nil
	}

	names, err := d.entitlements.ProductNames(ctx, accesses)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(MsgPurchasedProducts, strings.Join(names, ", ")), nil
}

func (d *Dispatcher) sync(ctx context.Context, inv *Invocation) (string, error) {
	result, err := d.synchronizer.Sync(ctx, inv)
	if err != nil {
		return "", err
	}
	return result.Reply, nil
}

func upstreamStatus(err error) int {
	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
