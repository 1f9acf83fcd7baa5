// AngelaMos | 2026
// sync.go

package bot

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/core"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/entitlement"
)

// Synchronizer reconciles one configured role with one configured product.
type Synchronizer struct {
	entitlements Entitlements
	guilds       Guilds
	target       config.SyncConfig
	metrics      *core.Metrics
}

func NewSynchronizer(
	entitlements Entitlements,
	guilds Guilds,
	target config.SyncConfig,
	metrics *core.Metrics,
) *Synchronizer {
	return &Synchronizer{
		entitlements: entitlements,
		guilds:       guilds,
		target:       target,
		metrics:      metrics,
	}
}

type SyncResult struct {
	Action Action
	Reply  string
}

// Decide maps entitlement and role state to the single mutation to issue.
func Decide(hasProduct, hasRole bool) Action {
	switch {
	case hasProduct && !hasRole:
		return ActionAdd
	case !hasProduct && hasRole:
		return ActionRemove
	default:
		return ActionNone
	}
}

// Sync performs at most one role mutation for the invoking member.
func (s *Synchronizer) Sync(ctx context.Context, inv *Invocation) (*SyncResult, error) {
	if !inv.InGuild() {
		return &SyncResult{Action: ActionNone, Reply: MsgGuildOnly}, nil
	}

	accesses, err := s.entitlements.ResolveAccesses(ctx, inv.UserID)
	if err != nil {
		return nil, err
	}
	hasProduct := entitlement.HasProduct(accesses, s.target.ProductID)

	memberRoles, err := s.guilds.MemberRoleIDs(ctx, inv.GuildID, inv.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch member roles: %w", err)
	}

	role, err := s.guilds.Role(ctx, inv.GuildID, s.target.RoleID)
	if err != nil {
		return nil, fmt.Errorf("fetch role: %w", err)
	}
	if role == nil {
		return &SyncResult{Action: ActionNone, Reply: MsgRoleNotFound}, nil
	}

	hasRole := slices.Contains(memberRoles, role.ID)
	action := Decide(hasProduct, hasRole)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("sync.has_product", hasProduct),
		attribute.Bool("sync.has_role", hasRole),
		attribute.String("sync.action", string(action)),
	)

	switch action {
	case ActionAdd:
		if err := s.guilds.AddMemberRole(ctx, inv.GuildID, inv.UserID, role.ID); err != nil {
			return nil, fmt.Errorf("add role: %w", err)
		}
		s.metrics.ObserveRoleMutation(string(ActionAdd))
		return &SyncResult{Action: action, Reply: fmt.Sprintf(MsgRoleAdded, role.Name)}, nil

	case ActionRemove:
		if err := s.guilds.RemoveMemberRole(ctx, inv.GuildID, inv.UserID, role.ID); err != nil {
			return nil, fmt.Errorf("remove role: %w", err)
		}
		s.metrics.ObserveRoleMutation(string(ActionRemove))
		return &SyncResult{Action: action, Reply: fmt.Sprintf(MsgRoleRemoved, role.Name)}, nil
	}

	if hasProduct {
		return &SyncResult{Action: action, Reply: fmt.Sprintf(MsgRoleKept, role.Name)}, nil
	}
	return &SyncResult{Action: action, Reply: MsgNoAccess}, nil
}
