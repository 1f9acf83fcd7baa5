// AngelaMos | 2026
// ports.go

package bot

import (
	"context"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/commerce"
)

type Responder interface {
	// DeferEphemeral acknowledges the invocation; the eventual reply is
	// visible only to the invoking user.
	DeferEphemeral(ctx context.Context, inv *Invocation) error
	EditReply(ctx context.Context, inv *Invocation, content string) error
}

type Guilds interface {
	MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error)
	// Role returns nil without an error when the role does not exist.
	Role(ctx context.Context, guildID, roleID string) (*Role, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
}

type Entitlements interface {
	ResolveAccesses(ctx context.Context, discordUserID string) ([]commerce.ProductAccess, error)
	ProductNames(ctx context.Context, accesses []commerce.ProductAccess) ([]string, error)
}
