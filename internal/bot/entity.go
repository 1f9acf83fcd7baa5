// AngelaMos | 2026
// entity.go

package bot

const (
	CommandProducts = "products"
	CommandSync     = "sync"
)

// Invocation is one slash-command event. GuildID is empty when the command
// was used outside a server.
type Invocation struct {
	ID      string
	AppID   string
	Token   string
	Command string
	UserID  string
	GuildID string
}

func (i *Invocation) InGuild() bool {
	return i.GuildID != ""
}

type Role struct {
	ID   string
	Name string
}

type Action string

const (
	ActionNone   Action = "none"
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

const (
	MsgNoPurchases       = "You haven't purchased any products yet."
	MsgPurchasedProducts = "**Purchased products:** %s"
	MsgProductsFailed    = "Failed to fetch products. Make sure your Discord is linked."

	MsgGuildOnly    = "This command must be used in a server."
	MsgRoleNotFound = "Role not found in this server."
	MsgRoleAdded    = "Role **%s** has been added!"
	MsgRoleRemoved  = "Role **%s** has been removed."
	MsgRoleKept     = "You already have the **%s** role."
	MsgNoAccess     = "You don't have access to this product."
	MsgSyncFailed   = "Failed to sync roles. Make sure your Discord is linked."
)
