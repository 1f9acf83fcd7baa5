// AngelaMos | 2026
// sync_test.go

package bot

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/entitlement"
)

func TestDecide(t *testing.T) {
	assert.Equal(t, ActionAdd, Decide(true, false))
	assert.Equal(t, ActionRemove, Decide(false, true))
	assert.Equal(t, ActionNone, Decide(true, true))
	assert.Equal(t, ActionNone, Decide(false, false))
}

func TestSyncTransitions(t *testing.T) {
	tests := []struct {
		name        string
		accesses    string
		hasRole     bool
		wantReply   string
		wantAdds    int
		wantRemoves int
	}{
		{
			name:      "product without role grants",
			accesses:  `[{"product_id": 42}]`,
			wantReply: "Role **Supporter** has been added!",
			wantAdds:  1,
		},
		{
			name:        "role without product revokes",
			accesses:    `[{"product_id": 7}]`,
			hasRole:     true,
			wantReply:   "Role **Supporter** has been removed.",
			wantRemoves: 1,
		},
		{
			name:      "product and role keeps",
			accesses:  `{"data": [{"product_id": 7}, {"product_id": 42}]}`,
			hasRole:   true,
			wantReply: "You already have the **Supporter** role.",
		},
		{
			name:      "neither is a no-op",
			accesses:  `[]`,
			wantReply: "You don't have access to this product.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newShopServer(t, tt.accesses)
			guilds := newFakeGuilds(tt.hasRole)
			responder := &fakeResponder{}

			newDispatcher(client, responder, guilds).
				Handle(context.Background(), invocation(CommandSync, testGuildID))

			require.Len(t, responder.replies, 1)
			assert.Equal(t, tt.wantReply, responder.replies[0])
			assert.Equal(t, tt.wantAdds, guilds.adds)
			assert.Equal(t, tt.wantRemoves, guilds.removes)
		})
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	tests := []struct {
		name      string
		accesses  string
		hasRole   bool
		wantReply string
	}{
		{"entitled", `[{"product_id": 42}]`, false, "You already have the **Supporter** role."},
		{"not entitled", `[]`, true, "You don't have access to this product."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newShopServer(t, tt.accesses)
			guilds := newFakeGuilds(tt.hasRole)
			responder := &fakeResponder{}
			d := newDispatcher(client, responder, guilds)

			d.Handle(context.Background(), invocation(CommandSync, testGuildID))
			afterFirst := guilds.mutations()
			assert.Equal(t, 1, afterFirst)

			d.Handle(context.Background(), invocation(CommandSync, testGuildID))
			d.Handle(context.Background(), invocation(CommandSync, testGuildID))

			assert.Equal(t, afterFirst, guilds.mutations())
			require.Len(t, responder.replies, 3)
			assert.Equal(t, tt.wantReply, responder.replies[1])
			assert.Equal(t, responder.replies[1], responder.replies[2])
		})
	}
}

func TestSyncOutsideGuild(t *testing.T) {
	shop, client := newShopServer(t, `[{"product_id": 42}]`)
	guilds := newFakeGuilds(false)
	responder := &fakeResponder{}

	newDispatcher(client, responder, guilds).
		Handle(context.Background(), invocation(CommandSync, ""))

	assert.Equal(t, []string{"This command must be used in a server."}, responder.replies)
	assert.Zero(t, shop.count("lookup"))
	assert.Zero(t, guilds.mutations())
}

func TestSyncRoleNotFound(t *testing.T) {
	_, client := newShopServer(t, `[{"product_id": 42}]`)
	guilds := newFakeGuilds(false)
	guilds.roles = map[string]*Role{}
	responder := &fakeResponder{}

	newDispatcher(client, responder, guilds).
		Handle(context.Background(), invocation(CommandSync, testGuildID))

	assert.Equal(t, []string{"Role not found in this server."}, responder.replies)
	assert.Zero(t, guilds.mutations())
}

func TestSyncFailures(t *testing.T) {
	platformErr := errors.New("50013: missing permissions")

	tests := []struct {
		name  string
		setup func(s *shopServer, g *fakeGuilds)
	}{
		{"accesses upstream error", func(s *shopServer, g *fakeGuilds) { s.accessStatus = http.StatusBadGateway }},
		{"account not linked", func(s *shopServer, g *fakeGuilds) { s.lookupStatus = http.StatusNotFound }},
		{"member lookup fails", func(s *shopServer, g *fakeGuilds) { g.memberErr = platformErr }},
		{"role lookup fails", func(s *shopServer, g *fakeGuilds) { g.roleErr = platformErr }},
		{"mutation rejected", func(s *shopServer, g *fakeGuilds) { g.mutationErr = platformErr }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop, client := newShopServer(t, `[{"product_id": 42}]`)
			guilds := newFakeGuilds(false)
			tt.setup(shop, guilds)
			responder := &fakeResponder{}

			newDispatcher(client, responder, guilds).
				Handle(context.Background(), invocation(CommandSync, testGuildID))

			assert.Equal(t, []string{MsgSyncFailed}, responder.replies)
			assert.Zero(t, guilds.mutations())
		})
	}
}

func TestSyncKeepsRoleWhenAccessListTooLarge(t *testing.T) {
	accesses := `[{"product_id": 42, "note": "` + strings.Repeat("x", 1<<20) + `"}]`
	_, client := newShopServer(t, accesses)
	guilds := newFakeGuilds(true)
	responder := &fakeResponder{}

	newDispatcher(client, responder, guilds).
		Handle(context.Background(), invocation(CommandSync, testGuildID))

	assert.Equal(t, []string{MsgSyncFailed}, responder.replies)
	assert.Zero(t, guilds.mutations())
}

func TestSynchronizerResult(t *testing.T) {
	_, client := newShopServer(t, `[{"product_id": 42}]`)
	guilds := newFakeGuilds(false)

	s := NewSynchronizer(
		entitlement.NewService(client),
		guilds,
		config.SyncConfig{ProductID: testProductID, RoleID: testRoleID},
		nil,
	)

	result, err := s.Sync(context.Background(), invocation(CommandSync, testGuildID))
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, result.Action)
	assert.Equal(t, 1, guilds.adds)
}
