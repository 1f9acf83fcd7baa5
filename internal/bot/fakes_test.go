// AngelaMos | 2026
// fakes_test.go

package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/commerce"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/entitlement"
)

const (
	testProductID = int64(42)
	testRoleID    = "900000000000000001"
	testGuildID   = "800000000000000001"
	testUserID    = "700000000000000001"
)

// shopServer fakes the commerce API and counts hits per path prefix.
type shopServer struct {
	mu sync.Mutex

	userID       string
	lookupStatus int
	accesses     string
	accessStatus int
	products     map[string]string

	hits map[string]int
}

func newShopServer(t *testing.T, accesses string) (*shopServer, *commerce.Client) {
	t.Helper()

	shop := &shopServer{
		userID:       `"usr_1"`,
		lookupStatus: http.StatusOK,
		accesses:     accesses,
		accessStatus: http.StatusOK,
		products:     map[string]string{},
		hits:         map[string]int{},
	}

	server := httptest.NewServer(http.HandlerFunc(shop.serve))
	t.Cleanup(server.Close)

	client, err := commerce.NewClient(commerce.ClientConfig{
		CommerceConfig: config.CommerceConfig{
			BaseURL: server.URL,
			Token:   "token",
			Timeout: 5 * time.Second,
		},
	})
	require.NoError(t, err)

	return shop, client
}

func (s *shopServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.URL.Path == "/users/discord":
		s.hits["lookup"]++
		w.WriteHeader(s.lookupStatus)
		_, _ = io.WriteString(w, s.userID)
	case strings.HasSuffix(r.URL.Path, "/accesses"):
		s.hits["accesses"]++
		w.WriteHeader(s.accessStatus)
		_, _ = io.WriteString(w, s.accesses)
	case strings.HasPrefix(r.URL.Path, "/products/"):
		s.hits["products"]++
		body, ok := s.products[strings.TrimPrefix(r.URL.Path, "/products/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *shopServer) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[kind]
}

type fakeResponder struct {
	mu sync.Mutex

	deferErr error
	editErr  error

	deferred []string
	replies  []string
}

func (f *fakeResponder) DeferEphemeral(ctx context.Context, inv *Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deferred = append(f.deferred, inv.ID)
	return f.deferErr
}

func (f *fakeResponder) EditReply(ctx context.Context, inv *Invocation, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, content)
	return f.editErr
}

func (f *fakeResponder) lastReply(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.replies, "no reply sent")
	return f.replies[len(f.replies)-1]
}

type fakeGuilds struct {
	mu sync.Mutex

	roles       map[string]*Role
	memberRoles []string
	memberErr   error
	roleErr     error
	mutationErr error

	adds    int
	removes int
}

func newFakeGuilds(memberHasRole bool) *fakeGuilds {
	g := &fakeGuilds{
		roles: map[string]*Role{
			testRoleID: {ID: testRoleID, Name: "Supporter"},
		},
		memberRoles: []string{"100"},
	}
	if memberHasRole {
		g.memberRoles = append(g.memberRoles, testRoleID)
	}
	return g
}

func (g *fakeGuilds) MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.memberRoles...), g.memberErr
}

func (g *fakeGuilds) Role(ctx context.Context, guildID, roleID string) (*Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.roleErr != nil {
		return nil, g.roleErr
	}
	return g.roles[roleID], nil
}

func (g *fakeGuilds) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mutationErr != nil {
		return g.mutationErr
	}
	g.adds++
	g.memberRoles = append(g.memberRoles, roleID)
	return nil
}

func (g *fakeGuilds) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mutationErr != nil {
		return g.mutationErr
	}
	g.removes++
	kept := g.memberRoles[:0]
	for _, id := range g.memberRoles {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	g.memberRoles = kept
	return nil
}

func (g *fakeGuilds) mutations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adds + g.removes
}

type panickingEntitlements struct{}

func (panickingEntitlements) ResolveAccesses(ctx context.Context, id string) ([]commerce.ProductAccess, error) {
	panic("resolver exploded")
}

func (panickingEntitlements) ProductNames(ctx context.Context, a []commerce.ProductAccess) ([]string, error) {
	return nil, fmt.Errorf("unreachable")
}

func newDispatcher(
	client *commerce.Client,
	responder *fakeResponder,
	guilds *fakeGuilds,
) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Responder:      responder,
		Guilds:         guilds,
		Entitlements:   entitlement.NewService(client),
		Sync:           config.SyncConfig{ProductID: testProductID, RoleID: testRoleID},
		CommandTimeout: 5 * time.Second,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func invocation(command, guildID string) *Invocation {
	return &Invocation{
		ID:      "int-1",
		AppID:   "app-1",
		Token:   "tok",
		Command: command,
		UserID:  testUserID,
		GuildID: guildID,
	}
}
