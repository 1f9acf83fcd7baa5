// AngelaMos | 2026
// service.go

package entitlement

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/commerce"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/core"
)

// API is the subset of the commerce client the resolver depends on.
type API interface {
	LookupUserID(ctx context.Context, discordID string) (string, error)
	Accesses(ctx context.Context, userID string) ([]commerce.ProductAccess, error)
	Product(ctx context.Context, productID int64) (*commerce.Product, error)
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// ResolveAccesses returns the current product accesses of a Discord user.
// It always makes two sequential calls and never caches.
func (s *Service) ResolveAccesses(
	ctx context.Context,
	discordUserID string,
) ([]commerce.ProductAccess, error) {
	ctx, span := core.StartSpan(ctx, "entitlement.resolve",
		attribute.String("discord.user_id", discordUserID),
	)
	defer span.End()

	userID, err := s.api.LookupUserID(ctx, discordUserID)
	if err != nil {
		var apiErr *commerce.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return nil, fmt.Errorf("resolve commerce user: %w: %w", commerce.ErrAccountNotLinked, err)
		}
		return nil, fmt.Errorf("resolve commerce user: %w", err)
	}

	if userID == "" {
		return nil, fmt.Errorf("resolve commerce user: %w", commerce.ErrAccountNotLinked)
	}

	accesses, err := s.api.Accesses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accesses: %w", err)
	}

	span.SetAttributes(attribute.Int("entitlement.accesses", len(accesses)))

	return accesses, nil
}

// HasProduct reports whether any access matches productID exactly.
func HasProduct(accesses []commerce.ProductAccess, productID int64) bool {
	for _, access := range accesses {
		if access.ProductID == productID {
			return true
		}
	}
	return false
}

// ProductNames fetches every product concurrently and returns their display
// names in the order of accesses. One failed fetch fails the whole call.
func (s *Service) ProductNames(
	ctx context.Context,
	accesses []commerce.ProductAccess,
) ([]string, error) {
	names := make([]string, len(accesses))

	g, gctx := errgroup.WithContext(ctx)
	for i, access := range accesses {
		g.Go(func() error {
			product, err := s.api.Product(gctx, access.ProductID)
			if err != nil {
				return fmt.Errorf("get product %d: %w", access.ProductID, err)
			}
			names[i] = product.DisplayName()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return names, nil
}
