package service

import (
	"context"
	"fmt"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/state"
)

const (
	msgHistoryFailed       = "Impossible de charger l'historique"
	msgMyTopupsFailed      = "Impossible de charger tes demandes"
	msgPendingFailed       = "Impossible de charger les demandes"
	msgPartnersFailed      = "Erreur chargement partenaires"
	msgUsersFailed         = "Erreur chargement utilisateurs"
	msgNotAuthenticated    = "Non authentifié"
	msgGenericActionFailed = "Action échouée"
)

// load follows the loader contract: a failure empties the cache and records an
// inline message, a success replaces the cache wholesale.
func load[T any](ctx context.Context, c *Console, cache *state.Cache[T], fetch func(context.Context) ([]T, error), fallback string) error {
	items, err := fetch(ctx)
	if err != nil {
		cache.Fail(backend.DetailOr(err, fallback))
		return err
	}
	cache.Replace(items, c.now())
	return nil
}

// loadProfile treats every failure as not authenticated.
func (c *Console) loadProfile(ctx context.Context) error {
	p, err := c.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	c.store.SetProfile(*p)
	return nil
}

// loadFX keeps the fallback rates when the live ones cannot be read.
func (c *Console) loadFX(ctx context.Context) error {
	fx, err := c.api.FX(ctx)
	if err != nil {
		return err
	}
	if !fx.SellUSD.IsPositive() || !fx.BuyUSD.IsPositive() {
		return fmt.Errorf("fx: non-positive rates %s/%s", fx.SellUSD, fx.BuyUSD)
	}
	c.store.SetFX(*fx)
	return nil
}

func (c *Console) loadHistory(ctx context.Context) error {
	return load(ctx, c, &c.store.WalletTx, c.api.Transactions, msgHistoryFailed)
}

func (c *Console) loadMyTopups(ctx context.Context) error {
	return load(ctx, c, &c.store.MyTopups, c.api.MyTopups, msgMyTopupsFailed)
}

func (c *Console) loadAdminPending(ctx context.Context) error {
	return load(ctx, c, &c.store.AdminPending, c.api.PendingTopups, msgPendingFailed)
}

func (c *Console) loadPartners(ctx context.Context) error {
	return load(ctx, c, &c.store.Partners, c.api.Partners, msgPartnersFailed)
}

func (c *Console) loadPartnersAdmin(ctx context.Context) error {
	return load(ctx, c, &c.store.PartnersAdmin, c.api.PartnersAdmin, msgPartnersFailed)
}

func (c *Console) loadUsers(ctx context.Context) error {
	return load(ctx, c, &c.store.Users, c.api.SuperadminUsers, msgUsersFailed)
}
