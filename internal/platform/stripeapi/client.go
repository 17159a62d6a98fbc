package stripeapi

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/subscription"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/contasync/billing/pkg/config"
)

// SubscriptionFetcher re-reads subscription state from the provider. Checkout
// completion events carry only the subscription ID, so the reconciler fetches
// the full object before provisioning.
type SubscriptionFetcher interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

type client struct {
	l *zap.SugaredLogger
}

func New(l *zap.SugaredLogger, cfg *cfgpkg.Config) SubscriptionFetcher {
	stripe.Key = cfg.Stripe.SecretKey
	return &client{l: l}
}

func (c *client) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		c.l.Errorw("stripe: fetch subscription failed", "subscription_id", subscriptionID, "err", err)
		return nil, err
	}
	return sub, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
