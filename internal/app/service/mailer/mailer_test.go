package mailer

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/contasync/billing/pkg/config"
)

func newTestService() *Service {
	cfg := &cfgpkg.Config{}
	cfg.Billing.BaseURL = "https://app.contasync.test"
	cfg.Billing.LinkSigningSecret = "test-secret"
	return New(cfg, zap.NewNop().Sugar())
}

func TestBuildPortalLink(t *testing.T) {
	s := newTestService()

	link, err := s.BuildPortalLink("0192d5f0-0000-7000-8000-000000000001")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://app.contasync.test/billing/portal?token="))

	raw := strings.TrimPrefix(link, "https://app.contasync.test/billing/portal?token=")
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, "0192d5f0-0000-7000-8000-000000000001", claims["sub"])
	assert.Equal(t, "billing-portal", claims["aud"])
	assert.NotZero(t, claims["exp"])
}
