package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

type stubEventProcessor struct {
	verifyErr error
	handleErr error
	handled   []string
}

func (s *stubEventProcessor) VerifyAndParse(payload []byte, sigHeader string) (stripe.Event, error) {
	if s.verifyErr != nil {
		return stripe.Event{}, s.verifyErr
	}
	return stripe.Event{ID: "evt_123", Type: "invoice.paid"}, nil
}

func (s *stubEventProcessor) Handle(ctx context.Context, event stripe.Event, traceID string) error {
	s.handled = append(s.handled, event.ID)
	return s.handleErr
}

func webhookRouter(stub *stubEventProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterWebhookRoutes(r.Group("/webhooks"), stub, zap.NewNop().Sugar())
	return r
}

func postStripeWebhook(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"id":"evt_123"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiStripeWebhook_InvalidSignatureRejected(t *testing.T) {
	stub := &stubEventProcessor{verifyErr: errors.New("signature mismatch")}
	w := postStripeWebhook(webhookRouter(stub))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid signature")
	require.Empty(t, stub.handled)
}

func TestApiStripeWebhook_AcknowledgesHandledEvent(t *testing.T) {
	stub := &stubEventProcessor{}
	w := postStripeWebhook(webhookRouter(stub))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"received":true`)
	require.Contains(t, w.Body.String(), `"code":0`)
	require.Equal(t, []string{"evt_123"}, stub.handled)
}

func TestApiStripeWebhook_HandlerErrorStillAcknowledged(t *testing.T) {
	stub := &stubEventProcessor{handleErr: errors.New("db down")}
	w := postStripeWebhook(webhookRouter(stub))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"received":true`)
	require.Contains(t, w.Body.String(), `"code":50000`)
}
