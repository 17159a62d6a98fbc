package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/contasync/billing/internal/models"
	cfgpkg "github.com/contasync/billing/pkg/config"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return gdb, mock
}

type recordingMailer struct {
	paymentReceived chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{paymentReceived: make(chan string, 1)}
}

func (m *recordingMailer) SendPaymentReceived(_ context.Context, acct *models.Accountant, _ *models.Invoice) {
	m.paymentReceived <- acct.ID
}

func (m *recordingMailer) SendPaymentFailed(context.Context, *models.Accountant, *models.Invoice) {}

func (m *recordingMailer) SendSubscriptionCanceled(context.Context, *models.Accountant) {}

func reconcilerService(t *testing.T) (*Service, sqlmock.Sqlmock, *recordingMailer) {
	t.Helper()
	gdb, mock := newMockDB(t)
	mail := newRecordingMailer()
	s := &Service{db: gdb, cfg: &cfgpkg.Config{}, log: zap.NewNop().Sugar(), mail: mail}
	return s, mock, mail
}

func TestHandleInvoicePaid_RedeliveryUpdatesExistingRow(t *testing.T) {
	s, mock, mail := reconcilerService(t)

	inv := &stripe.Invoice{
		ID:           "in_123",
		Subscription: &stripe.Subscription{ID: "sub_123"},
		Currency:     stripe.CurrencyBRL,
		AmountDue:    9900,
		AmountPaid:   9900,
		Lines: &stripe.InvoiceLineItemList{
			Data: []*stripe.InvoiceLineItem{
				{Period: &stripe.Period{Start: 1700000000, End: 1702592000}},
			},
		},
	}

	mock.ExpectQuery(`SELECT (.+) FROM "external_subscription"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "accountant_id", "stripe_subscription_id"}).
			AddRow("local-sub-1", "acct-1", "sub_123"))
	mock.ExpectBegin()
	// The invoice mirror already holds this provider invoice from the first
	// delivery, so the redelivery updates that row instead of inserting.
	mock.ExpectQuery(`SELECT (.+) FROM "external_invoice"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stripe_invoice_id", "accountant_id"}).
			AddRow("local-inv-1", "in_123", "acct-1"))
	mock.ExpectExec(`UPDATE "external_invoice"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "external_subscription"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow("acct-1", "owner@firm.test"))

	require.NoError(t, s.handleInvoicePaid(context.Background(), inv))

	select {
	case acctID := <-mail.paymentReceived:
		assert.Equal(t, "acct-1", acctID)
	case <-time.After(2 * time.Second):
		t.Fatal("payment received mail was never sent")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCheckoutCompleted_MissingMetadataAcknowledgedWithoutWrites(t *testing.T) {
	s, mock, _ := reconcilerService(t)

	sess := &stripe.CheckoutSession{
		ID:           "cs_123",
		Subscription: &stripe.Subscription{ID: "sub_123"},
		Metadata: map[string]string{
			"flow":          "public",
			"password_hash": "argon2id$...",
			"plan_id":       "starter",
			// no email
		},
	}

	mock.ExpectQuery(`SELECT (.+) FROM "external_subscription"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, s.handleCheckoutCompleted(context.Background(), sess))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSubscriptionTx_ResubscribeTakesOverTenantRow(t *testing.T) {
	s, mock, _ := reconcilerService(t)

	sub := &stripe.Subscription{ID: "sub_new", Status: stripe.SubscriptionStatusActive}

	mock.ExpectQuery(`SELECT (.+) FROM "external_subscription"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "external_subscription"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "accountant_id", "stripe_subscription_id"}).
			AddRow("local-sub-1", "acct-1", "sub_old"))
	mock.ExpectExec(`UPDATE "external_subscription"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	m, err := s.upsertSubscriptionTx(context.Background(), s.db, sub, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "local-sub-1", m.ID)
	assert.Equal(t, "sub_new", m.StripeSubscriptionID)
	assert.Equal(t, "acct-1", m.AccountantID)
	require.NoError(t, mock.ExpectationsWereMet())
}
