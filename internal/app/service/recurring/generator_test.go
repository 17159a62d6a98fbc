package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	cfgpkg "github.com/contasync/billing/pkg/config"
	"github.com/contasync/billing/pkg/schedule"
	"github.com/contasync/billing/pkg/types"
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

func generatorService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	cfg := &cfgpkg.Config{
		Recurring: cfgpkg.RecurringConfig{PaymentLookaheadDays: 7},
	}
	return New(gdb, cfg, zap.NewNop().Sugar()), mock
}

var templateColumns = []string{
	"id", "kind", "accountant_id", "title", "category",
	"amount_cents", "currency", "frequency", "day_of_month",
	"next_due_date", "end_date", "is_active",
}

func templateRow(rows *sqlmock.Rows, id string, freq types.Frequency, due time.Time, end any) *sqlmock.Rows {
	return rows.AddRow(id, string(types.TemplateKindClientPayment), "acct-1", "Retainer", "services",
		int64(150000), "BRL", string(freq), due.Day(), due, end, true)
}

func accountantRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "status"}).
		AddRow("acct-1", "owner@firm.test", string(types.TenantStatusActive))
}

func TestRun_GeneratesChargeWithinWindow(t *testing.T) {
	s, mock := generatorService(t)
	due := schedule.StartOfDay(time.Now(), time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM "recurring_template"`).
		WillReturnRows(templateRow(sqlmock.NewRows(templateColumns), "tpl-1", types.FrequencyMonthly, due, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).
		WillReturnRows(accountantRows())
	mock.ExpectQuery(`SELECT (.+) FROM "scheduled_charge"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "scheduled_charge"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE "recurring_template"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	report, err := s.Run(context.Background(), types.TemplateKindClientPayment)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Generated)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Errors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_SecondRunSkipsGeneratedPeriod(t *testing.T) {
	s, mock := generatorService(t)
	due := schedule.StartOfDay(time.Now(), time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM "recurring_template"`).
		WillReturnRows(templateRow(sqlmock.NewRows(templateColumns), "tpl-1", types.FrequencyMonthly, due, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).
		WillReturnRows(accountantRows())
	// The period's charge already exists; the only write is the cursor
	// repair, never a second insert.
	mock.ExpectQuery(`SELECT (.+) FROM "scheduled_charge"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("charge-1"))
	mock.ExpectExec(`UPDATE "recurring_template"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report, err := s.Run(context.Background(), types.TemplateKindClientPayment)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Generated)
	assert.Equal(t, 1, report.Skipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_TemplateFailureDoesNotAbortBatch(t *testing.T) {
	s, mock := generatorService(t)
	due := schedule.StartOfDay(time.Now(), time.UTC)
	farAhead := due.AddDate(0, 0, 30)

	rows := sqlmock.NewRows(templateColumns)
	rows = templateRow(rows, "tpl-bad", types.Frequency("weekly"), due, nil)
	rows = templateRow(rows, "tpl-ok", types.FrequencyMonthly, farAhead, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "recurring_template"`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).WillReturnRows(accountantRows())
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).WillReturnRows(accountantRows())

	report, err := s.Run(context.Background(), types.TemplateKindClientPayment)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Generated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ConcurrentInsertLoserSkips(t *testing.T) {
	s, mock := generatorService(t)
	due := schedule.StartOfDay(time.Now(), time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM "recurring_template"`).
		WillReturnRows(templateRow(sqlmock.NewRows(templateColumns), "tpl-1", types.FrequencyMonthly, due, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).
		WillReturnRows(accountantRows())
	mock.ExpectQuery(`SELECT (.+) FROM "scheduled_charge"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "scheduled_charge"`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	report, err := s.Run(context.Background(), types.TemplateKindClientPayment)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Generated)
	assert.Zero(t, report.Errors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_DeactivatesTemplatePastEndDate(t *testing.T) {
	s, mock := generatorService(t)
	today := schedule.StartOfDay(time.Now(), time.UTC)
	end := today.AddDate(0, 0, 1)
	due := today.AddDate(0, 0, 3)

	mock.ExpectQuery(`SELECT (.+) FROM "recurring_template"`).
		WillReturnRows(templateRow(sqlmock.NewRows(templateColumns), "tpl-1", types.FrequencyMonthly, due, end))
	mock.ExpectQuery(`SELECT (.+) FROM "accountant"`).
		WillReturnRows(accountantRows())
	mock.ExpectExec(`UPDATE "recurring_template"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report, err := s.Run(context.Background(), types.TemplateKindClientPayment)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Generated)
	require.NoError(t, mock.ExpectationsWereMet())
}
