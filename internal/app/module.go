package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/contasync/billing/internal/app/api/server"
	croncmp "github.com/contasync/billing/internal/app/cron"
	"github.com/contasync/billing/internal/app/service/eventlog"
	"github.com/contasync/billing/internal/app/service/mailer"
	"github.com/contasync/billing/internal/app/service/planlimit"
	"github.com/contasync/billing/internal/app/service/reconciler"
	"github.com/contasync/billing/internal/app/service/recurring"
	"github.com/contasync/billing/internal/app/service/reporting"
	"github.com/contasync/billing/internal/platform/db"
	"github.com/contasync/billing/internal/platform/stripeapi"
	"github.com/contasync/billing/pkg/config"
	"github.com/contasync/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	stripeapi.Module,
	server.Module,
	eventlog.Module,
	mailer.Module,
	planlimit.Module,
	recurring.Module,
	reconciler.Module,
	reporting.Module,
	croncmp.Module,
)
