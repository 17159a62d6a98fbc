package recurring

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	cfgpkg "github.com/contasync/billing/pkg/config"
)

type Service struct {
	db  *gorm.DB
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
}

func New(db *gorm.DB, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cfg: cfg, log: log}
}
