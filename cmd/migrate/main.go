package main

import (
	"flag"
	"log"

	"github.com/reports/engine/internal/infra/persistence/backfillrepo"
	"github.com/reports/engine/internal/infra/persistence/executionrepo"
	"github.com/reports/engine/internal/infra/persistence/reportrepo"
	"github.com/reports/engine/internal/infra/persistence/schedulerepo"
	"github.com/reports/engine/internal/orm"
	"github.com/reports/engine/pkg/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := orm.New(orm.Config{
		Host:                  cfg.Database.Host,
		Port:                  cfg.Database.Port,
		Database:              cfg.Database.Database,
		User:                  cfg.Database.User,
		Password:              cfg.Database.Password,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	err = db.DB().AutoMigrate(
		&reportrepo.ReportDefinitionPo{},
		&executionrepo.ExecutionPo{},
		&schedulerepo.SchedulePo{},
		&backfillrepo.BackfillCollectionPo{},
		&backfillrepo.SegmentPo{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	log.Println("Migration completed successfully")
}
