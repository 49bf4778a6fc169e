// Command migrate applies or rolls back the Postgres schema. For SQLite it creates the tables
// from the models.
//
//	migrate up | down | to <version> | version
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"ms-backoffice/internal/config"
	"ms-backoffice/internal/database"
	"ms-backoffice/internal/database/migrations"
	"ms-backoffice/internal/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down | to <version> | version")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.Log.Dir, cfg.Log.Prefix+"-migrate")
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.Driver == config.DriverSQLite {
		if os.Args[1] != "up" {
			log.Fatal("MIGRATE", "SQLite only supports 'up'")
		}
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		log.Info("MIGRATE", "✅ SQLite schema created")
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: cfg.Database.MigrationsDir}, log)

	switch os.Args[1] {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "to":
		if len(os.Args) < 3 {
			usage()
		}
		var v uint64
		v, err = strconv.ParseUint(os.Args[2], 10, 32)
		if err == nil {
			err = runner.To(uint(v))
		}
	case "version":
		var (
			v     uint
			dirty bool
		)
		v, dirty, err = runner.Version()
		if err == nil {
			log.Info("MIGRATE", fmt.Sprintf("Schema version %d (dirty=%t)", v, dirty))
		}
	default:
		usage()
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("✅ %s complete", os.Args[1]))
}
