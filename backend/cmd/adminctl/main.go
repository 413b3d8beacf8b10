// ============================================================================
// backend/cmd/adminctl/main.go
// Operator commands: bootstrap administrators, reset passwords
// ============================================================================

package main

import (
	"os"

	"schooladmin/backend/internal/logger"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store/mongostore"
)

func main() {
	_ = shared.LoadEnv(".env")

	cfg, err := shared.LoadServiceConfig("adminctl")
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.StoreDriver != shared.StoreDriverMongo {
		logger.Fatal().Str("store", cfg.StoreDriver).Msg("adminctl needs STORE_DRIVER=mongo")
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	cli := commandLine{
		store: mongostore.New(client, db),
		cost:  cfg.Security.BCryptCost,
		out:   os.Stdout,
	}
	err = cli.run(os.Args)
	_ = shared.DisconnectMongoDB(client)

	if err != nil {
		if err != errHelp {
			logger.Error().Err(err).Msg("command failed")
		}
		os.Exit(1)
	}
}
