package shared

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"reviewlens/internal/domain"
	"reviewlens/internal/storage/file"
	mongostore "reviewlens/internal/storage/mongo"
	mysqlrepo "reviewlens/internal/storage/mysql"
)

// OpenRepository builds the configured history backend. A backend that cannot
// be reached at startup is still returned; History degrades around it.
func OpenRepository(ctx context.Context, cfg Config) domain.AnalysisRepository {
	switch cfg.StoreBackend {
	case "mongo":
		client, err := mongostore.NewClient(ctx, cfg.MongoURI, 10*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("mongo client setup failed")
		}
		log.Info().Str("db", cfg.MongoDB).Msg("using mongo history store")
		return mongostore.New(ctx, client, cfg.MongoDB)

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		repo := mysqlrepo.New(db)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			log.Warn().Err(err).Msg("db.Ping failed, history will run degraded until it recovers")
		} else if err := repo.EnsureSchema(pingCtx); err != nil {
			log.Warn().Err(err).Msg("schema setup failed, retrying on first use")
		} else {
			log.Info().Msg("database connection ok")
		}
		return repo

	default:
		log.Info().Str("path", cfg.HistoryFile).Msg("using file history store")
		return file.New(cfg.HistoryFile)
	}
}
