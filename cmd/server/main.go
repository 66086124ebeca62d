package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jmllr/ledgergo"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "config.yml", "path to configuration file")
	flag.Parse()
	cfg, err := ledgergo.LoadConfig(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}
	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Msg("error parsing log level")
	}
	zerolog.SetGlobalLevel(lvl)

	pool, err := pgxpool.New(context.Background(), cfg.Database.ConnStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting database pool")
	}
	if err = pool.Ping(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("error pinging database")
	}
	endpt := ledgergo.NewPostgresEndpointWithPool(pool, &logger)
	dir := ledgergo.NewPostgresDirectory(pool)

	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating snowflake node")
	}

	var svc ledgergo.Service
	svc, err = ledgergo.NewService(endpt, dir, node, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting service")
	}
	for _, mw := range []ledgergo.Middleware{
		ledgergo.NewCircuitBreakMiddleware(ledgergo.DefaultServiceBreaker()),
		ledgergo.NewLimitMiddleware(ledgergo.DefaultServiceLimits()),
		ledgergo.NewValidationMiddleware(),
	} {
		svc = mw(svc)
	}
	hndlr := ledgergo.NewHTTPHandler(svc, &logger)

	logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err = http.ListenAndServe(cfg.Server.Addr, hndlr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
