package main

import (
	"flag"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/jmllr/ledgergo"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "config.yml", "path to configuration file")
	names := flag.String("customers", "Alice,Bob,Carol", "comma-separated customer names to seed")
	flag.Parse()

	cfg, err := ledgergo.LoadConfig(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}

	lh, err := ledgergo.NewLocalHelper(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting local helper")
	}
	if _, err = lh.InitDB(); err != nil {
		logger.Fatal().Err(err).Msg("error initializing database")
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating snowflake node")
	}
	customers, err := lh.SeedCustomers(node, strings.Split(*names, ",")...)
	if err != nil {
		logger.Fatal().Err(err).Msg("error seeding customers")
	}
	for name, id := range customers {
		logger.Info().Str("name", name).Str("id", id.String()).Msg("customer seeded")
	}
}
