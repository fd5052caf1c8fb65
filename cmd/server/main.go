package main

import (
	"github.com/drakos74/polychaos/infra/config"
	"github.com/drakos74/polychaos/internal/server"
	"github.com/drakos74/polychaos/internal/storage"
	"github.com/drakos74/polychaos/internal/storage/file/json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {

	env := config.MustLoadEnv()
	zerolog.SetGlobalLevel(env.LogLevel)

	storage.DefaultDir = env.StorageDir
	store, err := json.BlobShard(storage.ExpansionDir)("server")
	if err != nil {
		panic(err.Error())
	}
	api := server.NewAPI(store)

	srv := server.NewServer("pce", env.Port).
		Add(server.Live()).
		Add(api.Routes()...).
		Mount("/metrics", promhttp.Handler())
	if env.LogLevel <= zerolog.DebugLevel {
		api.Debug()
		srv.Debug()
	}

	log.Info().
		Int("port", env.Port).
		Str("storage", env.StorageDir).
		Msg("starting pce service")

	if err := srv.Run(); err != nil {
		panic(err.Error())
	}
}
