package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/nodewatch/nodewatch/internal/common/logtrace"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/dberror"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/db/models"
	"github.com/nodewatch/nodewatch/internal/monitorsrv/server"
	"github.com/nodewatch/nodewatch/pkg/types"
)

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(*opt.configFile); err != nil {
		slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
		os.Exit(1)
	}
	if config.Config().ServerPort == "" {
		slog.Error().Msg("server port not defined")
		os.Exit(1)
	}

	if err := db.Init(context.Background()); err != nil {
		slog.Error().Err(err).Msg("unable to initialize db pool")
		os.Exit(1)
	}
	if err := ensureReachabilityMethod(); err != nil {
		slog.Error().Err(err).Msg("unable to ensure reachability check method")
		os.Exit(1)
	}

	s, err := server.CreateNewServer()
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()

	slog.Info().Str("port", config.Config().ServerPort).Msg("serving")
	if err := http.ListenAndServe(":"+config.Config().ServerPort, s.Router); err != nil {
		slog.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// ensureReachabilityMethod seeds the one check method the status deriver
// depends on.
func ensureReachabilityMethod() error {
	ctx := db.ConnCtx(context.Background())
	store := db.DB(ctx)
	if store == nil {
		return fmt.Errorf("no db connection")
	}
	defer store.Close(ctx)

	if _, err := store.GetCheckMethodByName(ctx, types.MethodReachability); err == nil {
		return nil
	}
	m := &models.CheckMethod{Name: types.MethodReachability}
	if err := store.CreateCheckMethod(ctx, m); err != nil && !err.Is(dberror.ErrAlreadyExists) {
		return err
	}
	return nil
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", config.DefaultConfigFile, "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
