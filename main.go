package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"danceschool/impl/core"
	"danceschool/internal/config"
	"danceschool/internal/database"
	"danceschool/internal/http-server/api"
	"danceschool/internal/lib/logger"
	"danceschool/internal/lib/sl"
	"danceschool/internal/service/auth"
	"danceschool/internal/service/relay"
	"danceschool/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	lg.Info("starting danceschool chat", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
		return
	}
	if db == nil {
		lg.Error("mongo is disabled, chat needs a store")
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	}()
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("user", conf.Mongo.User),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err = db.EnsureIndexes(ctx); err != nil {
		lg.With(sl.Err(err)).Error("ensure indexes")
	}
	cancel()

	if conf.Jwt.Secret == "" {
		lg.Error("jwt secret is not set")
		return
	}
	authService := auth.NewAuthService(conf.Jwt.Secret, conf.Jwt.TTL, lg)
	authService.SetRepository(db)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err = authService.Bootstrap(ctx, conf.Bootstrap.Username, conf.Bootstrap.Password, conf.Bootstrap.Name); err != nil {
		lg.With(sl.Err(err)).Error("bootstrap admin")
	}
	cancel()

	handler.SetRepository(db)
	handler.SetAuthService(authService)

	hub := ws.NewHub(lg)
	hub.SetAuthorizer(handler)
	handler.SetNotifier(hub)

	if conf.Redis.Enabled {
		rl, err := relay.New(conf.Redis.URL, conf.Redis.Channel, hub, lg)
		if err != nil {
			lg.With(sl.Err(err)).Error("redis relay, realtime stays local")
		} else {
			defer rl.Close()
			handler.SetNotifier(rl)
			go func() {
				if err := rl.Run(context.Background()); err != nil {
					lg.Error("redis relay stopped", sl.Err(err))
				}
			}()
			lg.With(
				slog.String("channel", conf.Redis.Channel),
			).Info("redis relay initialized")
		}
	}

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
