package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iyann1255/daftaren/bot"
	"github.com/iyann1255/daftaren/impl/auth"
	"github.com/iyann1255/daftaren/impl/core"
	"github.com/iyann1255/daftaren/impl/registration"
	"github.com/iyann1255/daftaren/internal/config"
	"github.com/iyann1255/daftaren/internal/database"
	"github.com/iyann1255/daftaren/internal/http-server/api"
	"github.com/iyann1255/daftaren/internal/metrics"
	"github.com/iyann1255/daftaren/internal/session"
	"github.com/iyann1255/daftaren/lib/logger"
	"github.com/iyann1255/daftaren/lib/phone"
	"github.com/iyann1255/daftaren/lib/sl"
	"github.com/iyann1255/daftaren/lib/validate"
)

// apiHandler joins token checks and record queries for the HTTP API.
type apiHandler struct {
	*auth.Auth
	*core.Core
}

func serveCmd(configPath, logPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the optional HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath, *logPath)
		},
	}
}

func serve(configPath, logPath string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err = conf.RequireBot(); err != nil {
		return err
	}

	log, err := logger.SetupLogger(conf.Env, logPath)
	if err != nil {
		return err
	}
	log.Info("starting daftaren", slog.String("config", configPath), slog.String("env", conf.Env))

	store, err := database.New(conf.Storage, log)
	if err != nil {
		return err
	}
	sessions, err := session.New(conf.Session, log)
	if err != nil {
		return err
	}
	rule, err := phone.ForCountry(conf.Registration.Country, conf.Registration.LocalPrefix, conf.Registration.MinDigits)
	if err != nil {
		return fmt.Errorf("phone rule: %w", err)
	}
	if len(conf.Telegram.AdminIds) == 0 {
		log.Warn("no admin ids configured, proofs can only reach the review chat")
	}

	tgBot, err := bot.NewTgBot(conf.Telegram.Token, bot.Config{
		AdminIds:     conf.Telegram.AdminIds,
		ReviewChatId: conf.Telegram.ReviewChatId,
		Payment:      conf.Payment,
	}, log)
	if err != nil {
		return err
	}

	// errors from the workflow are copied to admins
	notifyLog := slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelError))

	m := metrics.New()
	c := core.New(store, tgBot, core.Config{
		AdminIds:     conf.Telegram.AdminIds,
		ReviewChatId: conf.Telegram.ReviewChatId,
		TicketPrefix: conf.Registration.TicketPrefix,
	}, m, notifyLog)
	flow := registration.New(sessions, validate.New(rule), c, log)
	tgBot.Attach(c, flow)

	var server *api.Server
	if conf.Listen.Enabled {
		if conf.Api.Token == "" {
			log.Warn("api token is empty, /v1 endpoints will refuse every request")
		}
		router := api.NewRouter(notifyLog, apiHandler{Auth: auth.New(conf.Api.Token), Core: c}, m)
		server = api.New(conf.Listen, notifyLog, router)
		go func() {
			if err := server.Start(); err != nil {
				notifyLog.Error("api server", sl.Err(err))
			}
		}()
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		if server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				log.Warn("stopping api server", sl.Err(err))
			}
		}
		tgBot.Stop()
	}()

	if err = tgBot.Start(); err != nil {
		return err
	}
	log.Info("daftaren stopped")
	return nil
}
