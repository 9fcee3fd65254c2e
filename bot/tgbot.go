// Package bot is the Telegram front of the registration workflow.
//
//   - tgbot.go     - TgBot struct, lifecycle (Start/Stop), handler registration
//   - commands.go  - participant commands and the text and photo handlers
//   - admin.go     - admin commands: /pending, /export, /approve, /reject
//   - callbacks.go - inline keyboards and callback query handlers
//   - menus.go     - per-role command menus
//   - messaging.go - outbound messages used by the core (core.Messenger)
//   - texts.go     - message builders
//   - helpers.go   - Sanitize, plainResponse, reportError and friends
//
// The bot keeps no state of its own: registration answers live in the
// session store behind Flow, records live behind Core.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/impl/core"
	"github.com/iyann1255/daftaren/impl/registration"
	"github.com/iyann1255/daftaren/internal/config"
	"github.com/iyann1255/daftaren/lib/sl"
)

const requestTimeout = 15 * time.Second

// Config holds the static settings of the bot.
type Config struct {
	AdminIds     []int64
	ReviewChatId int64
	Payment      config.Payment
}

// Core is the record keeping the bot drives. Implemented by impl/core.
type Core interface {
	IsAdmin(id int64) bool
	Status(ctx context.Context, userId int64) (*entity.User, error)
	SubmitProof(ctx context.Context, proof core.Proof) (*core.ProofResult, error)
	Decide(ctx context.Context, actorId int64, decision core.Decision, paymentId string) (*core.DecisionResult, error)
	PendingPayments(ctx context.Context) ([]*entity.PendingPayment, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

// Flow is the registration conversation. Implemented by impl/registration.
type Flow interface {
	Start(ctx context.Context, p registration.Participant) (*registration.Reply, error)
	Input(ctx context.Context, userId int64, text string) (*registration.Reply, error)
	Act(ctx context.Context, userId int64, action registration.Action) (*registration.Reply, error)
	Cancel(ctx context.Context, userId int64) (bool, error)
}

type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    Core
	flow    Flow
	config  Config
	updater *ext.Updater
}

func NewTgBot(apiKey string, cfg Config, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		config: cfg,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// Attach wires the workflow in. The core needs the bot as its messenger,
// so both are created first and joined here.
func (t *TgBot) Attach(c Core, f Flow) {
	t.core = c
	t.flow = f
}

func (t *TgBot) Start() error {
	if t.core == nil || t.flow == nil {
		return fmt.Errorf("workflow is not attached")
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// Participant commands
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("daftar", t.daftar))
	dispatcher.AddHandler(handlers.NewCommand("status", t.status))
	dispatcher.AddHandler(handlers.NewCommand("bayar", t.bayar))
	dispatcher.AddHandler(handlers.NewCommand("batal", t.batal))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))

	// Admin commands
	dispatcher.AddHandler(handlers.NewCommand("pending", t.pending))
	dispatcher.AddHandler(handlers.NewCommand("export", t.export))
	dispatcher.AddHandler(handlers.NewCommand("approve", t.approve))
	dispatcher.AddHandler(handlers.NewCommand("reject", t.reject))

	// Callback query handlers
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(registration.ActionPrefix), t.onRegistrationCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbDecision), t.onDecisionCallback))

	// Private chat content: proof photos and registration answers
	dispatcher.AddHandler(handlers.NewMessage(isPrivatePhoto, t.onPhoto))
	dispatcher.AddHandler(handlers.NewMessage(isPrivateText, t.onText))

	t.setDefaultCommands()
	t.syncAdminMenus()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.With(
		slog.String("username", t.api.Username),
		slog.Int("admins", len(t.config.AdminIds)),
		slog.Int64("review_chat", t.config.ReviewChatId),
	).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}

func isPrivatePhoto(msg *tgbotapi.Message) bool {
	return msg.Chat.Type == "private" && len(msg.Photo) > 0
}

func isPrivateText(msg *tgbotapi.Message) bool {
	return msg.Chat.Type == "private" && msg.Text != "" && !strings.HasPrefix(msg.Text, "/")
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
