// Package core owns the registration records: committing registrations,
// accepting payment proofs, applying admin decisions and reporting.
//
// Every state change is one load -> mutate -> save span over the whole
// document, serialised by Core.mu. External sends happen after the save and
// never roll it back.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/metrics"
	"github.com/iyann1255/daftaren/lib/sl"
)

const ticketAttempts = 16

var (
	ErrNotRegistered   = errors.New("user is not registered")
	ErrAlreadyPending  = errors.New("payment proof is already pending")
	ErrAlreadyApproved = errors.New("registration is already approved")
	ErrNotEligible     = errors.New("status does not accept payment proof")
	ErrNoImage         = errors.New("message has no image")
	ErrNotAuthorized   = errors.New("admin access required")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadyDecided  = errors.New("payment already decided")
	ErrBadToken        = errors.New("malformed decision token")
)

// Store persists the whole document.
type Store interface {
	Load(ctx context.Context) (*entity.Document, error)
	Save(ctx context.Context, doc *entity.Document) error
}

// Messenger delivers the outbound messages of the workflow.
// Each call is independent and best-effort.
type Messenger interface {
	PaymentInstructions(chatId int64, user *entity.User) error
	PostProof(chatId int64, payment *entity.PendingPayment) error
	PaymentApproved(payment *entity.PendingPayment) error
	PaymentRejected(payment *entity.PendingPayment) error
}

// Config is fixed at start-up.
type Config struct {
	AdminIds     []int64
	ReviewChatId int64
	TicketPrefix string
}

type Core struct {
	store     Store
	messenger Messenger
	conf      Config
	metrics   *metrics.Metrics
	log       *slog.Logger
	mu        sync.Mutex
	now       func() time.Time
	newTicket func() string
}

func New(store Store, messenger Messenger, conf Config, m *metrics.Metrics, log *slog.Logger) *Core {
	if store == nil {
		panic("store is nil")
	}
	if messenger == nil {
		panic("messenger is nil")
	}
	admins := make([]int64, len(conf.AdminIds))
	copy(admins, conf.AdminIds)
	conf.AdminIds = admins

	c := &Core{
		store:     store,
		messenger: messenger,
		conf:      conf,
		metrics:   m,
		log:       log.With(sl.Module("core")),
		now:       time.Now,
	}
	c.newTicket = func() string {
		return TicketCode(c.conf.TicketPrefix)
	}
	return c
}

// TicketCode returns prefix followed by six uppercase hex characters.
func TicketCode(prefix string) string {
	return prefix + strings.ToUpper(uuid.New().String()[:6])
}

func (c *Core) IsAdmin(id int64) bool {
	for _, adminId := range c.conf.AdminIds {
		if adminId == id {
			return true
		}
	}
	return false
}

// Status returns the stored record of a user.
func (c *Core) Status(ctx context.Context, userId int64) (*entity.User, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	user := doc.User(userId)
	if user == nil {
		return nil, ErrNotRegistered
	}
	return user, nil
}

// update runs fn over a freshly loaded document and saves it when fn
// succeeds. The whole span holds c.mu.
func (c *Core) update(ctx context.Context, fn func(doc *entity.Document) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err = fn(doc); err != nil {
		return err
	}
	if err = c.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
