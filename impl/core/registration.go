package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/sl"
)

// Registration is the data collected by the registration conversation.
type Registration struct {
	UserId   int64
	ChatId   int64
	Username string
	NameIGN  string
	WA       string
}

type CommitResult struct {
	User *entity.User
	// InstructionsErr is set when the payment instructions could not be sent.
	InstructionsErr error
}

// CheckEntry tells whether the user may start (or finish) a registration.
func (c *Core) CheckEntry(ctx context.Context, userId int64) error {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return entryAllowed(doc.User(userId))
}

func entryAllowed(user *entity.User) error {
	if user == nil {
		return nil
	}
	switch user.Status {
	case entity.StatusApproved:
		return ErrAlreadyApproved
	case entity.StatusPending:
		return ErrAlreadyPending
	}
	return nil
}

// Commit stores the registration with status WAIT_PROOF and sends the
// payment instructions. A ticket is generated only when the user has none.
func (c *Core) Commit(ctx context.Context, reg Registration) (*CommitResult, error) {
	var user *entity.User
	err := c.update(ctx, func(doc *entity.Document) error {
		user = doc.User(reg.UserId)
		if err := entryAllowed(user); err != nil {
			return err
		}
		now := c.now().UTC()
		if user == nil {
			user = &entity.User{
				UserId:    reg.UserId,
				CreatedAt: now,
			}
		}
		user.ChatId = reg.ChatId
		user.Username = reg.Username
		user.NameIGN = reg.NameIGN
		user.WA = reg.WA
		if user.Ticket == "" {
			ticket, err := c.uniqueTicket(doc)
			if err != nil {
				return err
			}
			user.Ticket = ticket
		}
		user.Status = entity.StatusWaitProof
		user.UpdatedAt = now
		doc.PutUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RegistrationCommitted()
	log := c.log.With(
		slog.Int64("user_id", user.UserId),
		slog.String("ticket", user.Ticket),
	)
	log.Info("registration committed")

	result := &CommitResult{User: user}
	if err = c.messenger.PaymentInstructions(user.ChatId, user); err != nil {
		log.Warn("sending payment instructions", sl.Err(err))
		result.InstructionsErr = err
	}
	return result, nil
}

func (c *Core) uniqueTicket(doc *entity.Document) (string, error) {
	for i := 0; i < ticketAttempts; i++ {
		ticket := c.newTicket()
		if !doc.HasTicket(ticket) {
			return ticket, nil
		}
	}
	return "", fmt.Errorf("no free ticket code after %d attempts", ticketAttempts)
}
