package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/sl"
)

// Decision is an admin verdict on a payment proof.
type Decision string

const (
	DecisionApprove Decision = "ok"
	DecisionReject  Decision = "no"

	tokenPrefix = "pay:"
)

func (d Decision) Status() entity.Status {
	if d == DecisionApprove {
		return entity.StatusApproved
	}
	return entity.StatusRejected
}

// Token builds the callback data carried by the review buttons.
func Token(d Decision, paymentId string) string {
	return tokenPrefix + string(d) + ":" + paymentId
}

// ParseToken splits "pay:<ok|no>:<payment id>".
func ParseToken(data string) (Decision, string, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0]+":" != tokenPrefix || parts[2] == "" {
		return "", "", ErrBadToken
	}
	d := Decision(parts[1])
	if d != DecisionApprove && d != DecisionReject {
		return "", "", ErrBadToken
	}
	return d, parts[2], nil
}

type DecisionResult struct {
	Payment *entity.PendingPayment
	// NotifyErr is set when the participant could not be told.
	NotifyErr error
}

// Decide applies an admin decision to an open payment. Unknown or already
// decided payments return ErrPaymentNotFound or ErrAlreadyDecided and change
// nothing; for the latter the stored payment is returned too.
func (c *Core) Decide(ctx context.Context, actorId int64, decision Decision, paymentId string) (*DecisionResult, error) {
	if !c.IsAdmin(actorId) {
		return nil, ErrNotAuthorized
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, ErrBadToken
	}

	var payment *entity.PendingPayment
	err := c.update(ctx, func(doc *entity.Document) error {
		payment = doc.Pending[paymentId]
		if payment == nil {
			return ErrPaymentNotFound
		}
		if !payment.IsOpen() {
			return ErrAlreadyDecided
		}

		now := c.now().UTC()
		status := decision.Status()
		payment.Status = status
		payment.DecidedAt = &now
		payment.DecidedBy = actorId

		if user := doc.User(payment.UserId); user != nil {
			user.Status = status
			user.UpdatedAt = now
			if payment.Ticket == "" {
				payment.Ticket = user.Ticket
			}
		}
		return nil
	})
	if errors.Is(err, ErrAlreadyDecided) {
		return &DecisionResult{Payment: payment}, err
	}
	if err != nil {
		return nil, err
	}

	log := c.log.With(
		slog.String("payment_id", payment.PaymentId),
		slog.Int64("user_id", payment.UserId),
		slog.Int64("admin_id", actorId),
		slog.String("status", string(payment.Status)),
	)
	log.Info("payment decided")
	c.metrics.Decision(strings.ToLower(string(payment.Status)))

	result := &DecisionResult{Payment: payment}
	if decision == DecisionApprove {
		err = c.messenger.PaymentApproved(payment)
	} else {
		err = c.messenger.PaymentRejected(payment)
	}
	if err != nil {
		log.Warn("notifying participant", sl.Err(err))
		result.NotifyErr = fmt.Errorf("notify participant: %w", err)
	}
	return result, nil
}
