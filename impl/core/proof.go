package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/lib/sl"
)

// Delivery is the outcome of posting a proof for review.
type Delivery int

const (
	Delivered         Delivery = iota // posted to the review chat
	DeliveredFallback                 // review chat failed or unset, at least one admin reached
	DeliveryFailed                    // nobody was reached
)

func (d Delivery) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case DeliveredFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Proof is an incoming payment proof message.
type Proof struct {
	UserId      int64
	ChatId      int64
	Username    string
	PhotoFileId string
	SubmittedAt time.Time
}

type ProofResult struct {
	Payment  *entity.PendingPayment
	Delivery Delivery
	// Reached counts admins reached directly on the fallback path.
	Reached int
}

// SubmitProof accepts a payment proof from a user in WAIT_PROOF or REJECTED
// status, marks the user PENDING, records a new payment and posts it for
// review. Delivery failures do not undo the stored change.
func (c *Core) SubmitProof(ctx context.Context, proof Proof) (*ProofResult, error) {
	var payment *entity.PendingPayment
	err := c.update(ctx, func(doc *entity.Document) error {
		user := doc.User(proof.UserId)
		if user == nil {
			return ErrNotRegistered
		}
		switch {
		case user.IsPending():
			return ErrAlreadyPending
		case user.IsApproved():
			return ErrAlreadyApproved
		case !user.CanSubmitProof():
			return fmt.Errorf("%w: %s", ErrNotEligible, user.Status)
		}
		if proof.PhotoFileId == "" {
			return ErrNoImage
		}

		submittedAt := proof.SubmittedAt
		if submittedAt.IsZero() {
			submittedAt = c.now()
		}
		now := c.now().UTC()
		if proof.Username != "" {
			user.Username = proof.Username
		}
		if proof.ChatId != 0 {
			user.ChatId = proof.ChatId
		}
		user.Status = entity.StatusPending
		user.UpdatedAt = now

		payment = &entity.PendingPayment{
			PaymentId:   entity.PaymentId(user.UserId, submittedAt),
			UserId:      user.UserId,
			ChatId:      user.ChatId,
			Username:    user.Username,
			NameIGN:     user.NameIGN,
			WA:          user.WA,
			Ticket:      user.Ticket,
			PhotoFileId: proof.PhotoFileId,
			Status:      entity.StatusPending,
			CreatedAt:   now,
		}
		doc.AddPayment(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.With(
		slog.Int64("user_id", payment.UserId),
		slog.String("payment_id", payment.PaymentId),
	).Info("payment proof stored")

	result := c.deliverProof(payment)
	c.metrics.ProofSubmitted(result.Delivery.String())
	return result, nil
}

// deliverProof posts to the review chat, then falls back to every admin.
func (c *Core) deliverProof(payment *entity.PendingPayment) *ProofResult {
	result := &ProofResult{Payment: payment}
	log := c.log.With(slog.String("payment_id", payment.PaymentId))

	if c.conf.ReviewChatId != 0 {
		err := c.messenger.PostProof(c.conf.ReviewChatId, payment)
		if err == nil {
			result.Delivery = Delivered
			return result
		}
		log.Warn("posting proof to review chat",
			slog.Int64("chat_id", c.conf.ReviewChatId),
			sl.Err(err),
		)
	}

	for _, adminId := range c.conf.AdminIds {
		if err := c.messenger.PostProof(adminId, payment); err != nil {
			log.Warn("posting proof to admin",
				slog.Int64("admin_id", adminId),
				sl.Err(err),
			)
			continue
		}
		result.Reached++
	}

	if result.Reached > 0 {
		result.Delivery = DeliveredFallback
		return result
	}
	result.Delivery = DeliveryFailed
	log.Error("payment proof not delivered to any admin, decide it from the pending list")
	return result
}
