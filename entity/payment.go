package entity

import (
	"fmt"
	"time"
)

// PendingPayment is a single proof-of-payment submission. Records are never
// deleted; a decided payment keeps its terminal status for audit and export.
type PendingPayment struct {
	PaymentId   string     `json:"payment_id" bson:"payment_id"`
	UserId      int64      `json:"user_id" bson:"user_id"`
	ChatId      int64      `json:"chat_id" bson:"chat_id"`
	Username    string     `json:"username" bson:"username"`
	NameIGN     string     `json:"name_ign" bson:"name_ign"`
	WA          string     `json:"wa" bson:"wa"`
	Ticket      string     `json:"ticket" bson:"ticket"`
	PhotoFileId string     `json:"photo_file_id" bson:"photo_file_id"`
	Status      Status     `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
	DecidedBy   int64      `json:"decided_by,omitempty" bson:"decided_by,omitempty"`
}

func (p *PendingPayment) IsOpen() bool {
	return p.Status == StatusPending
}

// PaymentId derives the payment key from the owner and submission time.
func PaymentId(userId int64, submittedAt time.Time) string {
	return fmt.Sprintf("%d_%d", userId, submittedAt.Unix())
}
