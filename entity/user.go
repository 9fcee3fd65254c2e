package entity

import (
	"strconv"
	"time"
)

// Status is the registration state of a participant, also used as the
// state of a single payment proof.
type Status string

const (
	StatusForm      Status = "FORM"       // filling the registration form
	StatusWaitProof Status = "WAIT_PROOF" // registered, payment proof expected
	StatusPending   Status = "PENDING"    // proof submitted, awaiting admin decision
	StatusApproved  Status = "APPROVED"   // payment accepted, participant confirmed
	StatusRejected  Status = "REJECTED"   // proof rejected, resubmission allowed
)

// User is one participant, keyed by the Telegram user id.
// Ticket is assigned on the first committed registration and never changes.
type User struct {
	UserId    int64     `json:"user_id" bson:"user_id"`
	ChatId    int64     `json:"chat_id" bson:"chat_id"`
	Username  string    `json:"username" bson:"username"`
	NameIGN   string    `json:"name_ign" bson:"name_ign"`
	WA        string    `json:"wa" bson:"wa"`
	Ticket    string    `json:"ticket,omitempty" bson:"ticket,omitempty"`
	Status    Status    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) Key() string {
	return UserKey(u.UserId)
}

func (u *User) IsApproved() bool {
	return u.Status == StatusApproved
}

func (u *User) IsPending() bool {
	return u.Status == StatusPending
}

// CanSubmitProof reports whether a payment proof is accepted in the current status.
func (u *User) CanSubmitProof() bool {
	return u.Status == StatusWaitProof || u.Status == StatusRejected
}

func UserKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
