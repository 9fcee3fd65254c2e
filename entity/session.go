package entity

import "time"

// Step is a position in the registration conversation.
type Step string

const (
	StepName    Step = "FORM_NAME"
	StepContact Step = "FORM_CONTACT"
	StepConfirm Step = "CONFIRM"
)

// Session holds the not-yet-persisted answers of one user's registration.
// It lives only between /daftar and commit, cancel or expiry.
type Session struct {
	UserId    int64     `json:"user_id"`
	ChatId    int64     `json:"chat_id"`
	Username  string    `json:"username"`
	Step      Step      `json:"step"`
	NameIGN   string    `json:"name_ign"`
	WA        string    `json:"wa"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
