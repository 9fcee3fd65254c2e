// Package registration runs the registration conversation: name, contact
// number, confirmation. Answers live in a session until commit or cancel.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/impl/core"
	"github.com/iyann1255/daftaren/internal/session"
	"github.com/iyann1255/daftaren/lib/sl"
)

const ActionPrefix = "reg:"

// Action is a button pressed on the confirmation screen.
type Action string

const (
	ActionConfirm     Action = "ok"
	ActionEditName    Action = "name"
	ActionEditContact Action = "wa"
	ActionCancel      Action = "cancel"
)

// Data returns the callback data of the action button.
func (a Action) Data() string {
	return ActionPrefix + string(a)
}

func ParseAction(data string) (Action, bool) {
	if !strings.HasPrefix(data, ActionPrefix) {
		return "", false
	}
	a := Action(strings.TrimPrefix(data, ActionPrefix))
	switch a {
	case ActionConfirm, ActionEditName, ActionEditContact, ActionCancel:
		return a, true
	}
	return "", false
}

// Kind tells the transport which message to show.
type Kind int

const (
	AskName Kind = iota
	AskContact
	Confirm
	InvalidName
	InvalidContact
	Committed
	Cancelled
	NoSession
)

type Reply struct {
	Kind    Kind
	Session *entity.Session
	// User is set on Committed.
	User *entity.User
	// Err describes the rejected input on InvalidName and InvalidContact,
	// or the failed instructions delivery on Committed.
	Err error
}

type Validator interface {
	Name(input string) (string, error)
	Contact(input string) (string, error)
}

type Committer interface {
	CheckEntry(ctx context.Context, userId int64) error
	Commit(ctx context.Context, reg core.Registration) (*core.CommitResult, error)
}

// Participant identifies who is talking to the bot.
type Participant struct {
	UserId   int64
	ChatId   int64
	Username string
}

type Flow struct {
	sessions  session.Store
	validator Validator
	committer Committer
	log       *slog.Logger
	now       func() time.Time
}

func New(sessions session.Store, validator Validator, committer Committer, log *slog.Logger) *Flow {
	return &Flow{
		sessions:  sessions,
		validator: validator,
		committer: committer,
		log:       log.With(sl.Module("registration")),
		now:       time.Now,
	}
}

// Start opens a new session at the name step. Any previous session of the
// user is replaced. Approved and pending users are turned away with
// core.ErrAlreadyApproved or core.ErrAlreadyPending.
func (f *Flow) Start(ctx context.Context, p Participant) (*Reply, error) {
	if err := f.committer.CheckEntry(ctx, p.UserId); err != nil {
		return nil, err
	}
	now := f.now().UTC()
	s := &entity.Session{
		UserId:    p.UserId,
		ChatId:    p.ChatId,
		Username:  p.Username,
		Step:      entity.StepName,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := f.sessions.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	f.log.Debug("registration started", slog.Int64("user_id", p.UserId))
	return &Reply{Kind: AskName, Session: s}, nil
}

// Active reports whether the user is in the middle of a registration.
func (f *Flow) Active(ctx context.Context, userId int64) (bool, error) {
	s, err := f.sessions.Get(ctx, userId)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// Input handles a text answer for the current step.
func (f *Flow) Input(ctx context.Context, userId int64, text string) (*Reply, error) {
	s, err := f.sessions.Get(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return &Reply{Kind: NoSession}, nil
	}

	switch s.Step {
	case entity.StepName:
		name, err := f.validator.Name(text)
		if err != nil {
			return &Reply{Kind: InvalidName, Session: s, Err: err}, nil
		}
		s.NameIGN = name
		s.Step = entity.StepContact
		return f.advance(ctx, s, AskContact)
	case entity.StepContact:
		wa, err := f.validator.Contact(text)
		if err != nil {
			return &Reply{Kind: InvalidContact, Session: s, Err: err}, nil
		}
		s.WA = wa
		s.Step = entity.StepConfirm
		return f.advance(ctx, s, Confirm)
	default:
		// free text on the confirmation screen shows it again
		return &Reply{Kind: Confirm, Session: s}, nil
	}
}

// Act handles a confirmation screen button.
func (f *Flow) Act(ctx context.Context, userId int64, action Action) (*Reply, error) {
	s, err := f.sessions.Get(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return &Reply{Kind: NoSession}, nil
	}

	if action == ActionCancel {
		if err = f.sessions.Delete(ctx, userId); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		f.log.Debug("registration cancelled", slog.Int64("user_id", userId))
		return &Reply{Kind: Cancelled}, nil
	}

	// buttons of an older confirmation screen stay clickable
	if s.Step != entity.StepConfirm {
		return f.current(s), nil
	}
	switch action {
	case ActionEditName:
		s.Step = entity.StepName
		return f.advance(ctx, s, AskName)
	case ActionEditContact:
		s.Step = entity.StepContact
		return f.advance(ctx, s, AskContact)
	case ActionConfirm:
		return f.commit(ctx, s)
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}

// Cancel drops the session of the user, if any.
func (f *Flow) Cancel(ctx context.Context, userId int64) (bool, error) {
	active, err := f.Active(ctx, userId)
	if err != nil || !active {
		return false, err
	}
	return true, f.sessions.Delete(ctx, userId)
}

func (f *Flow) commit(ctx context.Context, s *entity.Session) (*Reply, error) {
	if _, err := f.validator.Name(s.NameIGN); err != nil {
		s.Step = entity.StepName
		reply, perr := f.advance(ctx, s, InvalidName)
		if perr != nil {
			return nil, perr
		}
		reply.Err = err
		return reply, nil
	}
	if _, err := f.validator.Contact(s.WA); err != nil {
		s.Step = entity.StepContact
		reply, perr := f.advance(ctx, s, InvalidContact)
		if perr != nil {
			return nil, perr
		}
		reply.Err = err
		return reply, nil
	}

	res, err := f.committer.Commit(ctx, core.Registration{
		UserId:   s.UserId,
		ChatId:   s.ChatId,
		Username: s.Username,
		NameIGN:  s.NameIGN,
		WA:       s.WA,
	})
	if err != nil {
		// the guard may have closed since the flow started
		if errors.Is(err, core.ErrAlreadyApproved) || errors.Is(err, core.ErrAlreadyPending) {
			_ = f.sessions.Delete(ctx, s.UserId)
		}
		return nil, err
	}
	if err = f.sessions.Delete(ctx, s.UserId); err != nil {
		f.log.Warn("deleting session", slog.Int64("user_id", s.UserId), sl.Err(err))
	}
	return &Reply{Kind: Committed, Session: s, User: res.User, Err: res.InstructionsErr}, nil
}

func (f *Flow) advance(ctx context.Context, s *entity.Session, kind Kind) (*Reply, error) {
	s.UpdatedAt = f.now().UTC()
	if err := f.sessions.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &Reply{Kind: kind, Session: s}, nil
}

func (f *Flow) current(s *entity.Session) *Reply {
	switch s.Step {
	case entity.StepName:
		return &Reply{Kind: AskName, Session: s}
	case entity.StepContact:
		return &Reply{Kind: AskContact, Session: s}
	}
	return &Reply{Kind: Confirm, Session: s}
}
