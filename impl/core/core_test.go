package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/metrics"
)

const (
	adminId  int64 = 900
	reviewId int64 = -100200
	userId   int64 = 1001
)

var ticketPattern = regexp.MustCompile(`^UNO-[0-9A-F]{6}$`)

// memStore keeps the document serialised, so every Load returns a fresh copy.
type memStore struct {
	data    []byte
	saves   int
	loadErr error
}

func (s *memStore) Load(_ context.Context) (*entity.Document, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	doc := entity.NewDocument()
	if s.data != nil {
		if err := json.Unmarshal(s.data, doc); err != nil {
			return nil, err
		}
	}
	return doc.Normalize(), nil
}

func (s *memStore) Save(_ context.Context, doc *entity.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

type sentProof struct {
	chatId    int64
	paymentId string
}

type fakeMessenger struct {
	mu           sync.Mutex
	instructions []int64
	proofs       []sentProof
	approved     []*entity.PendingPayment
	rejected     []*entity.PendingPayment
	failChats    map[int64]bool
	failNotify   bool
}

func (m *fakeMessenger) PaymentInstructions(chatId int64, _ *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instructions = append(m.instructions, chatId)
	if m.failChats[chatId] {
		return errors.New("chat not found")
	}
	return nil
}

func (m *fakeMessenger) PostProof(chatId int64, payment *entity.PendingPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failChats[chatId] {
		return errors.New("chat not found")
	}
	m.proofs = append(m.proofs, sentProof{chatId: chatId, paymentId: payment.PaymentId})
	return nil
}

func (m *fakeMessenger) PaymentApproved(payment *entity.PendingPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved = append(m.approved, payment)
	if m.failNotify {
		return errors.New("bot was blocked by the user")
	}
	return nil
}

func (m *fakeMessenger) PaymentRejected(payment *entity.PendingPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, payment)
	if m.failNotify {
		return errors.New("bot was blocked by the user")
	}
	return nil
}

func newTestCore(t *testing.T) (*Core, *memStore, *fakeMessenger) {
	t.Helper()
	store := &memStore{}
	messenger := &fakeMessenger{failChats: make(map[int64]bool)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(store, messenger, Config{
		AdminIds:     []int64{adminId},
		ReviewChatId: reviewId,
		TicketPrefix: "UNO-",
	}, metrics.New(), log)

	clock := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return c, store, messenger
}

func register(t *testing.T, c *Core, id int64) *entity.User {
	t.Helper()
	res, err := c.Commit(context.Background(), Registration{
		UserId:   id,
		ChatId:   id,
		Username: "budi",
		NameIGN:  "Budi",
		WA:       "08123456789",
	})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return res.User
}

func submit(c *Core, id int64) (*ProofResult, error) {
	return c.SubmitProof(context.Background(), Proof{
		UserId:      id,
		ChatId:      id,
		PhotoFileId: "photo-large",
	})
}

func TestCommitAssignsTicket(t *testing.T) {
	c, store, messenger := newTestCore(t)

	user := register(t, c, userId)
	if user.Status != entity.StatusWaitProof {
		t.Errorf("Expected status WAIT_PROOF, got %s", user.Status)
	}
	if !ticketPattern.MatchString(user.Ticket) {
		t.Errorf("Ticket %q does not match %s", user.Ticket, ticketPattern)
	}
	if store.saves != 1 {
		t.Errorf("Expected 1 save, got %d", store.saves)
	}
	if len(messenger.instructions) != 1 || messenger.instructions[0] != userId {
		t.Errorf("Expected instructions sent to %d, got %v", userId, messenger.instructions)
	}
}

func TestCommitKeepsTicket(t *testing.T) {
	c, _, _ := newTestCore(t)

	first := register(t, c, userId)
	second := register(t, c, userId)
	if first.Ticket != second.Ticket {
		t.Errorf("Ticket changed from %s to %s", first.Ticket, second.Ticket)
	}

	// a rejected participant registering again keeps the ticket too
	if _, err := submit(c, userId); err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	pending, _ := c.PendingPayments(context.Background())
	if _, err := c.Decide(context.Background(), adminId, DecisionReject, pending[0].PaymentId); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	third := register(t, c, userId)
	if third.Ticket != first.Ticket {
		t.Errorf("Ticket changed after rejection: %s -> %s", first.Ticket, third.Ticket)
	}
}

func TestCommitSkipsTakenTicket(t *testing.T) {
	c, _, _ := newTestCore(t)
	codes := []string{"UNO-AAAAAA", "UNO-AAAAAA", "UNO-BBBBBB"}
	c.newTicket = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	first := register(t, c, 1)
	second := register(t, c, 2)
	if first.Ticket != "UNO-AAAAAA" || second.Ticket != "UNO-BBBBBB" {
		t.Errorf("Unexpected tickets %s, %s", first.Ticket, second.Ticket)
	}
}

func TestCommitEntryGuard(t *testing.T) {
	c, store, _ := newTestCore(t)
	ctx := context.Background()

	register(t, c, userId)
	if _, err := submit(c, userId); err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if err := c.CheckEntry(ctx, userId); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("Expected ErrAlreadyPending, got %v", err)
	}
	saves := store.saves
	if _, err := c.Commit(ctx, Registration{UserId: userId, NameIGN: "Other"}); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("Expected ErrAlreadyPending, got %v", err)
	}
	if store.saves != saves {
		t.Error("Rejected commit must not save")
	}

	pending, _ := c.PendingPayments(ctx)
	if _, err := c.Decide(ctx, adminId, DecisionApprove, pending[0].PaymentId); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if err := c.CheckEntry(ctx, userId); !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("Expected ErrAlreadyApproved, got %v", err)
	}
	if err := c.CheckEntry(ctx, 555); err != nil {
		t.Errorf("Unknown user should be allowed, got %v", err)
	}
}

func TestCommitInstructionFailureKeepsRecord(t *testing.T) {
	c, _, messenger := newTestCore(t)
	messenger.failChats[userId] = true

	res, err := c.Commit(context.Background(), Registration{UserId: userId, ChatId: userId, NameIGN: "Budi", WA: "08123456789"})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if res.InstructionsErr == nil {
		t.Error("Expected InstructionsErr")
	}
	user, err := c.Status(context.Background(), userId)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if user.Status != entity.StatusWaitProof {
		t.Errorf("Expected WAIT_PROOF, got %s", user.Status)
	}
}

func TestSubmitProofUnregistered(t *testing.T) {
	c, store, messenger := newTestCore(t)

	_, err := submit(c, userId)
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Expected ErrNotRegistered, got %v", err)
	}
	if store.saves != 0 {
		t.Error("Nothing must be saved")
	}
	if len(messenger.proofs) != 0 {
		t.Error("Nothing must be posted")
	}
}

func TestSubmitProofCreatesPayment(t *testing.T) {
	c, _, messenger := newTestCore(t)
	ctx := context.Background()
	user := register(t, c, userId)

	res, err := submit(c, userId)
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if res.Delivery != Delivered {
		t.Errorf("Expected Delivered, got %s", res.Delivery)
	}
	if !strings.HasPrefix(res.Payment.PaymentId, "1001_") {
		t.Errorf("Unexpected payment id %s", res.Payment.PaymentId)
	}

	stored, _ := c.Status(ctx, userId)
	if stored.Status != entity.StatusPending {
		t.Errorf("Expected PENDING, got %s", stored.Status)
	}
	pending, _ := c.PendingPayments(ctx)
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending payment, got %d", len(pending))
	}
	if pending[0].Ticket != user.Ticket || pending[0].UserId != userId {
		t.Errorf("Payment does not reference the user: %+v", pending[0])
	}
	if pending[0].PhotoFileId != "photo-large" {
		t.Errorf("Unexpected photo %s", pending[0].PhotoFileId)
	}
	if len(messenger.proofs) != 1 || messenger.proofs[0].chatId != reviewId {
		t.Errorf("Expected one post to review chat, got %v", messenger.proofs)
	}
}

func TestSubmitProofPreconditions(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)

	if _, err := c.SubmitProof(ctx, Proof{UserId: userId}); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
	if _, err := submit(c, userId); err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if _, err := submit(c, userId); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("Expected ErrAlreadyPending, got %v", err)
	}
	pending, _ := c.PendingPayments(ctx)
	if len(pending) != 1 {
		t.Errorf("Expected 1 pending payment, got %d", len(pending))
	}

	if _, err := c.Decide(ctx, adminId, DecisionApprove, pending[0].PaymentId); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if _, err := submit(c, userId); !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("Expected ErrAlreadyApproved, got %v", err)
	}
}

func TestSubmitProofAfterRejection(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)

	first, err := submit(c, userId)
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if _, err = c.Decide(ctx, adminId, DecisionReject, first.Payment.PaymentId); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	second, err := submit(c, userId)
	if err != nil {
		t.Fatalf("Resubmission failed: %v", err)
	}
	if second.Payment.PaymentId == first.Payment.PaymentId {
		t.Error("Resubmission must get a new payment id")
	}

	doc, _ := c.store.Load(ctx)
	if len(doc.Pending) != 2 {
		t.Fatalf("Expected 2 payments kept, got %d", len(doc.Pending))
	}
	if doc.Pending[first.Payment.PaymentId].Status != entity.StatusRejected {
		t.Error("Earlier payment must keep its REJECTED status")
	}
}

func TestSubmitProofSameSecond(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)
	at := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	first, err := c.SubmitProof(ctx, Proof{UserId: userId, PhotoFileId: "a", SubmittedAt: at})
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if _, err = c.Decide(ctx, adminId, DecisionReject, first.Payment.PaymentId); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	second, err := c.SubmitProof(ctx, Proof{UserId: userId, PhotoFileId: "b", SubmittedAt: at})
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if second.Payment.PaymentId != first.Payment.PaymentId+"_2" {
		t.Errorf("Expected suffixed id, got %s", second.Payment.PaymentId)
	}
}

func TestSubmitProofDelivery(t *testing.T) {
	tests := []struct {
		name     string
		review   int64
		fail     []int64
		expected Delivery
		reached  int
	}{
		{"review chat", reviewId, nil, Delivered, 0},
		{"review chat fails", reviewId, []int64{reviewId}, DeliveredFallback, 1},
		{"no review chat", 0, nil, DeliveredFallback, 1},
		{"nobody reachable", reviewId, []int64{reviewId, adminId}, DeliveryFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, messenger := newTestCore(t)
			c.conf.ReviewChatId = tt.review
			for _, id := range tt.fail {
				messenger.failChats[id] = true
			}
			register(t, c, userId)

			res, err := submit(c, userId)
			if err != nil {
				t.Fatalf("SubmitProof failed: %v", err)
			}
			if res.Delivery != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, res.Delivery)
			}
			if res.Reached != tt.reached {
				t.Errorf("Expected %d admins reached, got %d", tt.reached, res.Reached)
			}
			// stored change survives any delivery result
			user, _ := c.Status(context.Background(), userId)
			if user.Status != entity.StatusPending {
				t.Errorf("Expected PENDING, got %s", user.Status)
			}
		})
	}
}

func TestSubmitProofDeliveryFailedLogsOnce(t *testing.T) {
	c, _, messenger := newTestCore(t)
	var buf bytes.Buffer
	c.log = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	messenger.failChats[reviewId] = true
	messenger.failChats[adminId] = true
	register(t, c, userId)

	res, err := submit(c, userId)
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}
	if got := strings.Count(buf.String(), "level=ERROR"); got != 1 {
		t.Fatalf("Expected 1 error record, got %d:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), res.Payment.PaymentId) {
		t.Errorf("Error record lacks payment id:\n%s", buf.String())
	}
}

func TestDecideApprove(t *testing.T) {
	c, _, messenger := newTestCore(t)
	ctx := context.Background()
	user := register(t, c, userId)
	proof, err := submit(c, userId)
	if err != nil {
		t.Fatalf("SubmitProof failed: %v", err)
	}

	res, err := c.Decide(ctx, adminId, DecisionApprove, proof.Payment.PaymentId)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if res.Payment.Status != entity.StatusApproved || res.Payment.DecidedBy != adminId || res.Payment.DecidedAt == nil {
		t.Errorf("Payment not decided: %+v", res.Payment)
	}
	stored, _ := c.Status(ctx, userId)
	if stored.Status != entity.StatusApproved {
		t.Errorf("Expected APPROVED, got %s", stored.Status)
	}
	if len(messenger.approved) != 1 || messenger.approved[0].Ticket != user.Ticket {
		t.Errorf("Expected approval notice carrying ticket %s", user.Ticket)
	}

	data, err := c.ExportCSV(ctx)
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], user.Ticket+",Budi,08123456789,1001,budi,APPROVED,") {
		t.Errorf("Unexpected row %q", lines[1])
	}
	pending, _ := c.PendingPayments(ctx)
	if len(pending) != 0 {
		t.Errorf("Expected empty pending list, got %d", len(pending))
	}
}

func TestDecideReject(t *testing.T) {
	c, _, messenger := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)
	proof, _ := submit(c, userId)

	if _, err := c.Decide(ctx, adminId, DecisionReject, proof.Payment.PaymentId); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	stored, _ := c.Status(ctx, userId)
	if stored.Status != entity.StatusRejected {
		t.Errorf("Expected REJECTED, got %s", stored.Status)
	}
	if len(messenger.rejected) != 1 {
		t.Errorf("Expected 1 rejection notice, got %d", len(messenger.rejected))
	}
	users, _ := c.ApprovedUsers(ctx)
	if len(users) != 0 {
		t.Errorf("Rejected user must not be exported")
	}
}

func TestDecideTwice(t *testing.T) {
	c, store, messenger := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)
	proof, _ := submit(c, userId)
	pid := proof.Payment.PaymentId

	if _, err := c.Decide(ctx, adminId, DecisionApprove, pid); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	saves := store.saves

	res, err := c.Decide(ctx, adminId, DecisionReject, pid)
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("Expected ErrAlreadyDecided, got %v", err)
	}
	if res == nil || res.Payment.Status != entity.StatusApproved {
		t.Error("Expected the stored decision to be returned")
	}
	if store.saves != saves {
		t.Error("Second decision must not save")
	}
	if len(messenger.approved) != 1 || len(messenger.rejected) != 0 {
		t.Error("Second decision must not notify")
	}
	stored, _ := c.Status(ctx, userId)
	if stored.Status != entity.StatusApproved {
		t.Errorf("Status overwritten: %s", stored.Status)
	}
}

func TestDecideUnknownPayment(t *testing.T) {
	c, store, _ := newTestCore(t)

	_, err := c.Decide(context.Background(), adminId, DecisionApprove, "1001_1")
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("Expected ErrPaymentNotFound, got %v", err)
	}
	if store.saves != 0 {
		t.Error("Nothing must be saved")
	}
}

func TestDecideNotAdmin(t *testing.T) {
	c, _, messenger := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)
	proof, _ := submit(c, userId)

	_, err := c.Decide(ctx, userId, DecisionApprove, proof.Payment.PaymentId)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized, got %v", err)
	}
	stored, _ := c.Status(ctx, userId)
	if stored.Status != entity.StatusPending {
		t.Errorf("Status changed to %s", stored.Status)
	}
	if len(messenger.approved) != 0 {
		t.Error("No notice expected")
	}
}

func TestDecideNotifyFailure(t *testing.T) {
	c, _, messenger := newTestCore(t)
	ctx := context.Background()
	register(t, c, userId)
	proof, _ := submit(c, userId)
	messenger.failNotify = true

	res, err := c.Decide(ctx, adminId, DecisionApprove, proof.Payment.PaymentId)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if res.NotifyErr == nil {
		t.Error("Expected NotifyErr")
	}
	stored, _ := c.Status(ctx, userId)
	if stored.Status != entity.StatusApproved {
		t.Errorf("Expected APPROVED, got %s", stored.Status)
	}
}

func TestToken(t *testing.T) {
	tests := []struct {
		data     string
		decision Decision
		pid      string
		ok       bool
	}{
		{"pay:ok:1001_1790000000", DecisionApprove, "1001_1790000000", true},
		{"pay:no:1001_1790000000_2", DecisionReject, "1001_1790000000_2", true},
		{"pay:maybe:1001_1", "", "", false},
		{"pay:ok:", "", "", false},
		{"reg:ok", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			d, pid, err := ParseToken(tt.data)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseToken(%q) error = %v", tt.data, err)
			}
			if d != tt.decision || pid != tt.pid {
				t.Errorf("ParseToken(%q) = %s, %s", tt.data, d, pid)
			}
			if tt.ok && Token(d, pid) != tt.data {
				t.Errorf("Token round trip gave %s", Token(d, pid))
			}
		})
	}
}

func TestLoadFailureIsReturned(t *testing.T) {
	c, store, _ := newTestCore(t)
	store.loadErr = errors.New("connection refused")

	if _, err := c.Commit(context.Background(), Registration{UserId: userId}); err == nil {
		t.Error("Expected load error")
	}
	if store.saves != 0 {
		t.Error("Nothing must be saved")
	}
}

func TestTicketCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := TicketCode("UNO-")
		if !ticketPattern.MatchString(code) {
			t.Fatalf("TicketCode() = %s", code)
		}
	}
}
