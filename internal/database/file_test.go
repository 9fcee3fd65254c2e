package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJSONFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registrations.json")
	store := NewJSONFile(path, testLogger())

	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	decided := created.Add(time.Hour)
	doc := entity.NewDocument()
	doc.PutUser(&entity.User{
		UserId:    1001,
		ChatId:    1001,
		Username:  "budi",
		NameIGN:   "Budi <Pro> & Co",
		WA:        "08123456789",
		Ticket:    "UNO-A1B2C3",
		Status:    entity.StatusApproved,
		CreatedAt: created,
		UpdatedAt: decided,
	})
	doc.AddPayment(&entity.PendingPayment{
		PaymentId:   "1001_1790000000",
		UserId:      1001,
		Ticket:      "UNO-A1B2C3",
		PhotoFileId: "photo-1",
		Status:      entity.StatusApproved,
		CreatedAt:   created,
		DecidedAt:   &decided,
		DecidedBy:   5504473114,
	})

	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !strings.Contains(string(raw), "Budi <Pro> & Co") {
		t.Error("Expected HTML characters to be written unescaped")
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(doc, loaded) {
		t.Errorf("Round trip mismatch:\nsaved:  %+v\nloaded: %+v", doc, loaded)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the document file, found %d entries", len(entries))
	}
}

func TestJSONFileMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	missing := NewJSONFile(filepath.Join(dir, "none.json"), testLogger())
	doc, err := missing.Load(ctx)
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if len(doc.Users) != 0 || len(doc.Pending) != 0 {
		t.Error("Expected empty document for missing file")
	}

	corruptPath := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corruptPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	doc, err = NewJSONFile(corruptPath, testLogger()).Load(ctx)
	if err != nil {
		t.Fatalf("Load of corrupt file failed: %v", err)
	}
	if doc.Users == nil || doc.Pending == nil {
		t.Error("Expected initialised maps for corrupt file")
	}
}

func TestJSONFileLegacyPendingOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.json")
	legacy := `{"pending": {"77_1700000000": {"user_id": 77, "chat_id": 77, "username": "x", "created_at": "2023-11-14T22:13:20.123456Z", "status": "PENDING"}}}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	doc, err := NewJSONFile(path, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Users == nil {
		t.Fatal("Expected users map to be initialised")
	}
	p := doc.Pending["77_1700000000"]
	if p == nil {
		t.Fatal("Expected legacy pending entry")
	}
	if p.PaymentId != "77_1700000000" {
		t.Errorf("Expected payment id filled from key, got %q", p.PaymentId)
	}
	if p.CreatedAt.IsZero() {
		t.Error("Expected created_at to be parsed")
	}
}

func TestNewSelectsDriver(t *testing.T) {
	if _, err := New(configStorage("sqlite"), testLogger()); err == nil {
		t.Error("Expected error for unknown driver")
	}
	store, err := New(configStorage("file"), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := store.(*JSONFile); !ok {
		t.Errorf("Expected *JSONFile, got %T", store)
	}
}

func configStorage(driver string) config.Storage {
	return config.Storage{Driver: driver, Path: filepath.Join(os.TempDir(), "daftaren-test.json")}
}
