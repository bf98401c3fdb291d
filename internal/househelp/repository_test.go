package househelp

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/gatepass/internal/credential"
	"github.com/evcraddock/gatepass/internal/db"
)

func TestRepositorySaveAndList(t *testing.T) {
	repo := testRepository(t)
	s := NewStore(credential.NewIssuer())

	john, err := s.Register(johnDoe())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	jane, err := s.Register(Registration{Name: "Jane Smith", Category: "Maid", Phone: "0987654321"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, w := range []Worker{john, jane} {
		if err := repo.Save(w); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	workers, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(workers) != 2 {
		t.Fatalf("got %d workers, want 2", len(workers))
	}
	if workers[0].ID != john.ID || workers[1].ID != jane.ID {
		t.Errorf("order = [%s %s], want registration order", workers[0].Name, workers[1].Name)
	}
	if workers[0].Passcode != john.Passcode {
		t.Errorf("passcode = %q, want %q", workers[0].Passcode, john.Passcode)
	}
	if workers[0].LastEntryAt != nil || workers[0].LastExitAt != nil {
		t.Error("expected no timestamps before any transition")
	}
}

func TestRepositorySaveUpdatesStatus(t *testing.T) {
	repo := testRepository(t)
	s := NewStore(credential.NewIssuer())

	w, err := s.Register(johnDoe())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := repo.Save(w); err != nil {
		t.Fatalf("save: %v", err)
	}
	in, err := s.Transition(w.ID, StatusIn)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := repo.Save(in); err != nil {
		t.Fatalf("save after transition: %v", err)
	}

	workers, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(workers) != 1 {
		t.Fatalf("got %d workers, want 1", len(workers))
	}
	got := workers[0]
	if got.Status != StatusIn {
		t.Errorf("status = %q, want in", got.Status)
	}
	if got.LastEntryAt == nil || !got.LastEntryAt.Equal(*in.LastEntryAt) {
		t.Errorf("last entry = %v, want %v", got.LastEntryAt, in.LastEntryAt)
	}
}

func TestRepositoryRoundTripIntoStore(t *testing.T) {
	repo := testRepository(t)
	exit := time.Date(2026, 2, 8, 18, 0, 0, 0, time.UTC)
	w := Worker{
		ID: "abc", Name: "John Doe", Category: Cook, Phone: "1234567890",
		Passcode: "123456", Status: StatusOut, LastExitAt: &exit,
		AvatarRef: avatarRef("abc"), CreatedAt: exit,
	}
	if err := repo.Save(w); err != nil {
		t.Fatalf("save: %v", err)
	}

	saved, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	s := NewStore(credential.NewIssuer())
	if err := s.Load(saved); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := s.Get("abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastExitAt == nil || !got.LastExitAt.Equal(exit) {
		t.Errorf("last exit = %v, want %v", got.LastExitAt, exit)
	}
}

func testRepository(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}
