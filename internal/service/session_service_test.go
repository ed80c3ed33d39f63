package service

import (
	"testing"
	"time"

	"github.com/momentum-app/momentum-backend/internal/domain"
)

func TestListActiveSessionsFiltersExpiredAndOtherUsers(t *testing.T) {
	repo := newInMemorySessionRepo()
	svc := NewSessionService(repo)

	active := &domain.RefreshSession{UserID: 1, TokenHash: "h1", UserAgent: "cli", IP: "10.0.0.1", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &domain.RefreshSession{UserID: 1, TokenHash: "h2", ExpiresAt: time.Now().Add(-time.Hour)}
	other := &domain.RefreshSession{UserID: 2, TokenHash: "h3", ExpiresAt: time.Now().Add(time.Hour)}
	for _, s := range []*domain.RefreshSession{active, expired, other} {
		if err := repo.Create(s); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	views, err := svc.ListActiveSessions(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(views))
	}
	v := views[0]
	if v.ID != active.ID || v.UserAgent != "cli" || v.IP != "10.0.0.1" {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestListActiveSessionsEmpty(t *testing.T) {
	svc := NewSessionService(newInMemorySessionRepo())
	views, err := svc.ListActiveSessions(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no sessions, got %d", len(views))
	}
}

func TestRevokeSessionScopedToOwner(t *testing.T) {
	repo := newInMemorySessionRepo()
	svc := NewSessionService(repo)

	mine := &domain.RefreshSession{UserID: 1, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(mine); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	// another user cannot revoke it
	removed, err := svc.RevokeSession(2, mine.ID)
	if err != nil {
		t.Fatalf("revoke as other user: %v", err)
	}
	if removed {
		t.Fatal("expected cross-user revoke to be a no-op")
	}

	removed, err = svc.RevokeSession(1, mine.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !removed {
		t.Fatal("expected owner revoke to remove the session")
	}

	// second revoke of the same id reports not-found, not an error
	removed, err = svc.RevokeSession(1, mine.ID)
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if removed {
		t.Fatal("expected second revoke to report nothing removed")
	}
}
