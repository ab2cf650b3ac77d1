package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cslab/cschat/internal/database"
	"github.com/cslab/cschat/internal/log"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "cschat.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return New(db.DB, log.NewNop())
}

func TestNewSessionID(t *testing.T) {
	id1 := NewSessionID()
	id2 := NewSessionID()

	if !strings.HasPrefix(id1, "session_") {
		t.Errorf("NewSessionID() = %q, want session_ prefix", id1)
	}
	if id1 == id2 {
		t.Errorf("NewSessionID() returned duplicate id %q", id1)
	}
}

func TestAppendAndListScenario(t *testing.T) {
	// The canonical round trip: user "Hello", assistant "Hi there".
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendMessage(ctx, "s1", RoleUser, "Hello"); err != nil {
		t.Fatalf("appending user message: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "s1", RoleAssistant, "Hi there"); err != nil {
		t.Fatalf("appending assistant message: %v", err)
	}

	msgs, err := store.Messages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Messages() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("first message = %s %q, want user \"Hello\"", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "Hi there" {
		t.Errorf("second message = %s %q, want assistant \"Hi there\"", msgs[1].Role, msgs[1].Content)
	}
}

func TestMessagesInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := store.AppendMessage(ctx, "s1", role, strings.Repeat("x", i+1)); err != nil {
			t.Fatalf("appending message %d: %v", i, err)
		}
	}

	msgs, err := store.Messages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if len(msgs) != n {
		t.Fatalf("Messages() returned %d messages, want %d", len(msgs), n)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID <= msgs[i-1].ID {
			t.Fatalf("message ids not strictly increasing: %d then %d", msgs[i-1].ID, msgs[i].ID)
		}
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.AppendMessage(ctx, "s1", RoleUser, "first")
	if err != nil {
		t.Fatalf("appending first message: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := store.AppendMessage(ctx, "s1", RoleAssistant, "later"); err != nil {
			t.Fatalf("appending message %d: %v", i, err)
		}
	}

	msgs, err := store.Messages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if msgs[0].ID != first.ID || msgs[0].Content != "first" || msgs[0].Role != RoleUser {
		t.Errorf("earlier message mutated: got %+v", msgs[0])
	}
	if len(msgs) != 6 {
		t.Errorf("Messages() returned %d messages, want 6", len(msgs))
	}
}

func TestAppendValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		sessionID string
		role      string
		content   string
		wantErr   error
	}{
		{name: "empty session", sessionID: "", role: RoleUser, content: "hi", wantErr: ErrEmptySessionID},
		{name: "blank session", sessionID: "   ", role: RoleUser, content: "hi", wantErr: ErrEmptySessionID},
		{name: "bad role", sessionID: "s1", role: "model", content: "hi", wantErr: ErrInvalidRole},
		{name: "empty content", sessionID: "s1", role: RoleUser, content: "", wantErr: ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AppendMessage(ctx, tt.sessionID, tt.role, tt.content)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AppendMessage() = %v, want errors.Is(%v)", err, tt.wantErr)
			}
		})
	}
}

func TestAppendCreatesSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendMessage(ctx, "fresh", RoleUser, "hi"); err != nil {
		t.Fatalf("AppendMessage() failed: %v", err)
	}

	sess, err := store.Session(ctx, "fresh")
	if err != nil {
		t.Fatalf("Session() after append: %v", err)
	}
	if sess.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", sess.MessageCount)
	}
}

func TestSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Session(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Session() = %v, want ErrSessionNotFound", err)
	}
}

func TestListSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateSession(ctx, "a", "First"); err != nil {
		t.Fatalf("creating session a: %v", err)
	}
	if _, err := store.CreateSession(ctx, "b", ""); err != nil {
		t.Fatalf("creating session b: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "b", RoleUser, "hi"); err != nil {
		t.Fatalf("appending to b: %v", err)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("ListSessions() returned %d sessions, want 2", len(sessions))
	}

	byID := map[string]*Session{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	if byID["a"].MessageCount != 0 {
		t.Errorf("session a MessageCount = %d, want 0", byID["a"].MessageCount)
	}
	if byID["b"].MessageCount != 1 {
		t.Errorf("session b MessageCount = %d, want 1", byID["b"].MessageCount)
	}
	if got := byID["b"].DisplayName(); got != "b" {
		t.Errorf("unnamed session DisplayName() = %q, want id fallback", got)
	}
}

func TestRenameSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateSession(ctx, "s1", ""); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	if err := store.RenameSession(ctx, "s1", "Weather talk"); err != nil {
		t.Fatalf("RenameSession() failed: %v", err)
	}

	sess, err := store.Session(ctx, "s1")
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if sess.Name != "Weather talk" {
		t.Errorf("Name = %q, want %q", sess.Name, "Weather talk")
	}

	if err := store.RenameSession(ctx, "missing", "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("renaming missing session = %v, want ErrSessionNotFound", err)
	}
	if err := store.RenameSession(ctx, "s1", "  "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("renaming to blank = %v, want ErrEmptyName", err)
	}
}

func TestRecentMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three", "four"} {
		if _, err := store.AppendMessage(ctx, "s1", RoleUser, content); err != nil {
			t.Fatalf("appending %q: %v", content, err)
		}
	}

	msgs, err := store.RecentMessages(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("RecentMessages() failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("RecentMessages() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "three" || msgs[1].Content != "four" {
		t.Errorf("RecentMessages() = %q, %q; want chronological \"three\", \"four\"",
			msgs[0].Content, msgs[1].Content)
	}
}

func TestClearSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendMessage(ctx, "s1", RoleUser, "hello"); err != nil {
		t.Fatalf("appending: %v", err)
	}
	if _, err := store.AppendMessage(ctx, "s2", RoleUser, "other"); err != nil {
		t.Fatalf("appending: %v", err)
	}

	if err := store.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("ClearSession() failed: %v", err)
	}

	if _, err := store.Session(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Session() after clear = %v, want ErrSessionNotFound", err)
	}
	// Cascade must not touch other sessions.
	msgs, err := store.Messages(ctx, "s2", 0)
	if err != nil {
		t.Fatalf("Messages(s2) failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("s2 has %d messages after clearing s1, want 1", len(msgs))
	}

	// Cascade removed the orphaned messages too.
	cleared, err := store.Messages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("Messages(s1) failed: %v", err)
	}
	if len(cleared) != 0 {
		t.Errorf("s1 has %d messages after clear, want 0", len(cleared))
	}
}

func TestValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{role: RoleUser, want: true},
		{role: RoleAssistant, want: true},
		{role: RoleSystem, want: true},
		{role: "model", want: false},
		{role: "", want: false},
		{role: "User", want: false},
	}

	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.want {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
