package library

import (
	"context"
	"fmt"
	"testing"
	"time"

	"autoblog/internal/session"
	"autoblog/internal/testsupport"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Library.MaxProjects = 3
	cfg.Library.MaxPosts = 3
	cfg.Library.MaxActivities = 5
	sessions := testsupport.MustOpenStore(t, cfg)
	store, err := NewStore(sessions, cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSaveProjectEvictsOldestBeyondCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 5; i++ {
		_, err := store.SaveProject(ctx, Project{
			WebsiteURL:   fmt.Sprintf("https://site%d.example.com", i),
			BusinessName: fmt.Sprintf("Site %d", i),
		})
		if err != nil {
			t.Fatalf("SaveProject %d: %v", i, err)
		}
	}

	projects, err := store.Projects(ctx)
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("projects = %d, want 3", len(projects))
	}
	if projects[0].WebsiteURL != "https://site4.example.com" {
		t.Fatalf("newest project = %s, want site4", projects[0].WebsiteURL)
	}
	if projects[2].WebsiteURL != "https://site2.example.com" {
		t.Fatalf("oldest survivor = %s, want site2", projects[2].WebsiteURL)
	}
}

func TestRemoveProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project, err := store.SaveProject(ctx, Project{WebsiteURL: "https://acme.example.com"})
	if err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	removed, err := store.RemoveProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if !removed {
		t.Fatal("expected project to be removed")
	}
	removed, err = store.RemoveProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("RemoveProject (again): %v", err)
	}
	if removed {
		t.Fatal("second removal should report nothing deleted")
	}
}

func TestSavePostTracksExportCounter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post, err := store.SavePost(ctx, Post{
		Title:       "Five Coffee Trends",
		Slug:        "five-coffee-trends",
		Content:     "# Five Coffee Trends",
		Format:      "markdown",
		WordCount:   4,
		ReadingTime: 1,
	})
	if err != nil {
		t.Fatalf("SavePost: %v", err)
	}
	if post.ExportCount != 1 {
		t.Fatalf("initial export count = %d, want 1", post.ExportCount)
	}

	if err := store.RecordPostExport(ctx, post.ID); err != nil {
		t.Fatalf("RecordPostExport: %v", err)
	}

	posts, err := store.Posts(ctx)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if posts[0].ExportCount != 2 {
		t.Fatalf("export count = %d, want 2", posts[0].ExportCount)
	}
	if posts[0].LastExportedAt == nil {
		t.Fatal("expected last export timestamp")
	}

	if err := store.RecordPostExport(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown post ID")
	}
}

func TestPostBySession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SavePost(ctx, Post{
		SessionID: 7,
		Title:     "Five Coffee Trends",
		Slug:      "five-coffee-trends",
		Content:   "# Five Coffee Trends",
		Format:    "markdown",
	})
	if err != nil {
		t.Fatalf("SavePost: %v", err)
	}

	post, ok, err := store.PostBySession(ctx, 7)
	if err != nil {
		t.Fatalf("PostBySession: %v", err)
	}
	if !ok {
		t.Fatal("expected to find the session's post")
	}
	if post.ID != saved.ID || post.SessionID != 7 {
		t.Fatalf("unexpected post %+v", post)
	}

	if _, ok, err := store.PostBySession(ctx, 99); err != nil || ok {
		t.Fatalf("expected no post for unknown session, got ok=%v err=%v", ok, err)
	}
}

func TestActivityLogKeepsNewestEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 8; i++ {
		if err := store.RecordActivity(ctx, "export", fmt.Sprintf("event %d", i), 1); err != nil {
			t.Fatalf("RecordActivity %d: %v", i, err)
		}
	}

	events, err := store.RecentActivity(ctx, 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5 (cap)", len(events))
	}
	if events[0].Detail != "event 7" {
		t.Fatalf("newest event = %q, want event 7", events[0].Detail)
	}

	limited, err := store.RecentActivity(ctx, 2)
	if err != nil {
		t.Fatalf("RecentActivity limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited events = %d, want 2", len(limited))
	}
}

func TestSnapshotRoundTripAndExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	current := saved
	store.now = func() time.Time { return current }

	err := store.SaveSnapshot(ctx, Snapshot{
		Owner:     "owner@example.com",
		SessionID: 7,
		Status:    session.StatusEditing,
		Payload:   `{"step":"editing"}`,
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	snap, err := store.LoadSnapshot(ctx, "Owner@Example.com")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.SessionID != 7 || snap.Status != session.StatusEditing {
		t.Fatalf("snapshot = %+v", snap)
	}

	current = saved.Add(25 * time.Hour)
	snap, err = store.LoadSnapshot(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("LoadSnapshot (expired): %v", err)
	}
	if snap != nil {
		t.Fatal("expected expired snapshot to be dropped")
	}
}

func TestSnapshotAnonymousOwnerSharesSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSnapshot(ctx, Snapshot{SessionID: 1, Status: session.StatusPending, Payload: "{}"}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := store.SaveSnapshot(ctx, Snapshot{SessionID: 2, Status: session.StatusAnalyzed, Payload: "{}"}); err != nil {
		t.Fatalf("SaveSnapshot (overwrite): %v", err)
	}

	snap, err := store.LoadSnapshot(ctx, "")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap == nil || snap.SessionID != 2 {
		t.Fatalf("snapshot = %+v, want session 2", snap)
	}

	if err := store.ClearSnapshot(ctx, ""); err != nil {
		t.Fatalf("ClearSnapshot: %v", err)
	}
	snap, err = store.LoadSnapshot(ctx, "")
	if err != nil {
		t.Fatalf("LoadSnapshot (cleared): %v", err)
	}
	if snap != nil {
		t.Fatal("expected cleared snapshot to be gone")
	}
}
