// Package library stores the ancillary collections that outlive a single
// wizard session: saved projects, exported posts, the activity log, and
// best-effort workflow snapshots. Every collection is a capped SQLite ring
// buffer; inserting past the cap evicts the oldest rows.
package library

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"autoblog/internal/config"
	"autoblog/internal/session"
)

//go:embed schema.sql
var schemaSQL string

// Store persists the library collections. It shares the session database so
// a single file under the data directory holds all local state.
type Store struct {
	db  *sql.DB
	cfg *config.Config
	now func() time.Time
}

// NewStore attaches the library tables to the session store's database.
func NewStore(sessions *session.Store, cfg *config.Config) (*Store, error) {
	if sessions == nil {
		return nil, errors.New("library: nil session store")
	}
	s := &Store{db: sessions.DB(), cfg: cfg, now: time.Now}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("create library schema: %w", err)
	}
	return s, nil
}

func (s *Store) maxProjects() int   { return capOrDefault(s.cfg.Library.MaxProjects, 50) }
func (s *Store) maxPosts() int      { return capOrDefault(s.cfg.Library.MaxPosts, 100) }
func (s *Store) maxActivities() int { return capOrDefault(s.cfg.Library.MaxActivities, 1000) }

func (s *Store) snapshotTTL() time.Duration {
	hours := s.cfg.Library.SnapshotTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func capOrDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// Project is a saved website the user can return to without re-running
// analysis.
type Project struct {
	ID           string
	WebsiteURL   string
	BusinessName string
	AnalysisJSON string
	CreatedAt    time.Time
}

// SaveProject records a project, evicting the oldest entries beyond the cap.
func (s *Store) SaveProject(ctx context.Context, project Project) (Project, error) {
	if strings.TrimSpace(project.WebsiteURL) == "" {
		return Project{}, errors.New("library: project requires a website URL")
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_projects (id, website_url, business_name, analysis_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		project.ID, project.WebsiteURL, project.BusinessName, project.AnalysisJSON,
		project.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Project{}, fmt.Errorf("save project: %w", err)
	}
	if err := s.evict(ctx, "saved_projects", "created_at", s.maxProjects()); err != nil {
		return Project{}, err
	}
	return project, nil
}

// Projects returns saved projects, newest first.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, website_url, business_name, analysis_json, created_at
         FROM saved_projects ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var businessName, analysisJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.WebsiteURL, &businessName, &analysisJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.BusinessName = businessName.String
		p.AnalysisJSON = analysisJSON.String
		p.CreatedAt = parseTime(createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// RemoveProject deletes a saved project by ID.
func (s *Store) RemoveProject(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Post is an exported article kept in the local library with its export
// counter.
type Post struct {
	ID             string
	SessionID      int64
	Title          string
	Slug           string
	Content        string
	Format         string
	WordCount      int
	ReadingTime    int
	ExportCount    int
	CreatedAt      time.Time
	LastExportedAt *time.Time
}

// SavePost records an exported post with an initial export count of one.
// Re-exporting the same post goes through RecordPostExport instead.
func (s *Store) SavePost(ctx context.Context, post Post) (Post, error) {
	if strings.TrimSpace(post.Title) == "" {
		return Post{}, errors.New("library: post requires a title")
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := s.now().UTC()
	post.CreatedAt = now
	post.LastExportedAt = &now
	if post.ExportCount <= 0 {
		post.ExportCount = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_posts
           (id, session_id, title, slug, content, format, word_count, reading_time, export_count, created_at, last_exported_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.SessionID, post.Title, post.Slug, post.Content, post.Format,
		post.WordCount, post.ReadingTime, post.ExportCount,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return Post{}, fmt.Errorf("save post: %w", err)
	}
	if err := s.evict(ctx, "saved_posts", "created_at", s.maxPosts()); err != nil {
		return Post{}, err
	}
	return post, nil
}

// RecordPostExport bumps the export counter for an existing post.
func (s *Store) RecordPostExport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_posts SET export_count = export_count + 1, last_exported_at = ? WHERE id = ?`,
		s.now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("record post export: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record post export: no post with id %s", id)
	}
	return nil
}

// PostBySession returns the saved post that belongs to a wizard session,
// so re-exports can find the row SavePost created.
func (s *Store) PostBySession(ctx context.Context, sessionID int64) (Post, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, title, slug, content, format, word_count, reading_time, export_count, created_at, last_exported_at
         FROM saved_posts WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, sessionID)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, false, nil
	}
	if err != nil {
		return Post{}, false, fmt.Errorf("find post for session %d: %w", sessionID, err)
	}
	return post, true, nil
}

// Posts returns saved posts, newest first.
func (s *Store) Posts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, title, slug, content, format, word_count, reading_time, export_count, created_at, last_exported_at
         FROM saved_posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var sessionID sql.NullInt64
	var createdAt string
	var lastExported sql.NullString
	if err := row.Scan(&p.ID, &sessionID, &p.Title, &p.Slug, &p.Content, &p.Format,
		&p.WordCount, &p.ReadingTime, &p.ExportCount, &createdAt, &lastExported); err != nil {
		return Post{}, err
	}
	p.SessionID = sessionID.Int64
	p.CreatedAt = parseTime(createdAt)
	if lastExported.Valid {
		ts := parseTime(lastExported.String)
		p.LastExportedAt = &ts
	}
	return p, nil
}

// Activity is a single event in the local activity log.
type Activity struct {
	ID         string
	Kind       string
	Detail     string
	SessionID  int64
	OccurredAt time.Time
}

// RecordActivity appends an event to the activity log.
func (s *Store) RecordActivity(ctx context.Context, kind, detail string, sessionID int64) error {
	if strings.TrimSpace(kind) == "" {
		return errors.New("library: activity requires a kind")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_events (id, kind, detail, session_id, occurred_at)
         VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), kind, detail, sessionID,
		s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return s.evict(ctx, "activity_events", "occurred_at", s.maxActivities())
}

// RecentActivity returns up to limit events, newest first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, detail, session_id, occurred_at
         FROM activity_events ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var events []Activity
	for rows.Next() {
		var a Activity
		var detail sql.NullString
		var sessionID sql.NullInt64
		var occurredAt string
		if err := rows.Scan(&a.ID, &a.Kind, &detail, &sessionID, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Detail = detail.String
		a.SessionID = sessionID.Int64
		a.OccurredAt = parseTime(occurredAt)
		events = append(events, a)
	}
	return events, rows.Err()
}

// evict trims a ring-buffer table down to max rows, dropping the oldest.
func (s *Store) evict(ctx context.Context, table, orderColumn string, max int) error {
	query := fmt.Sprintf(
		`DELETE FROM %s WHERE id NOT IN (SELECT id FROM %s ORDER BY %s DESC, id DESC LIMIT ?)`,
		table, table, orderColumn)
	if _, err := s.db.ExecContext(ctx, query, max); err != nil {
		return fmt.Errorf("trim %s: %w", table, err)
	}
	return nil
}

func parseTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
