package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"autoblog/internal/config"
)

// Store manages wizard session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "autoblog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for sibling stores sharing the database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// NewSession inserts a fresh session for a validated website URL.
func (s *Store) NewSession(ctx context.Context, websiteURL, accountEmail string, demoMode bool) (*Session, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	strategyJSON, err := DefaultContentStrategy().ToJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal default strategy: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO wizard_sessions (
            website_url, status, post_state, content_strategy_json,
            account_email, demo_mode, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		websiteURL,
		StatusPending,
		PostStateDraft,
		strategyJSON,
		nullableString(accountEmail),
		boolToInt(demoMode),
		timestamp,
		timestamp,
		nil,
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a session by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM wizard_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Latest returns the most recently created session, if any.
func (s *Store) Latest(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM wizard_sessions ORDER BY id DESC LIMIT 1`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}

// Update persists changes to an existing session.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	sess.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE wizard_sessions
         SET website_url = ?, status = ?, post_state = ?, analysis_json = ?,
             selected_scenario_id = ?, topics_json = ?, selected_topic_id = ?,
             content = ?, previous_content = ?, regen_feedback = ?,
             content_strategy_json = ?,
             account_email = ?, demo_mode = ?, scenarios_unlocked = ?,
             gate_reason = ?, error_message = ?, export_format = ?,
             export_path = ?, exported_at = ?, updated_at = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?
         WHERE id = ?`,
		sess.WebsiteURL,
		sess.Status,
		sess.PostState,
		nullableString(sess.AnalysisJSON),
		nullableString(sess.SelectedScenarioID),
		nullableString(sess.TopicsJSON),
		nullableString(sess.SelectedTopicID),
		nullableString(sess.Content),
		nullableString(sess.PreviousContent),
		nullableString(sess.RegenFeedback),
		nullableString(sess.ContentStrategyJSON),
		nullableString(sess.AccountEmail),
		boolToInt(sess.DemoMode),
		boolToInt(sess.ScenariosUnlocked),
		nullableString(sess.GateReason),
		nullableString(sess.ErrorMessage),
		nullableString(sess.ExportFormat),
		nullableString(sess.ExportPath),
		nullableTime(sess.ExportedAt),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(sess.ProgressStage),
		sess.ProgressPercent,
		nullableString(sess.ProgressMessage),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// List returns sessions filtered by status set (or all sessions when no
// status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM wizard_sessions`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// NextForStatuses returns the oldest session matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Session, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + sessionColumns + ` FROM wizard_sessions WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ResetStuckProcessing rolls sessions stuck mid-stage back to the step they
// can retry from. Used on startup after an unclean shutdown.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	var total int64
	for from := range processingStatuses {
		to, ok := RollbackStatus(from)
		if !ok {
			to = StatusFailed
		}
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE wizard_sessions
             SET status = ?, progress_stage = 'Reset from stuck processing',
                 progress_percent = 0, progress_message = NULL, updated_at = ?
             WHERE status = ?`,
			to,
			time.Now().UTC().Format(time.RFC3339Nano),
			from,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck sessions: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed moves failed sessions back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE wizard_sessions
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed sessions: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE wizard_sessions
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected sessions: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of sessions grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM wizard_sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates session state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusPending:
			health.Pending += count
		case status == StatusFailed:
			health.Failed += count
		case status == StatusExported:
			health.Exported += count
		case IsProcessingStatus(status):
			health.Processing += count
		case IsParkedStatus(status):
			health.Awaiting += count
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the session database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		DBPath:        s.path,
		SchemaVersion: "current",
	}

	if s.path == "" {
		return health, errors.New("session database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat session database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("session database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("session database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping session database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'wizard_sessions'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		colsRows, err := s.db.QueryContext(connCtx, "PRAGMA table_info(wizard_sessions)")
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("table info: %w", err)
		}
		defer colsRows.Close()

		var columns []string
		for colsRows.Next() {
			var (
				cid     int
				name    string
				typeStr string
				notNull int
				dflt    any
				pk      int
			)
			if err := colsRows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
				health.Error = err.Error()
				return health, fmt.Errorf("scan table info: %w", err)
			}
			columns = append(columns, name)
		}
		if err := colsRows.Err(); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("iterate table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, columns...)

		expected := strings.Split(sessionColumns, ", ")
		missingMap := make(map[string]struct{}, len(expected))
		for _, col := range expected {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM wizard_sessions")
		if err := row.Scan(&health.TotalSessions); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count sessions: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

// Remove deletes a session by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all sessions.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return res.RowsAffected()
}

// ClearExported removes only exported sessions.
func (s *Store) ClearExported(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE status = ?`, StatusExported)
	if err != nil {
		return 0, fmt.Errorf("clear exported: %w", err)
	}
	return res.RowsAffected()
}

const sessionColumns = "id, website_url, status, post_state, analysis_json, selected_scenario_id, topics_json, selected_topic_id, content, previous_content, regen_feedback, content_strategy_json, account_email, demo_mode, scenarios_unlocked, gate_reason, error_message, export_format, export_path, exported_at, created_at, updated_at, progress_stage, progress_percent, progress_message"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id               int64
		websiteURL       string
		statusStr        string
		postStateStr     string
		analysisJSON     sql.NullString
		selectedScenario sql.NullString
		topicsJSON       sql.NullString
		selectedTopic    sql.NullString
		content          sql.NullString
		previousContent  sql.NullString
		regenFeedback    sql.NullString
		strategyJSON     sql.NullString
		accountEmail     sql.NullString
		demoMode         sql.NullInt64
		unlocked         sql.NullInt64
		gateReason       sql.NullString
		errorMessage     sql.NullString
		exportFormat     sql.NullString
		exportPath       sql.NullString
		exportedRaw      sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&websiteURL,
		&statusStr,
		&postStateStr,
		&analysisJSON,
		&selectedScenario,
		&topicsJSON,
		&selectedTopic,
		&content,
		&previousContent,
		&regenFeedback,
		&strategyJSON,
		&accountEmail,
		&demoMode,
		&unlocked,
		&gateReason,
		&errorMessage,
		&exportFormat,
		&exportPath,
		&exportedRaw,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:                  id,
		WebsiteURL:          websiteURL,
		Status:              Status(statusStr),
		PostState:           PostState(postStateStr),
		AnalysisJSON:        analysisJSON.String,
		SelectedScenarioID:  selectedScenario.String,
		TopicsJSON:          topicsJSON.String,
		SelectedTopicID:     selectedTopic.String,
		Content:             content.String,
		PreviousContent:     previousContent.String,
		RegenFeedback:       regenFeedback.String,
		ContentStrategyJSON: strategyJSON.String,
		AccountEmail:        accountEmail.String,
		GateReason:          gateReason.String,
		ErrorMessage:        errorMessage.String,
		ExportFormat:        exportFormat.String,
		ExportPath:          exportPath.String,
		ProgressStage:       progressStage.String,
		ProgressPercent:     progressPercent.Float64,
		ProgressMessage:     progressMessage.String,
	}
	if demoMode.Valid {
		sess.DemoMode = demoMode.Int64 != 0
	}
	if unlocked.Valid {
		sess.ScenariosUnlocked = unlocked.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		sess.UpdatedAt = updated
	}
	if exportedRaw.Valid {
		if exported, err := parseTimeString(exportedRaw.String); err == nil {
			sess.ExportedAt = &exported
		}
	}
	return sess, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
