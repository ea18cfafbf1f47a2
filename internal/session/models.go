package session

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a wizard session.
type Status string

const (
	StatusPending           Status = "pending"
	StatusAnalyzing         Status = "analyzing"
	StatusAnalyzed          Status = "analyzed"
	StatusGeneratingTopics  Status = "generating_topics"
	StatusTopicsReady       Status = "topics_ready"
	StatusGeneratingContent Status = "generating_content"
	StatusEditing           Status = "editing"
	StatusRegenerating      Status = "regenerating"
	StatusExporting         Status = "exporting"
	StatusExported          Status = "exported"
	StatusFailed            Status = "failed"
)

// PostState tracks whether the generated article may still be mutated.
// Exported is terminal; any further content mutation is rejected.
type PostState string

const (
	PostStateDraft    PostState = "draft"
	PostStateExported PostState = "exported"
)

// ResetReason is the progress note set when a session is reset by the user.
const ResetReason = "Reset requested by user"

var allStatuses = []Status{
	StatusPending,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusGeneratingTopics,
	StatusTopicsReady,
	StatusGeneratingContent,
	StatusEditing,
	StatusRegenerating,
	StatusExporting,
	StatusExported,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusAnalyzing:         {},
	StatusGeneratingTopics:  {},
	StatusGeneratingContent: {},
	StatusRegenerating:      {},
	StatusExporting:         {},
}

// parkedStatuses are the states in which a session waits for a user action.
var parkedStatuses = map[Status]struct{}{
	StatusAnalyzed:    {},
	StatusTopicsReady: {},
	StatusEditing:     {},
}

// stageRollbacks map an in-flight status back to the step the user can retry
// from when a stage aborts. Generation failures never dead-end a session.
var stageRollbacks = map[Status]Status{
	StatusAnalyzing:         StatusPending,
	StatusGeneratingTopics:  StatusAnalyzed,
	StatusGeneratingContent: StatusTopicsReady,
	StatusRegenerating:      StatusEditing,
	StatusExporting:         StatusEditing,
}

// Session represents a wizard run persisted in SQLite.
type Session struct {
	ID                  int64
	WebsiteURL          string
	Status              Status
	PostState           PostState
	AnalysisJSON        string
	SelectedScenarioID  string
	TopicsJSON          string
	SelectedTopicID     string
	Content             string
	PreviousContent     string
	RegenFeedback       string
	ContentStrategyJSON string
	AccountEmail        string
	DemoMode            bool
	ScenariosUnlocked   bool
	GateReason          string
	ErrorMessage        string
	ExportFormat        string
	ExportPath          string
	ExportedAt          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ProgressStage       string
	ProgressPercent     float64
	ProgressMessage     string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsParkedStatus reports whether a status waits on a user action.
func IsParkedStatus(status Status) bool {
	_, ok := parkedStatuses[status]
	return ok
}

// RollbackStatus returns the step a session returns to when the given
// in-flight stage aborts.
func RollbackStatus(from Status) (Status, bool) {
	to, ok := stageRollbacks[from]
	return to, ok
}

// HasAccount reports whether the session is bound to a signed-in account.
func (s Session) HasAccount() bool {
	return strings.TrimSpace(s.AccountEmail) != ""
}

// ContentLocked reports whether the generated article may no longer be
// mutated. Exporting once, in any format, locks all further edits.
func (s Session) ContentLocked() bool {
	return s.PostState == PostStateExported
}

// InitProgress resets progress fields for a new stage. If ProgressStage is
// currently empty it is set to the provided stage value; otherwise the
// existing stage is preserved to support resume scenarios.
func (s *Session) InitProgress(stage, message string) {
	if s.ProgressStage == "" {
		s.ProgressStage = stage
	}
	s.ProgressMessage = message
	s.ProgressPercent = 0
	s.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (s *Session) SetProgress(stage, message string, percent float64) {
	s.ProgressStage = stage
	s.ProgressMessage = message
	s.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (s *Session) SetProgressComplete(stage, message string) {
	s.SetProgress(stage, message, 100)
}

// SetFailed marks the session as failed with the given error message.
func (s *Session) SetFailed(message string) {
	s.Status = StatusFailed
	s.ErrorMessage = message
	s.ProgressPercent = 0
	s.ProgressMessage = message
	s.ProgressStage = "Failed"
}

// Rollback aborts the current stage and returns the session to the step the
// user can retry from, recording the reason. Sessions with no rollback target
// are marked failed instead.
func (s *Session) Rollback(reason string) {
	prev, ok := RollbackStatus(s.Status)
	if !ok {
		s.SetFailed(reason)
		return
	}
	s.Status = prev
	s.ErrorMessage = reason
	s.ProgressPercent = 0
	s.ProgressMessage = reason
}

// HealthSummary describes aggregated session counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Awaiting   int
	Failed     int
	Exported   int
}

// DatabaseHealth captures diagnostic information about the session database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalSessions    int
	Error            string
}
