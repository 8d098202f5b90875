package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"taskmind/internal/embedding"
	"taskmind/internal/logging"
)

// ErrNotFound is returned when a task id does not exist for the user.
var ErrNotFound = errors.New("task not found")

// Store is the SQLite-backed task store. All methods are safe for concurrent
// use. An embedding engine is optional: without one, Search degrades to
// keyword matching.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	engine embedding.Engine

	// now supplies the clock for timestamps and overdue checks.
	now func() time.Time
}

// NewStore opens (creating if needed) the task database at the given path.
func NewStore(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewStore")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: path, now: time.Now}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Task store opened at %s", path)
	return store, nil
}

// initialize creates the tasks table and its indexes.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'pending',
		tags TEXT NOT NULL DEFAULT '[]',
		due_date TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		embedding TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	return nil
}

// SetEngine configures the embedding engine. Must be set before Add for
// tasks to receive embeddings; tasks stored without one are still findable
// via the keyword fallback and can be backfilled with ReembedAll.
func (s *Store) SetEngine(engine embedding.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

// Close closes the database.
func (s *Store) Close() error {
	logging.Store("Closing task store at %s", s.dbPath)
	return s.db.Close()
}

// Add stores a new task, generating its id and embedding. The task's ID,
// timestamps, and defaulted fields are filled in on the passed struct.
func (s *Store) Add(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.UserID == "" {
		return fmt.Errorf("task requires a user id")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task requires a title")
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.normalize()
	nowTime := s.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = nowTime
	}
	t.UpdatedAt = nowTime

	embeddingJSON := s.embedLocked(ctx, t.embeddingText())
	tagsJSON, _ := json.Marshal(t.Tags)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, priority, status, tags, due_date, completed, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Priority, t.Status,
		string(tagsJSON), t.DueDate, boolToInt(t.Completed), embeddingJSON, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	logging.Store("Added task %s for user %s: %q", t.ID, t.UserID, t.Title)
	return nil
}

// embedLocked returns the JSON-serialized embedding for text, or an empty
// string when no engine is configured or embedding fails. Failure is not
// fatal: the task stays reachable through the keyword fallback.
func (s *Store) embedLocked(ctx context.Context, text string) string {
	if s.engine == nil {
		return ""
	}
	vec, err := s.engine.Embed(ctx, text)
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("embedding failed, storing without vector: %v", err)
		return ""
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return ""
	}
	return string(data)
}

// Get retrieves one task by id, scoped to the user.
func (s *Store) Get(ctx context.Context, userID, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		taskColumns+" FROM tasks WHERE user_id = ? AND id = ?", userID, id)
	return scanTask(row)
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Status    string
	Priority  string
	Tag       string
	DueBefore string // YYYY-MM-DD, exclusive
	Limit     int
}

// List returns the user's tasks, newest first, honoring the filter.
func (s *Store) List(ctx context.Context, userID string, f Filter) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := taskColumns + " FROM tasks WHERE user_id = ?"
	args := []interface{}{userID}

	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		query += " AND priority = ?"
		args = append(args, f.Priority)
	}
	if f.DueBefore != "" {
		query += " AND due_date != '' AND due_date < ?"
		args = append(args, f.DueBefore)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			continue
		}
		if f.Tag != "" && !containsTag(t.Tags, f.Tag) {
			continue
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update rewrites a task's mutable fields and regenerates its embedding when
// the text content changed. The task must already exist for the user.
func (s *Store) Update(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(ctx, t.UserID, t.ID)
	if err != nil {
		return err
	}

	t.normalize()
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now().UTC()
	tagsJSON, _ := json.Marshal(t.Tags)

	textChanged := existing.embeddingText() != t.embeddingText()
	if textChanged {
		embeddingJSON := s.embedLocked(ctx, t.embeddingText())
		_, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET title=?, description=?, priority=?, status=?, tags=?, due_date=?, completed=?, embedding=?, updated_at=?
			 WHERE user_id=? AND id=?`,
			t.Title, t.Description, t.Priority, t.Status, string(tagsJSON), t.DueDate,
			boolToInt(t.Completed), embeddingJSON, t.UpdatedAt, t.UserID, t.ID,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET title=?, description=?, priority=?, status=?, tags=?, due_date=?, completed=?, updated_at=?
			 WHERE user_id=? AND id=?`,
			t.Title, t.Description, t.Priority, t.Status, string(tagsJSON), t.DueDate,
			boolToInt(t.Completed), t.UpdatedAt, t.UserID, t.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	logging.StoreDebug("Updated task %s (reembedded=%v)", t.ID, textChanged)
	return nil
}

// UpdateField sets a single field (title, description, priority, status,
// due_date) on a task. Used by the chat path where the interpreter yields
// one field/value pair.
func (s *Store) UpdateField(ctx context.Context, userID, id, field, value string) (*Task, error) {
	s.mu.Lock()
	t, err := s.getLocked(ctx, userID, id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	switch field {
	case "title":
		t.Title = value
	case "description":
		t.Description = value
	case "priority":
		t.Priority = value
	case "status":
		t.Status = value
		t.Completed = value == StatusCompleted
	case "due_date":
		t.DueDate = value
	default:
		return nil, fmt.Errorf("unknown task field %q", field)
	}

	if err := s.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logging.Store("Deleted task %s for user %s", id, userID)
	return nil
}

// DeleteAll removes every task belonging to the user.
func (s *Store) DeleteAll(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the number of tasks stored for the user.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// SearchResult pairs a task with its similarity to the query. Similarity is
// cosine similarity for semantic matches and 0 for keyword fallback hits.
type SearchResult struct {
	Task       Task
	Similarity float64
}

// Search ranks the user's tasks against the query. With an engine configured
// it embeds the query and ranks by cosine similarity; without one, or when
// the query embedding fails, it falls back to keyword matching.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Search")
	defer timer.Stop()

	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.searchKeyword(ctx, userID, query, limit)
	}

	// Embed before taking the lock; the engine call is a network round-trip
	// and must not block writers.
	queryVec, err := engine.Embed(ctx, query)
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("query embedding failed, using keyword search: %v", err)
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.searchKeyword(ctx, userID, query, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		taskColumns+", embedding FROM tasks WHERE user_id = ? AND embedding IS NOT NULL AND embedding != ''",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	var vectors [][]float32
	for rows.Next() {
		t, vec, err := scanTaskWithEmbedding(rows)
		if err != nil {
			continue
		}
		tasks = append(tasks, *t)
		vectors = append(vectors, vec)
	}

	ranked, err := embedding.FindTopK(queryVec, vectors, limit)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, SearchResult{Task: tasks[r.Index], Similarity: r.Similarity})
	}

	logging.StoreDebug("Semantic search %q for user %s: %d results", query, userID, len(results))
	return results, nil
}

// searchKeyword is the fallback: any query word matching title, description,
// or tags counts as a hit, newest first.
func (s *Store) searchKeyword(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var conditions []string
	args := []interface{}{userID}
	for _, kw := range keywords {
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)")
		pat := "%" + kw + "%"
		args = append(args, pat, pat, pat)
	}

	query2 := taskColumns + " FROM tasks WHERE user_id = ? AND (" + strings.Join(conditions, " OR ") + ") ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query2, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			continue
		}
		results = append(results, SearchResult{Task: *t})
	}
	return results, nil
}

// ReembedAll regenerates embeddings for the user's tasks that lack one.
// Useful after enabling an embedding engine on an existing database.
func (s *Store) ReembedAll(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return 0, fmt.Errorf("no embedding engine configured")
	}

	rows, err := s.db.QueryContext(ctx,
		taskColumns+" FROM tasks WHERE user_id = ? AND (embedding IS NULL OR embedding = '')", userID)
	if err != nil {
		return 0, err
	}

	var pending []Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			continue
		}
		pending = append(pending, *t)
	}
	rows.Close()

	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i := range pending {
		texts[i] = pending[i].embeddingText()
	}

	vecs, err := s.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("batch embedding failed: %w", err)
	}

	updated := 0
	for i, t := range pending {
		data, err := json.Marshal(vecs[i])
		if err != nil {
			continue
		}
		if _, err := s.db.ExecContext(ctx, "UPDATE tasks SET embedding = ? WHERE id = ?", string(data), t.ID); err != nil {
			return updated, fmt.Errorf("failed to update task %s: %w", t.ID, err)
		}
		updated++
	}

	logging.Store("Reembedded %d tasks for user %s", updated, userID)
	return updated, nil
}

// Stats summarizes a user's tasks.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	TagCounts  map[string]int `json:"tag_counts"`
	Completed  int            `json:"completed"`
	Overdue    int            `json:"overdue"`
	DueToday   int            `json:"due_today"`
}

// Statistics aggregates counts by status, priority, and tag, plus overdue
// and due-today totals relative to the store clock.
func (s *Store) Statistics(ctx context.Context, userID string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, taskColumns+" FROM tasks WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	stats := &Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
		TagCounts:  make(map[string]int),
	}
	nowTime := s.now()
	today := nowTime.Format("2006-01-02")

	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			continue
		}
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		for _, tag := range t.Tags {
			stats.TagCounts[tag]++
		}
		if t.Completed {
			stats.Completed++
		}
		if t.IsOverdue(nowTime) {
			stats.Overdue++
		}
		if t.DueDate == today && !t.Completed {
			stats.DueToday++
		}
	}
	return stats, rows.Err()
}

// getLocked is Get without acquiring the lock; callers hold it.
func (s *Store) getLocked(ctx context.Context, userID, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		taskColumns+" FROM tasks WHERE user_id = ? AND id = ?", userID, id)
	return scanTask(row)
}

// =============================================================================
// ROW SCANNING
// =============================================================================

const taskColumns = "SELECT id, user_id, title, description, priority, status, tags, due_date, completed, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskInto(sc rowScanner, extra ...interface{}) (*Task, error) {
	var t Task
	var tagsJSON string
	var completed int
	dest := []interface{}{
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&tagsJSON, &t.DueDate, &completed, &t.CreatedAt, &t.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := sc.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	t.Completed = completed != 0
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
			logging.Get(logging.CategoryStore).Warn("corrupt tags for task %s, treating as untagged: %v", t.ID, err)
		}
	}
	return &t, nil
}

func scanTask(row *sql.Row) (*Task, error) { return scanTaskInto(row) }

func scanTaskRows(rows *sql.Rows) (*Task, error) { return scanTaskInto(rows) }

func scanTaskWithEmbedding(rows *sql.Rows) (*Task, []float32, error) {
	var embeddingJSON string
	t, err := scanTaskInto(rows, &embeddingJSON)
	if err != nil {
		return nil, nil, err
	}
	var vec []float32
	if err := json.Unmarshal([]byte(embeddingJSON), &vec); err != nil {
		return nil, nil, fmt.Errorf("corrupt embedding for task %s: %w", t.ID, err)
	}
	return t, vec, nil
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
