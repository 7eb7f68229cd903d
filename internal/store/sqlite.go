package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Repository = (*SQLiteStore)(nil)

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS parents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS teachers (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		classroom TEXT
	);

	CREATE TABLE IF NOT EXISTS children (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		birth_date INTEGER NOT NULL,
		classroom TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_children_classroom ON children(classroom) WHERE is_active = 1;

	CREATE TABLE IF NOT EXISTS parent_child_links (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		relationship TEXT NOT NULL DEFAULT 'parent',
		is_primary INTEGER NOT NULL DEFAULT 0,
		can_pickup INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (parent_id, child_id)
	);

	CREATE TABLE IF NOT EXISTS knowledge_documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		document_type TEXT NOT NULL DEFAULT 'FAQ',
		agent_target TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		uploaded_by TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_updated ON knowledge_documents(updated_at) WHERE is_active = 1;

	CREATE TABLE IF NOT EXISTS agent_configs (
		agent_type TEXT PRIMARY KEY,
		system_prompt TEXT,
		temperature REAL,
		max_tokens INTEGER,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const knowledgeColumns = `id, title, content, document_type, agent_target, tags, uploaded_by, is_active, created_at, updated_at`

// ActiveKnowledgeDocuments returns active documents targeting any of types.
func (s *SQLiteStore) ActiveKnowledgeDocuments(ctx context.Context, types []persona.AgentType) ([]daycare.KnowledgeDocument, error) {
	if len(types) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(types))
	args := make([]any, len(types))
	for i, t := range types {
		placeholders[i] = "?"
		args[i] = string(t)
	}

	query := `
		SELECT ` + knowledgeColumns + `
		FROM knowledge_documents
		WHERE is_active = 1
		  AND EXISTS (
			SELECT 1 FROM json_each(knowledge_documents.agent_target)
			WHERE json_each.value IN (` + strings.Join(placeholders, ", ") + `)
		  )
		ORDER BY updated_at DESC, rowid DESC`

	return s.queryKnowledge(ctx, query, args...)
}

// ListKnowledgeDocuments returns every document, most recently updated first.
func (s *SQLiteStore) ListKnowledgeDocuments(ctx context.Context) ([]daycare.KnowledgeDocument, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_documents ORDER BY updated_at DESC, rowid DESC`
	return s.queryKnowledge(ctx, query)
}

func (s *SQLiteStore) queryKnowledge(ctx context.Context, query string, args ...any) ([]daycare.KnowledgeDocument, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query knowledge documents: %w", err)
	}
	defer rows.Close()

	var docs []daycare.KnowledgeDocument
	for rows.Next() {
		doc, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge documents: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKnowledge(row rowScanner) (*daycare.KnowledgeDocument, error) {
	var doc daycare.KnowledgeDocument
	var targetsJSON, tagsJSON string
	var active int
	var createdAt, updatedAt int64

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.DocumentType,
		&targetsJSON, &tagsJSON, &doc.UploadedBy, &active,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(targetsJSON), &doc.AgentTargets); err != nil {
		return nil, fmt.Errorf("decode agent_target of %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", doc.ID, err)
	}
	doc.IsActive = active == 1
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &doc, nil
}

// CreateKnowledgeDocument inserts a document.
func (s *SQLiteStore) CreateKnowledgeDocument(ctx context.Context, doc *daycare.KnowledgeDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.DocumentType == "" {
		doc.DocumentType = "FAQ"
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	targets, tags, err := encodeLists(doc.AgentTargets, doc.Tags)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO knowledge_documents (` + knowledgeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Content, doc.DocumentType,
		targets, tags, doc.UploadedBy, boolToInt(doc.IsActive),
		doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert knowledge document: %w", err)
	}
	return nil
}

// UpdateKnowledgeDocument applies patch to the document with the given id.
func (s *SQLiteStore) UpdateKnowledgeDocument(ctx context.Context, id string, patch KnowledgePatch) (*daycare.KnowledgeDocument, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+knowledgeColumns+` FROM knowledge_documents WHERE id = ?`, id)
	doc, err := scanKnowledge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load knowledge document: %w", err)
	}

	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Content != nil {
		doc.Content = *patch.Content
	}
	if patch.DocumentType != nil {
		doc.DocumentType = *patch.DocumentType
	}
	if patch.AgentTargets != nil {
		doc.AgentTargets = *patch.AgentTargets
	}
	if patch.Tags != nil {
		doc.Tags = *patch.Tags
	}
	if patch.IsActive != nil {
		doc.IsActive = *patch.IsActive
	}
	doc.UpdatedAt = time.Now().UTC()

	targets, tags, err := encodeLists(doc.AgentTargets, doc.Tags)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE knowledge_documents
		SET title = ?, content = ?, document_type = ?, agent_target = ?, tags = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		doc.Title, doc.Content, doc.DocumentType, targets, tags,
		boolToInt(doc.IsActive), doc.UpdatedAt.UnixNano(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update knowledge document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit knowledge update: %w", err)
	}
	return doc, nil
}

// AgentConfig returns the config for agentType, or nil when none exists.
func (s *SQLiteStore) AgentConfig(ctx context.Context, agentType persona.AgentType) (*daycare.AgentConfig, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_type, system_prompt, temperature, max_tokens, updated_at
		FROM agent_configs WHERE agent_type = ?`, string(agentType))

	var cfg daycare.AgentConfig
	var rawType string
	var prompt sql.NullString
	var temperature sql.NullFloat64
	var maxTokens sql.NullInt64
	var updatedAt int64

	err := row.Scan(&rawType, &prompt, &temperature, &maxTokens, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent config: %w", err)
	}

	cfg.AgentType = persona.AgentType(rawType)
	if prompt.Valid {
		cfg.SystemPrompt = &prompt.String
	}
	if temperature.Valid {
		cfg.Temperature = &temperature.Float64
	}
	if maxTokens.Valid {
		n := int(maxTokens.Int64)
		cfg.MaxTokens = &n
	}
	cfg.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &cfg, nil
}

// UpsertAgentConfig creates or replaces the config for cfg.AgentType.
func (s *SQLiteStore) UpsertAgentConfig(ctx context.Context, cfg *daycare.AgentConfig) error {
	cfg.UpdatedAt = time.Now().UTC()

	var prompt, temperature, maxTokens any
	if cfg.SystemPrompt != nil {
		prompt = *cfg.SystemPrompt
	}
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.MaxTokens != nil {
		maxTokens = *cfg.MaxTokens
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO agent_configs (agent_type, system_prompt, temperature, max_tokens, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(agent_type) DO UPDATE SET
		system_prompt = excluded.system_prompt,
		temperature = excluded.temperature,
		max_tokens = excluded.max_tokens,
		updated_at = excluded.updated_at`,
		string(cfg.AgentType), prompt, temperature, maxTokens, cfg.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert agent config: %w", err)
	}
	return nil
}

// ParentByUserID resolves the parent profile of a user account.
func (s *SQLiteStore) ParentByUserID(ctx context.Context, userID string) (*daycare.Parent, error) {
	return s.parentWhere(ctx, "user_id = ?", userID)
}

func (s *SQLiteStore) parentWhere(ctx context.Context, cond string, arg any) (*daycare.Parent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, full_name, email, phone FROM parents WHERE `+cond, arg)

	var p daycare.Parent
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan parent row: %w", err)
	}
	return &p, nil
}

// TeacherByUserID resolves the teacher profile of a user account.
func (s *SQLiteStore) TeacherByUserID(ctx context.Context, userID string) (*daycare.Teacher, error) {
	return s.teacherWhere(ctx, "user_id = ?", userID)
}

// Teacher loads a teacher by profile id.
func (s *SQLiteStore) Teacher(ctx context.Context, teacherID string) (*daycare.Teacher, error) {
	return s.teacherWhere(ctx, "id = ?", teacherID)
}

func (s *SQLiteStore) teacherWhere(ctx context.Context, cond string, arg any) (*daycare.Teacher, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, full_name, email, phone, classroom FROM teachers WHERE `+cond, arg)

	var t daycare.Teacher
	var classroom sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.FullName, &t.Email, &t.Phone, &classroom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan teacher row: %w", err)
	}
	t.Classroom = classroom.String
	return &t, nil
}

// ParentProfile loads a parent and its linked children.
func (s *SQLiteStore) ParentProfile(ctx context.Context, parentID string) (*daycare.ParentProfile, error) {
	parent, err := s.parentWhere(ctx, "id = ?", parentID)
	if err != nil || parent == nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.full_name, c.birth_date, c.classroom, c.is_active
		FROM parent_child_links l
		JOIN children c ON c.id = l.child_id
		WHERE l.parent_id = ?
		ORDER BY l.is_primary DESC, c.full_name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query linked children: %w", err)
	}
	defer rows.Close()

	profile := &daycare.ParentProfile{Parent: *parent}
	for rows.Next() {
		var c daycare.Child
		var birth int64
		var active int
		if err := rows.Scan(&c.ID, &c.FullName, &birth, &c.Classroom, &active); err != nil {
			return nil, fmt.Errorf("scan child row: %w", err)
		}
		c.BirthDate = time.Unix(birth, 0).UTC()
		c.IsActive = active == 1
		profile.Children = append(profile.Children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked children: %w", err)
	}
	return profile, nil
}

// CountActiveChildren counts active children in a classroom.
func (s *SQLiteStore) CountActiveChildren(ctx context.Context, classroom string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM children WHERE classroom = ? AND is_active = 1`, classroom,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

// UpsertParent creates or updates a parent keyed by user id.
func (s *SQLiteStore) UpsertParent(ctx context.Context, p *daycare.Parent) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx, `
	INSERT INTO parents (id, user_id, full_name, email, phone)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		full_name = excluded.full_name,
		email = excluded.email,
		phone = excluded.phone
	RETURNING id`,
		p.ID, p.UserID, p.FullName, p.Email, p.Phone,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upsert parent: %w", err)
	}
	return nil
}

// UpsertTeacher creates or updates a teacher keyed by user id.
func (s *SQLiteStore) UpsertTeacher(ctx context.Context, t *daycare.Teacher) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	var classroom any
	if t.Classroom != "" {
		classroom = t.Classroom
	}
	err := s.db.QueryRowContext(ctx, `
	INSERT INTO teachers (id, user_id, full_name, email, phone, classroom)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		full_name = excluded.full_name,
		email = excluded.email,
		phone = excluded.phone,
		classroom = excluded.classroom
	RETURNING id`,
		t.ID, t.UserID, t.FullName, t.Email, t.Phone, classroom,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	return nil
}

// UpsertChild creates or updates a child keyed by id.
func (s *SQLiteStore) UpsertChild(ctx context.Context, c *daycare.Child) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO children (id, full_name, birth_date, classroom, is_active)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		full_name = excluded.full_name,
		birth_date = excluded.birth_date,
		classroom = excluded.classroom,
		is_active = excluded.is_active`,
		c.ID, c.FullName, c.BirthDate.Unix(), c.Classroom, boolToInt(c.IsActive),
	)
	if err != nil {
		return fmt.Errorf("upsert child: %w", err)
	}
	return nil
}

// LinkChild associates a child with a parent; linking twice updates the link.
func (s *SQLiteStore) LinkChild(ctx context.Context, link daycare.ParentChildLink) error {
	relationship := link.Relationship
	if relationship == "" {
		relationship = "parent"
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO parent_child_links (parent_id, child_id, relationship, is_primary, can_pickup)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(parent_id, child_id) DO UPDATE SET
		relationship = excluded.relationship,
		is_primary = excluded.is_primary,
		can_pickup = excluded.can_pickup`,
		link.ParentID, link.ChildID, relationship,
		boolToInt(link.IsPrimary), boolToInt(link.CanPickup),
	)
	if err != nil {
		return fmt.Errorf("link child: %w", err)
	}
	return nil
}

func encodeLists(targets []persona.AgentType, tags []string) (string, string, error) {
	if targets == nil {
		targets = []persona.AgentType{}
	}
	if tags == nil {
		tags = []string{}
	}
	t, err := json.Marshal(targets)
	if err != nil {
		return "", "", fmt.Errorf("encode agent_target: %w", err)
	}
	g, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return string(t), string(g), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
