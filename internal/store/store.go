// Package store is the relational persistence layer, backed by SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/store/migrations"
)

// Store is a unified SQLite-based storage that provides access to the
// per-entity repositories through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// New creates a SQLite store at the specified data directory.
func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", apperr.ErrConfiguration)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docupilot.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserRepo {
	return &UserRepo{store: s}
}

// Documents returns the document repository backed by this store.
func (s *Store) Documents() *DocumentRepo {
	return &DocumentRepo{store: s}
}

// Versions returns the document version repository backed by this store.
func (s *Store) Versions() *VersionRepo {
	return &VersionRepo{store: s}
}

// Embeddings returns the embedding repository backed by this store.
func (s *Store) Embeddings() *EmbeddingRepo {
	return &EmbeddingRepo{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== User Repository ====================

// UserRepo provides user persistence.
type UserRepo struct {
	store *Store
}

// Create inserts a new user and returns it with its generated ID.
func (r *UserRepo) Create(ctx context.Context, user *User) (*User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = RoleViewer
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, hashed_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Name, user.Email, user.Role, user.HashedPassword, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, hashed_password, created_at, updated_at
		FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, hashed_password, created_at, updated_at
		FROM users WHERE email = ?
	`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.HashedPassword,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// ==================== Document Repository ====================

// DocumentRepo provides document persistence.
type DocumentRepo struct {
	store *Store
}

// Create inserts a new document and returns it with its generated ID.
func (r *DocumentRepo) Create(ctx context.Context, doc *Document) (*Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.DocType == "" {
		doc.DocType = "api"
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, doc_type, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Content, doc.DocType, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	return doc, nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*Document, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, title, content, doc_type, created_by, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var d Document
	if err := row.Scan(&d.ID, &d.Title, &d.Content, &d.DocType, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("document %s not found", id)
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &d, nil
}

// List returns documents newest-first with pagination, optionally filtered
// by creator.
func (r *DocumentRepo) List(ctx context.Context, skip, limit int, createdBy string) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, title, content, doc_type, created_by, created_at, updated_at
		FROM documents`
	args := []any{}
	if createdBy != "" {
		query += " WHERE created_by = ?"
		args = append(args, createdBy)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.DocType, &d.CreatedBy,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Update applies the non-nil fields and returns the updated document.
func (r *DocumentRepo) Update(ctx context.Context, id string, title, content, docType *string) (*Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		doc.Title = *title
	}
	if content != nil {
		doc.Content = *content
	}
	if docType != nil {
		doc.DocType = *docType
	}
	doc.UpdatedAt = time.Now().UTC()

	_, err = r.store.db.ExecContext(ctx, `
		UPDATE documents SET title = ?, content = ?, doc_type = ?, updated_at = ?
		WHERE id = ?
	`, doc.Title, doc.Content, doc.DocType, doc.UpdatedAt, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}
	return doc, nil
}

// Delete removes a document. Versions and embedding rows cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return apperr.NotFoundf("document %s not found", id)
	}
	return nil
}

// ==================== Version Repository ====================

// VersionRepo provides document version persistence.
type VersionRepo struct {
	store *Store
}

// Create snapshots content as the next version of a document. The version
// number is assigned inside the insert so concurrent writers cannot collide.
func (r *VersionRepo) Create(ctx context.Context, docID, content, diff, userID string) (*DocumentVersion, error) {
	v := DocumentVersion{
		ID:        uuid.NewString(),
		DocID:     docID,
		Content:   content,
		Diff:      diff,
		UpdatedBy: userID,
		Timestamp: time.Now().UTC(),
	}

	row := r.store.db.QueryRowContext(ctx, `
		INSERT INTO document_versions (id, doc_id, version_number, content, diff, updated_by, timestamp)
		VALUES (?, ?, (SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE doc_id = ?), ?, ?, ?, ?)
		RETURNING version_number
	`, v.ID, v.DocID, v.DocID, v.Content, nullString(v.Diff), v.UpdatedBy, v.Timestamp)
	if err := row.Scan(&v.VersionNumber); err != nil {
		return nil, fmt.Errorf("creating document version: %w", err)
	}
	return &v, nil
}

// ListByDoc returns all versions for a document, newest first.
func (r *VersionRepo) ListByDoc(ctx context.Context, docID string) ([]DocumentVersion, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, doc_id, version_number, content, diff, updated_by, timestamp
		FROM document_versions WHERE doc_id = ?
		ORDER BY version_number DESC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	versions := []DocumentVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return versions, nil
}

// Get retrieves one specific version of a document.
func (r *VersionRepo) Get(ctx context.Context, docID string, versionNumber int) (*DocumentVersion, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT id, doc_id, version_number, content, diff, updated_by, timestamp
		FROM document_versions WHERE doc_id = ? AND version_number = ?
	`, docID, versionNumber)

	var v DocumentVersion
	var diff sql.NullString
	if err := row.Scan(&v.ID, &v.DocID, &v.VersionNumber, &v.Content, &diff,
		&v.UpdatedBy, &v.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("version %d of document %s not found", versionNumber, docID)
		}
		return nil, fmt.Errorf("scanning version: %w", err)
	}
	v.Diff = diff.String
	return &v, nil
}

func scanVersion(rows *sql.Rows) (*DocumentVersion, error) {
	var v DocumentVersion
	var diff sql.NullString
	if err := rows.Scan(&v.ID, &v.DocID, &v.VersionNumber, &v.Content, &diff,
		&v.UpdatedBy, &v.Timestamp); err != nil {
		return nil, fmt.Errorf("scanning version: %w", err)
	}
	v.Diff = diff.String
	return &v, nil
}

// ==================== Embedding Repository ====================

// EmbeddingRepo tracks which vectors exist for each document.
type EmbeddingRepo struct {
	store *Store
}

// ReplaceForDoc deletes a document's existing embedding rows and inserts
// the new set in one transaction, matching the delete-then-reinsert
// behavior of the vector index.
func (r *EmbeddingRepo) ReplaceForDoc(ctx context.Context, docID string, embeddings []Embedding) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (id, doc_id, chunk_index, chunk_text, vector_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range embeddings {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, docID, e.ChunkIndex, e.ChunkText, e.VectorID, now); err != nil {
			return fmt.Errorf("saving embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListByDoc returns all embedding rows for a document in chunk order.
func (r *EmbeddingRepo) ListByDoc(ctx context.Context, docID string) ([]Embedding, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, doc_id, chunk_index, chunk_text, vector_id, created_at
		FROM embeddings WHERE doc_id = ?
		ORDER BY chunk_index
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	embeddings := []Embedding{}
	for rows.Next() {
		var e Embedding
		if err := rows.Scan(&e.ID, &e.DocID, &e.ChunkIndex, &e.ChunkText, &e.VectorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		embeddings = append(embeddings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return embeddings, nil
}

// DeleteByDoc removes all embedding rows for a document and returns the
// number removed.
func (r *EmbeddingRepo) DeleteByDoc(ctx context.Context, docID string) (int, error) {
	res, err := r.store.db.ExecContext(ctx, "DELETE FROM embeddings WHERE doc_id = ?", docID)
	if err != nil {
		return 0, fmt.Errorf("deleting embeddings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking delete result: %w", err)
	}
	return int(affected), nil
}

// ==================== Helper Functions ====================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
