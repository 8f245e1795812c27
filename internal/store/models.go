package store

import "time"

// User roles.
const (
	RoleAdmin           = "admin"
	RoleTechnicalWriter = "technical_writer"
	RoleDeveloper       = "developer"
	RoleViewer          = "viewer"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTechnicalWriter, RoleDeveloper, RoleViewer:
		return true
	}
	return false
}

// User is an account that can own documents.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Document is a stored piece of technical documentation.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	DocType   string    `json:"doc_type"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentVersion is a historical snapshot of a document's content.
// Version numbers are monotonic per document, starting at 1.
type DocumentVersion struct {
	ID            string    `json:"id"`
	DocID         string    `json:"doc_id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	Diff          string    `json:"diff,omitempty"`
	UpdatedBy     string    `json:"updated_by"`
	Timestamp     time.Time `json:"timestamp"`
}

// Embedding mirrors one vector stored in the index, keyed by its logical
// vector ID. The relational row is the source of truth for which vectors
// a document owns.
type Embedding struct {
	ID         string    `json:"id"`
	DocID      string    `json:"doc_id"`
	ChunkIndex int       `json:"chunk_index"`
	ChunkText  string    `json:"chunk_text"`
	VectorID   string    `json:"vector_id"`
	CreatedAt  time.Time `json:"created_at"`
}
