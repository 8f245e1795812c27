// Package vectorindex wraps the Qdrant client behind the small surface the
// vector store needs: upsert, similarity query, and delete-by-document.
// The index is optional infrastructure. When it is not configured the service
// keeps running: queries return nothing, deletes are no-ops, and only
// explicit upserts fail.
package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/docupilot/docupilot/internal/apperr"
)

// Metadata is the payload stored alongside each vector. ChunkText holds a
// bounded preview only; full chunk text lives in the relational mirror.
type Metadata struct {
	DocID      string
	ChunkIndex int
	ChunkText  string
}

// Vector is one embedding to upsert. ID is the logical vector ID
// ("{doc}_chunk_{i}"); the Qdrant point ID is derived from it.
type Vector struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is one similarity query hit, ordered by descending score.
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Config holds connection settings for the index.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
}

// Index is a Qdrant-backed vector index. A nil client means the index was
// never configured; every operation checks Configured() explicitly.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *slog.Logger
}

// New connects to Qdrant. An empty host means the index is intentionally
// unconfigured; a failing connection is downgraded to the same state with a
// warning, so document CRUD stays available without the vector backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{collection: cfg.Collection, logger: logger}

	if cfg.Host == "" {
		logger.Warn("vector index not configured, semantic search disabled")
		return ix
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.APIKey != "",
	})
	if err != nil {
		logger.Warn("vector index client creation failed, continuing without it", "error", err)
		return ix
	}

	if err := healthWithRetry(ctx, client); err != nil {
		client.Close()
		logger.Warn("vector index unreachable, continuing without it", "error", err)
		return ix
	}

	ix.client = client
	return ix
}

// Configured reports whether a live index connection exists.
func (ix *Index) Configured() bool {
	return ix.client != nil
}

// Dimension returns the vector size the collection was ensured with.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Health performs a single health check. Unconfigured counts as unhealthy.
func (ix *Index) Health(ctx context.Context) error {
	if !ix.Configured() {
		return apperr.ErrIndexUnavailable
	}
	result, err := ix.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Ensure makes sure the collection exists with the given vector dimension.
// Concurrent creators can race; a failed create falls back to checking for
// the collection again before giving up. Idempotent.
func (ix *Index) Ensure(ctx context.Context, dimension int) error {
	if !ix.Configured() {
		return nil
	}

	exists, err := ix.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := ix.checkDimension(ctx, dimension); err != nil {
			return err
		}
		ix.dimension = dimension
		return nil
	}

	err = ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: ix.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// Lost a create race, or transient failure: accept the collection
		// if it is there now.
		exists, checkErr := ix.collectionExists(ctx)
		if checkErr == nil && exists {
			if err := ix.checkDimension(ctx, dimension); err != nil {
				return err
			}
			ix.dimension = dimension
			return nil
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if _, err := ix.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: ix.collection,
		FieldName:      "doc_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	}); err != nil {
		return fmt.Errorf("failed to create doc_id index: %w", err)
	}

	ix.dimension = dimension
	return nil
}

// checkDimension verifies an existing collection stores vectors of the
// dimension the active embedding backend produces. A mismatch is a
// configuration error, not a per-call failure: every upsert would be
// rejected, so the operator must recreate the collection or restore the
// previous model.
func (ix *Index) checkDimension(ctx context.Context, dimension int) error {
	collection, err := ix.client.GetCollectionInfo(ctx, ix.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}
	size := collection.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != 0 && int(size) != dimension {
		return fmt.Errorf("%w: collection %q stores %d-dimension vectors but the embedding backend produces %d; recreate the collection or restore the previous model",
			apperr.ErrConfiguration, ix.collection, size, dimension)
	}
	return nil
}

func (ix *Index) collectionExists(ctx context.Context) (bool, error) {
	collections, err := ix.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range collections {
		if name == ix.collection {
			return true, nil
		}
	}
	return false, nil
}

// Upsert writes vectors to the index, retrying transient failures.
// Unconfigured is a hard error here: the caller explicitly asked to store
// embeddings and silently dropping them would break the relational mirror.
func (ix *Index) Upsert(ctx context.Context, vectors []Vector) error {
	if !ix.Configured() {
		return apperr.ErrIndexUnavailable
	}
	if len(vectors) == 0 {
		return nil
	}

	if ix.dimension > 0 {
		for i, v := range vectors {
			if len(v.Values) != ix.dimension {
				return fmt.Errorf("%w: vector %d has %d dimensions, collection expects %d",
					apperr.ErrConfiguration, i, len(v.Values), ix.dimension)
			}
		}
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, v := range vectors {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(v.ID)),
			Vectors: qdrant.NewVectors(v.Values...),
			Payload: qdrant.NewValueMap(map[string]any{
				"vector_id":   v.ID,
				"doc_id":      v.Metadata.DocID,
				"chunk_index": v.Metadata.ChunkIndex,
				"chunk_text":  v.Metadata.ChunkText,
			}),
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: ix.collection,
			Points:         points,
		})
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// Query returns the topK most similar vectors, optionally filtered to one
// document. An unconfigured index yields an empty result, not an error.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int, docID string) ([]Match, error) {
	if !ix.Configured() {
		return nil, nil
	}

	var filter *qdrant.Filter
	if docID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("doc_id", docID)},
		}
	}

	results, err := ix.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: ix.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		matches = append(matches, Match{
			ID:    payload["vector_id"].GetStringValue(),
			Score: result.Score,
			Metadata: Metadata{
				DocID:      payload["doc_id"].GetStringValue(),
				ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
				ChunkText:  payload["chunk_text"].GetStringValue(),
			},
		})
	}
	return matches, nil
}

// DeleteByDoc removes every vector belonging to docID via a payload filter,
// so callers never need to know individual vector IDs. No-op when
// unconfigured.
func (ix *Index) DeleteByDoc(ctx context.Context, docID string) error {
	if !ix.Configured() {
		return nil
	}

	_, err := ix.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ix.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("doc_id", docID)},
		}),
	})
	if err != nil {
		return fmt.Errorf("delete by doc failed: %w", err)
	}
	return nil
}

// Count returns the number of points in the collection.
func (ix *Index) Count(ctx context.Context) (uint64, error) {
	if !ix.Configured() {
		return 0, apperr.ErrIndexUnavailable
	}
	collection, err := ix.client.GetCollectionInfo(ctx, ix.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// Close releases the client connection.
func (ix *Index) Close() error {
	if ix.client != nil {
		return ix.client.Close()
	}
	return nil
}

// PointID derives the Qdrant point UUID from a logical vector ID. Qdrant
// point IDs must be UUIDs or integers, so the "{doc}_chunk_{i}" name is
// hashed deterministically (UUIDv5): re-storing the same chunk always
// overwrites the same point.
func PointID(vectorID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(vectorID)).String()
}

func healthWithRetry(ctx context.Context, client *qdrant.Client) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second

	operation := func() error {
		_, err := client.HealthCheck(ctx)
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
