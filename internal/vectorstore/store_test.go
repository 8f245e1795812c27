package vectorstore

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot/docupilot/internal/embedding"
	"github.com/docupilot/docupilot/internal/vectorindex"
)

// fakeProvider returns a constant-dimension vector per input and records the
// kinds it was called with.
type fakeProvider struct {
	kinds []embedding.Kind
}

func (f *fakeProvider) Embed(_ context.Context, texts []string, kind embedding.Kind) ([][]float32, error) {
	f.kinds = append(f.kinds, kind)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 0.5}
	}
	return vectors, nil
}

func (f *fakeProvider) Dimension() int { return 2 }
func (f *fakeProvider) Name() string   { return "fake" }

// fakeIndex keeps vectors in a map keyed by logical vector ID.
type fakeIndex struct {
	configured bool
	vectors    map[string]vectorindex.Vector
	deletes    []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{configured: true, vectors: make(map[string]vectorindex.Vector)}
}

func (f *fakeIndex) Configured() bool { return f.configured }

func (f *fakeIndex) Upsert(_ context.Context, vectors []vectorindex.Vector) error {
	for _, v := range vectors {
		f.vectors[v.ID] = v
	}
	return nil
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int, docID string) ([]vectorindex.Match, error) {
	var matches []vectorindex.Match
	for _, v := range f.vectors {
		if docID != "" && v.Metadata.DocID != docID {
			continue
		}
		matches = append(matches, vectorindex.Match{ID: v.ID, Score: 0.9, Metadata: v.Metadata})
		if len(matches) == topK {
			break
		}
	}
	return matches, nil
}

func (f *fakeIndex) DeleteByDoc(_ context.Context, docID string) error {
	f.deletes = append(f.deletes, docID)
	for id, v := range f.vectors {
		if v.Metadata.DocID == docID {
			delete(f.vectors, id)
		}
	}
	return nil
}

func TestStoreDocument_VectorIDsAndPreviews(t *testing.T) {
	ix := newFakeIndex()
	store := New(&fakeProvider{}, ix, nil)

	text := strings.Repeat("x", 2500)
	chunks, vectorIDs, err := store.StoreDocument(context.Background(), "doc-1", text, 1000, 200)
	require.NoError(t, err)

	require.Len(t, chunks, 4)
	assert.Equal(t, []string{"doc-1_chunk_0", "doc-1_chunk_1", "doc-1_chunk_2", "doc-1_chunk_3"}, vectorIDs)

	// Metadata previews are capped, full text is not stored in the index.
	stored := ix.vectors["doc-1_chunk_0"]
	assert.Len(t, stored.Metadata.ChunkText, PreviewLimit)
	assert.Equal(t, "doc-1", stored.Metadata.DocID)
	assert.Equal(t, 0, stored.Metadata.ChunkIndex)
}

func TestStoreDocument_IdempotentVectorIDs(t *testing.T) {
	ix := newFakeIndex()
	store := New(&fakeProvider{}, ix, nil)

	text := strings.Repeat("y", 1500)
	_, first, err := store.StoreDocument(context.Background(), "doc-2", text, 500, 100)
	require.NoError(t, err)
	_, second, err := store.StoreDocument(context.Background(), "doc-2", text, 500, 100)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-storing the same inputs must produce identical vector IDs")
	assert.Len(t, ix.vectors, len(first), "re-store must overwrite, not accumulate")
}

func TestStoreDocument_DeletesBeforeReinsert(t *testing.T) {
	ix := newFakeIndex()
	store := New(&fakeProvider{}, ix, nil)

	long := strings.Repeat("a", 3000)
	_, _, err := store.StoreDocument(context.Background(), "doc-3", long, 1000, 0)
	require.NoError(t, err)
	require.Len(t, ix.vectors, 3)

	// Shorter content produces fewer chunks; old tail vectors must be gone.
	short := strings.Repeat("b", 900)
	_, _, err = store.StoreDocument(context.Background(), "doc-3", short, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, ix.vectors, 1)
	assert.Contains(t, ix.deletes, "doc-3")
}

func TestStoreDocument_EmbedsAsDocumentsSearchesAsQueries(t *testing.T) {
	provider := &fakeProvider{}
	store := New(provider, newFakeIndex(), nil)

	_, _, err := store.StoreDocument(context.Background(), "doc-4", "some content here", 1000, 200)
	require.NoError(t, err)
	_, err = store.SearchSimilar(context.Background(), "a question", 5, "")
	require.NoError(t, err)

	assert.Equal(t, []embedding.Kind{embedding.KindDocument, embedding.KindQuery}, provider.kinds)
}

func TestSearchSimilar_UnconfiguredIndexReturnsEmpty(t *testing.T) {
	ix := newFakeIndex()
	ix.configured = false
	provider := &fakeProvider{}
	store := New(provider, ix, nil)

	results, err := store.SearchSimilar(context.Background(), "anything", 5, "")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, provider.kinds, "no query embedding should be computed without an index")
}

func TestDeleteThenSearchReturnsNothingForDoc(t *testing.T) {
	ix := newFakeIndex()
	store := New(&fakeProvider{}, ix, nil)

	_, _, err := store.StoreDocument(context.Background(), "doc-5", strings.Repeat("z", 1200), 500, 100)
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocumentVectors(context.Background(), "doc-5"))

	results, err := store.SearchSimilar(context.Background(), "z", 10, "doc-5")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreDocument_EmptyTextClearsExistingVectors(t *testing.T) {
	ix := newFakeIndex()
	store := New(&fakeProvider{}, ix, nil)

	_, _, err := store.StoreDocument(context.Background(), "doc-6", strings.Repeat("c", 1200), 500, 100)
	require.NoError(t, err)
	require.NotEmpty(t, ix.vectors)

	chunks, vectorIDs, err := store.StoreDocument(context.Background(), "doc-6", "", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Empty(t, vectorIDs)
	assert.Empty(t, ix.vectors, "re-storing as empty must drop the old vectors")
	assert.Contains(t, ix.deletes, "doc-6")
}

func TestStoreDocument_PreviewKeepsRunesIntact(t *testing.T) {
	ix := newFakeIndex()
	store := New(&fakeProvider{}, ix, nil)

	// 600 three-byte characters: over the preview limit in characters, and
	// any byte-based cut would land mid-rune.
	text := strings.Repeat("文", 600)
	_, _, err := store.StoreDocument(context.Background(), "doc-7", text, 1000, 200)
	require.NoError(t, err)

	stored := ix.vectors["doc-7_chunk_0"]
	assert.True(t, utf8.ValidString(stored.Metadata.ChunkText))
	assert.Equal(t, PreviewLimit, utf8.RuneCountInString(stored.Metadata.ChunkText))
}
