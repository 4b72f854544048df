package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-buddy-api/internal/domain/resource"
	"study-buddy-api/internal/infrastructure/metrics"
	"study-buddy-api/internal/infrastructure/mq"
	"study-buddy-api/pkg/apperrors"
)

func newDraft(name string) *resource.Resource {
	owner := uuid.New()
	return &resource.Resource{
		UUID:       uuid.New(),
		OwnerID:    &owner,
		Title:      "Notes",
		File:       resource.FileRef{Name: name},
		Category:   resource.Classify(name),
		Visibility: resource.VisibilityPrivate,
	}
}

func TestStorageKey(t *testing.T) {
	r := newDraft("notes.pdf")
	other := newDraft("notes.pdf")

	k1 := StorageKey(r, "notes.pdf", []byte("a"))
	assert.NotEqual(t, k1, StorageKey(r, "notes.pdf", []byte("a")), "every upload gets its own key")
	assert.NotEqual(t, k1, StorageKey(other, "notes.pdf", []byte("a")))
	assert.True(t, strings.HasPrefix(k1, "resources/"+r.UUID.String()+"/"))
	assert.True(t, strings.HasSuffix(k1, ".pdf"))

	assert.Equal(t, digest([]byte("a")), contentHash(k1))
	assert.Equal(t, contentHash(k1), contentHash(StorageKey(r, "other.txt", []byte("a"))))
	assert.NotEqual(t, contentHash(k1), contentHash(StorageKey(r, "notes.pdf", []byte("b"))))

	tests := []struct {
		name    string
		wantExt string
	}{
		{"NOTES.PDF", ".pdf"},
		{"Makefile", ""},
		{"weird.p d f", ""},
		{"archive.tar.gz", ".gz"},
		{"x.aaaaaaaaaaaaaaaaaaaaaaaa", ""},
	}
	for _, tt := range tests {
		key := StorageKey(r, tt.name, []byte("a"))
		last := key[strings.LastIndex(key, "/")+1:]
		assert.Len(t, last, 64+1+2*uploadIDLen+len(tt.wantExt), tt.name)
		assert.True(t, strings.HasSuffix(last, tt.wantExt), tt.name)
	}
}

func TestLifecycle_Create_WritesFileThenRecord(t *testing.T) {
	h := newHarness(t)
	r := newDraft("notes.pdf")

	out, err := h.lifecycle.Create(context.Background(), r, pdfBytes(64))
	require.NoError(t, err)
	assert.True(t, h.blobs.has(out.File.Key))

	stored, err := h.resources.FetchResource(context.Background(), r.UUID)
	require.NoError(t, err)
	assert.Equal(t, out.File.Key, stored.File.Key)
}

func TestLifecycle_Create_FailedInsertRemovesFile(t *testing.T) {
	h := newHarness(t)
	h.resources.CreateErr = errors.New("insert failed")
	r := newDraft("notes.pdf")

	_, err := h.lifecycle.Create(context.Background(), r, pdfBytes(64))
	require.EqualError(t, err, "insert failed")

	require.Len(t, h.blobs.puts, 1)
	key := h.blobs.puts[0]
	assert.False(t, h.blobs.has(key))
	assert.Equal(t, []string{key}, h.blobs.deleted())
}

func TestLifecycle_Create_FailedWriteLeavesNoRecord(t *testing.T) {
	h := newHarness(t)
	h.blobs.PutFunc = func(key string) error { return errors.New("bucket unavailable") }
	r := newDraft("notes.pdf")

	_, err := h.lifecycle.Create(context.Background(), r, pdfBytes(64))
	var se *apperrors.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "put", se.Op)

	_, err = h.resources.FetchResource(context.Background(), r.UUID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLifecycle_ReplaceFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), pdfBytes(64))
	require.NoError(t, err)
	oldKey := created.File.Key

	t.Run("identical content deletes nothing", func(t *testing.T) {
		out, err := h.lifecycle.ReplaceFile(ctx, created, "notes.pdf", pdfBytes(64))
		require.NoError(t, err)
		assert.Equal(t, oldKey, out.File.Key)
		assert.Empty(t, h.blobs.deleted())
		assert.Len(t, h.blobs.puts, 1, "nothing is written")
		assert.True(t, h.blobs.has(oldKey))
	})

	t.Run("new content swaps the file", func(t *testing.T) {
		out, err := h.lifecycle.ReplaceFile(ctx, created, "slides.pptx", []byte("new slides"))
		require.NoError(t, err)
		assert.NotEqual(t, oldKey, out.File.Key)
		assert.Equal(t, uint64(len("new slides")), out.SizeBytes)
		assert.Equal(t, resource.CategoryPresentation, out.Category)
		assert.Equal(t, "slides.pptx", out.File.Name)
		assert.True(t, h.blobs.has(out.File.Key))
		assert.False(t, h.blobs.has(oldKey))
		assert.Equal(t, []string{oldKey}, h.blobs.deleted())
	})
}

func TestLifecycle_ReplaceFile_FailedUpdateKeepsOldFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), pdfBytes(64))
	require.NoError(t, err)
	h.resources.UpdateErr = errors.New("update failed")

	_, err = h.lifecycle.ReplaceFile(ctx, created, "notes.pdf", []byte("other bytes"))
	require.EqualError(t, err, "update failed")

	assert.True(t, h.blobs.has(created.File.Key))
	require.Len(t, h.blobs.puts, 2)
	assert.False(t, h.blobs.has(h.blobs.puts[1]))
}

func TestLifecycle_ReplaceFile_SameContentNewName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), pdfBytes(64))
	require.NoError(t, err)

	out, err := h.lifecycle.ReplaceFile(ctx, created, "final.pdf", pdfBytes(64))
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", out.File.Name)
	assert.NotEqual(t, created.File.Key, out.File.Key)
	assert.True(t, h.blobs.has(out.File.Key))
	assert.Equal(t, []string{created.File.Key}, h.blobs.deleted())
}

// A second replace that restores the original content between the first replace's
// update and its cleanup must not lose its file.
func TestLifecycle_ReplaceFile_InterleavedRestoreKeepsFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	original := pdfBytes(64)

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), original)
	require.NoError(t, err)

	var (
		started  bool
		restored *resource.Resource
	)
	h.blobs.DeleteFunc = func(key string) error {
		if started {
			return nil
		}
		started = true
		current, ok := h.resources.get(created.UUID)
		require.True(t, ok)
		out, rerr := h.lifecycle.ReplaceFile(ctx, current, "notes.pdf", original)
		require.NoError(t, rerr)
		restored = out
		return nil
	}

	_, err = h.lifecycle.ReplaceFile(ctx, created, "notes.pdf", []byte("edited bytes"))
	require.NoError(t, err)
	require.NotNil(t, restored)

	final, ok := h.resources.get(created.UUID)
	require.True(t, ok)
	assert.Equal(t, restored.File.Key, final.File.Key)
	assert.NotEqual(t, created.File.Key, final.File.Key)
	assert.True(t, h.blobs.has(final.File.Key))
	assert.False(t, h.blobs.has(created.File.Key))
}

func TestLifecycle_Delete_MissingFileStillSucceeds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), pdfBytes(64))
	require.NoError(t, err)
	require.NoError(t, h.blobs.Delete(ctx, created.File.Key))

	require.NoError(t, h.lifecycle.Delete(ctx, created))

	_, err = h.resources.FetchResource(ctx, created.UUID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, float64(0), testutil.ToFloat64(h.counter.WithLabelValues(metrics.OrphanedFiles)))
}

func TestLifecycle_Delete_FailedFileRemovalIsReported(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), pdfBytes(64))
	require.NoError(t, err)
	h.blobs.DeleteFunc = func(key string) error { return errors.New("access denied") }

	require.NoError(t, h.lifecycle.Delete(ctx, created))

	_, err = h.resources.FetchResource(ctx, created.UUID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.counter.WithLabelValues(metrics.OrphanedFiles)))
	require.Equal(t, []string{mq.ActionResourceFileOrphaned}, h.events.actions())
	assert.Equal(t, created.File.Key, h.events.events[0].StorageKey)
}

func TestLifecycle_Delete_FailedRemovalOfMissingFileIsNotAnOrphan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.lifecycle.Create(ctx, newDraft("notes.pdf"), pdfBytes(64))
	require.NoError(t, err)
	require.NoError(t, h.blobs.Delete(ctx, created.File.Key))
	h.blobs.DeleteFunc = func(key string) error { return errors.New("access denied") }

	require.NoError(t, h.lifecycle.Delete(ctx, created))

	assert.Equal(t, float64(0), testutil.ToFloat64(h.counter.WithLabelValues(metrics.OrphanedFiles)))
	assert.Empty(t, h.events.actions())
}

func TestLifecycle_Delete_MissingRecord(t *testing.T) {
	h := newHarness(t)
	err := h.lifecycle.Delete(context.Background(), newDraft("notes.pdf"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, h.blobs.deleted())
}
