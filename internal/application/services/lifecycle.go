package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"study-buddy-api/internal/application/ports"
	"study-buddy-api/internal/domain/resource"
	"study-buddy-api/internal/infrastructure/metrics"
	"study-buddy-api/internal/infrastructure/mq"
	"study-buddy-api/pkg/apperrors"
)

const (
	maxKeyExtLen = 16
	uploadIDLen  = 8
)

// Lifecycle keeps a resource record and its stored file in step.
// Metadata changes commit first; removing a file that is no longer referenced is best effort.
type Lifecycle struct {
	blobs              ports.BlobStorage
	resourceRepository resource.Repository
	mq                 ports.EventPublisher
	logger             *zap.Logger
	mCounter           *prometheus.CounterVec
}

func NewLifecycle(
	blobs ports.BlobStorage,
	resourceRepository resource.Repository,
	mq ports.EventPublisher,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) *Lifecycle {
	return &Lifecycle{
		blobs:              blobs,
		resourceRepository: resourceRepository,
		mq:                 mq,
		logger:             logger,
		mCounter:           mCounter,
	}
}

// Create stores data, then the record. A failed insert removes the stored file again.
func (l *Lifecycle) Create(ctx context.Context, r *resource.Resource, data []byte) (*resource.Resource, error) {
	key := StorageKey(r, r.File.Name, data)
	if err := l.put(ctx, key, data); err != nil {
		return nil, err
	}
	r.File.Key = key

	out, err := l.resourceRepository.CreateResource(ctx, r)
	if err != nil {
		l.discard(ctx, r, key)
		return nil, err
	}

	return out, nil
}

// ReplaceFile points r at new content and only then drops the old file.
// The same name with identical content is a no-op: nothing is written or deleted.
// Every upload gets its own key, so the old key is never referenced again once the update commits.
func (l *Lifecycle) ReplaceFile(
	ctx context.Context,
	r *resource.Resource,
	name string,
	data []byte,
) (*resource.Resource, error) {
	oldKey := r.File.Key
	if oldKey != "" && name == r.File.Name && contentHash(oldKey) == digest(data) {
		return r, nil
	}

	newKey := StorageKey(r, name, data)
	if err := l.put(ctx, newKey, data); err != nil {
		return nil, err
	}

	out, err := l.resourceRepository.UpdateFile(
		ctx,
		r.UUID,
		resource.FileRef{Key: newKey, Name: name},
		uint64(len(data)),
		resource.Classify(name),
	)
	if err != nil {
		l.discard(ctx, r, newKey)
		return nil, err
	}

	if oldKey != "" {
		l.discard(ctx, out, oldKey)
	}

	return out, nil
}

// Delete removes the record, then its file. A file that is already gone is not an error.
func (l *Lifecycle) Delete(ctx context.Context, r *resource.Resource) error {
	if err := l.resourceRepository.DeleteResource(ctx, r.UUID); err != nil {
		return err
	}
	if r.File.Key != "" {
		l.discard(ctx, r, r.File.Key)
	}

	return nil
}

func (l *Lifecycle) put(ctx context.Context, key string, data []byte) error {
	if err := l.blobs.Put(ctx, key, data, mimetype.Detect(data).String()); err != nil {
		if errors.Is(err, apperrors.ErrStorage) {
			return err
		}
		return apperrors.Storage("put", key, err)
	}

	return nil
}

// discard never fails the caller; a file it cannot remove is reported for operators.
// A failed delete of an object that is already gone is not an orphan.
func (l *Lifecycle) discard(ctx context.Context, r *resource.Resource, key string) {
	err := l.blobs.Delete(ctx, key)
	if err == nil {
		return
	}
	if exists, exErr := l.blobs.Exists(ctx, key); exErr == nil && !exists {
		l.logger.Debug("delete failed for a missing file",
			zap.String("storage_key", key),
			zap.Error(err),
		)
		return
	}

	l.logger.Warn("orphaned resource file",
		zap.String("resource_id", r.UUID.String()),
		zap.String("storage_key", key),
		zap.Error(err),
	)
	l.mCounter.WithLabelValues(metrics.OrphanedFiles).Inc()

	e := mq.NewEvent(mq.ActionResourceFileOrphaned, r, nil)
	e.StorageKey = key
	l.mq.Publish(e)
}

// StorageKey: "resources/<resource-uuid>/<blake2b-256 of content>-<upload id><.ext>"
func StorageKey(r *resource.Resource, name string, data []byte) string {
	upload := uuid.New()
	return fmt.Sprintf("resources/%s/%s-%s%s",
		r.UUID, digest(data), hex.EncodeToString(upload[:uploadIDLen]), keyExt(name))
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// contentHash reads the digest back out of a key written by StorageKey.
func contentHash(key string) string {
	base := path.Base(key)
	if i := strings.IndexAny(base, "-."); i >= 0 {
		base = base[:i]
	}

	return base
}

func keyExt(name string) string {
	ext := resource.Extension(name)
	if ext == "" || len(ext) > maxKeyExtLen {
		return ""
	}
	if strings.IndexFunc(ext, func(c rune) bool {
		return (c < 'a' || c > 'z') && (c < '0' || c > '9')
	}) >= 0 {
		return ""
	}

	return "." + ext
}
