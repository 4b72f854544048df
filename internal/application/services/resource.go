package services

import (
	"bufio"
	"context"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"study-buddy-api/internal/application/ports"
	domain "study-buddy-api/internal/domain/resource"
	"study-buddy-api/internal/infrastructure/metrics"
	"study-buddy-api/internal/infrastructure/mq"
	"study-buddy-api/pkg/apperrors"
)

const (
	maxTitleLen = 255
	sniffLen    = 3072
)

type ResourceService struct {
	resourceRepository domain.Repository
	blobs              ports.BlobStorage
	policy             *AccessPolicy
	lifecycle          *Lifecycle
	mq                 ports.EventPublisher
	logger             *zap.Logger
	mCounter           *prometheus.CounterVec
}

func NewResourceService(
	resourceRepository domain.Repository,
	blobs ports.BlobStorage,
	policy *AccessPolicy,
	lifecycle *Lifecycle,
	mq ports.EventPublisher,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) ports.ResourceService {
	return &ResourceService{
		resourceRepository: resourceRepository,
		blobs:              blobs,
		policy:             policy,
		lifecycle:          lifecycle,
		mq:                 mq,
		logger:             logger,
		mCounter:           mCounter,
	}
}

func (rs *ResourceService) FindResources(
	ctx context.Context,
	requester *uuid.UUID,
	f domain.Filter,
) (domain.Resources, error) {
	return rs.resourceRepository.FetchVisibleResources(ctx, requester, f)
}

func (rs *ResourceService) FindMyResources(
	ctx context.Context,
	requester *uuid.UUID,
	f domain.Filter,
) (domain.Resources, error) {
	if requester == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	return rs.resourceRepository.FetchOwnerResources(ctx, *requester, f)
}

func (rs *ResourceService) FindResource(
	ctx context.Context,
	requester *uuid.UUID,
	id uuid.UUID,
) (*domain.Resource, error) {
	return rs.fetchAuthorized(ctx, requester, ActionRead, id)
}

func (rs *ResourceService) FindCatalogCategories(ctx context.Context) (domain.CatalogCategories, error) {
	return rs.resourceRepository.FetchCatalogCategories(ctx)
}

func (rs *ResourceService) CreateResource(
	ctx context.Context,
	requester *uuid.UUID,
	in domain.Upload,
) (*domain.Resource, error) {
	if requester == nil {
		return nil, apperrors.ErrUnauthenticated
	}

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	name, err := validateFile(in.File)
	if err != nil {
		return nil, err
	}
	category, err := resolveCategory(in.Category, name)
	if err != nil {
		return nil, err
	}
	visibility := domain.Visibility(strings.ToUpper(strings.TrimSpace(string(in.Visibility))))
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, apperrors.Validation("visibility", "%q is not a valid choice", visibility)
	}

	in.GroupIDs = uniqueIDs(in.GroupIDs)
	if err = rs.policy.CheckCreate(ctx, requester, in.GroupIDs); err != nil {
		return nil, err
	}

	// the stored size always comes from the received bytes
	owner := *requester
	r := &domain.Resource{
		UUID:        uuid.New(),
		OwnerID:     &owner,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		File:        domain.FileRef{Name: name},
		Category:    category,
		SizeBytes:   uint64(len(in.File.Data)),
		Visibility:  visibility,
		GroupIDs:    in.GroupIDs,
		CategoryIDs: uniqueIDs(in.CategoryIDs),
		TagIDs:      uniqueIDs(in.TagIDs),
	}
	if in.File.DeclaredSize > 0 && uint64(in.File.DeclaredSize) != r.SizeBytes {
		rs.logger.Debug("declared file size ignored",
			zap.Int64("declared", in.File.DeclaredSize),
			zap.Uint64("actual", r.SizeBytes),
		)
	}

	out, err := rs.lifecycle.Create(ctx, r, in.File.Data)
	if err != nil {
		return nil, err
	}

	rs.mq.Publish(mq.NewEvent(mq.ActionResourceCreated, out, requester))
	rs.mCounter.WithLabelValues(metrics.ResourcesCreated).Inc()

	return out, nil
}

func (rs *ResourceService) UpdateResource(
	ctx context.Context,
	requester *uuid.UUID,
	id uuid.UUID,
	upd domain.MetadataUpdate,
) (*domain.Resource, error) {
	r, err := rs.fetchAuthorized(ctx, requester, ActionUpdate, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title, err := validateTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if upd.Description != nil {
		d := strings.TrimSpace(*upd.Description)
		upd.Description = &d
	}
	if upd.Category != nil {
		c, err := resolveCategory(*upd.Category, r.File.Name)
		if err != nil {
			return nil, err
		}
		upd.Category = &c
	}
	if upd.Visibility != nil {
		v := domain.Visibility(strings.ToUpper(strings.TrimSpace(string(*upd.Visibility))))
		if !v.Valid() {
			return nil, apperrors.Validation("visibility", "%q is not a valid choice", *upd.Visibility)
		}
		upd.Visibility = &v
	}
	if upd.GroupIDs != nil {
		ids := uniqueIDs(*upd.GroupIDs)
		if err = rs.policy.CheckCreate(ctx, requester, ids); err != nil {
			return nil, err
		}
		upd.GroupIDs = &ids
	}

	out, err := rs.resourceRepository.UpdateMetadata(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	rs.mq.Publish(mq.NewEvent(mq.ActionResourceUpdated, out, requester))
	rs.mCounter.WithLabelValues(metrics.ResourcesUpdated).Inc()

	return out, nil
}

func (rs *ResourceService) ReplaceFile(
	ctx context.Context,
	requester *uuid.UUID,
	id uuid.UUID,
	file domain.FileUpload,
) (*domain.Resource, error) {
	r, err := rs.fetchAuthorized(ctx, requester, ActionReplaceFile, id)
	if err != nil {
		return nil, err
	}
	name, err := validateFile(file)
	if err != nil {
		return nil, err
	}

	out, err := rs.lifecycle.ReplaceFile(ctx, r, name, file.Data)
	if err != nil {
		return nil, err
	}

	rs.mq.Publish(mq.NewEvent(mq.ActionResourceFileReplaced, out, requester))
	rs.mCounter.WithLabelValues(metrics.ResourceFileReplaced).Inc()

	return out, nil
}

func (rs *ResourceService) DeleteResource(
	ctx context.Context,
	requester *uuid.UUID,
	id uuid.UUID,
) error {
	r, err := rs.fetchAuthorized(ctx, requester, ActionDelete, id)
	if err != nil {
		return err
	}

	if err = rs.lifecycle.Delete(ctx, r); err != nil {
		return err
	}

	rs.mq.Publish(mq.NewEvent(mq.ActionResourceDeleted, r, requester))
	rs.mCounter.WithLabelValues(metrics.ResourcesDeleted).Inc()

	return nil
}

// DownloadResource opens the stored file before counting, so a missing file is never counted.
// The caller closes Content.
func (rs *ResourceService) DownloadResource(
	ctx context.Context,
	requester *uuid.UUID,
	id uuid.UUID,
) (*domain.Download, error) {
	r, err := rs.fetchAuthorized(ctx, requester, ActionDownload, id)
	if err != nil {
		return nil, err
	}

	rc, err := rs.blobs.Open(ctx, r.File.Key)
	if err != nil {
		return nil, err
	}

	count, err := rs.resourceRepository.IncrementDownloadCount(ctx, id)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	r.DownloadCount = count

	br := bufio.NewReaderSize(rc, sniffLen)
	head, _ := br.Peek(sniffLen)

	rs.mq.Publish(mq.NewEvent(mq.ActionResourceDownloaded, r, requester))
	rs.mCounter.WithLabelValues(metrics.ResourceDownloads).Inc()

	var content io.ReadCloser = struct {
		io.Reader
		io.Closer
	}{br, rc}

	return &domain.Download{
		Resource:    r,
		Content:     content,
		ContentType: mimetype.Detect(head).String(),
	}, nil
}

func (rs *ResourceService) fetchAuthorized(
	ctx context.Context,
	requester *uuid.UUID,
	action Action,
	id uuid.UUID,
) (*domain.Resource, error) {
	r, err := rs.resourceRepository.FetchResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = rs.policy.Authorize(ctx, requester, action, r); err != nil {
		return nil, err
	}

	return r, nil
}

// uniqueIDs drops repeated ids, keeping the first occurrence. A link table row exists once per id.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) < 2 {
		return ids
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func validateTitle(s string) (string, error) {
	title := strings.TrimSpace(s)
	if title == "" {
		return "", apperrors.Validation("title", "this field is required")
	}
	if len([]rune(title)) > maxTitleLen {
		return "", apperrors.Validation("title", "must be at most %d characters", maxTitleLen)
	}

	return title, nil
}

// validateFile returns the declared name without any client side directories.
func validateFile(f domain.FileUpload) (string, error) {
	if len(f.Data) == 0 {
		return "", apperrors.Validation("file", "a non-empty file is required")
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(f.Name), "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "", apperrors.Validation("file", "file name is required")
	}

	return name, nil
}

// resolveCategory infers the category when none is given, else it must be the one the name classifies to.
func resolveCategory(requested domain.Category, name string) (domain.Category, error) {
	if strings.TrimSpace(string(requested)) == "" {
		return domain.Classify(name), nil
	}

	c, ok := domain.ParseCategory(string(requested))
	if !ok {
		return "", apperrors.Validation("category", "%q is not a valid choice", requested)
	}
	if !domain.Matches(c, name) {
		return "", apperrors.Validation("file", "file extension doesn't match resource type %s", c)
	}

	return c, nil
}
