package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"study-buddy-api/internal/domain/membership"
	"study-buddy-api/internal/domain/resource"
	"study-buddy-api/internal/infrastructure/mq"
	"study-buddy-api/pkg/apperrors"
)

// memResourceRepo mimics the postgres repository, including its atomic counter.
type memResourceRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*resource.Resource
	members *memMembershipRepo

	catalog resource.CatalogCategories

	CreateErr error
	UpdateErr error
}

func newMemResourceRepo(members *memMembershipRepo) *memResourceRepo {
	return &memResourceRepo{rows: map[uuid.UUID]*resource.Resource{}, members: members}
}

func (m *memResourceRepo) get(id uuid.UUID) (*resource.Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func (m *memResourceRepo) FetchResource(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	r, ok := m.get(id)
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, apperrors.ErrNotFound)
	}
	return r, nil
}

func (m *memResourceRepo) FetchVisibleResources(ctx context.Context, viewerID *uuid.UUID, f resource.Filter) (resource.Resources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out resource.Resources
	for _, r := range m.rows {
		visible := r.Visibility == resource.VisibilityPublic || r.IsOwnedBy(viewerID)
		if !visible && viewerID != nil {
			visible, _ = m.members.HasActiveMembership(ctx, *viewerID, r.GroupIDs)
		}
		if visible && (f.Category == nil || *f.Category == r.Category) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memResourceRepo) FetchOwnerResources(ctx context.Context, ownerID uuid.UUID, f resource.Filter) (resource.Resources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out resource.Resources
	for _, r := range m.rows {
		if r.IsOwnedBy(&ownerID) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// errDuplicateLink stands in for the link tables' primary key rejecting a repeated id.
var errDuplicateLink = errors.New("duplicate key value violates unique constraint")

func hasRepeats(lists ...[]uuid.UUID) bool {
	for _, ids := range lists {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				return true
			}
			seen[id] = true
		}
	}
	return false
}

func (m *memResourceRepo) CreateResource(ctx context.Context, req *resource.Resource) (*resource.Resource, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if hasRepeats(req.GroupIDs, req.CategoryIDs, req.TagIDs) {
		return nil, errDuplicateLink
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	cp.DownloadCount = 0
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.rows[cp.UUID] = &cp
	out := cp
	return &out, nil
}

func (m *memResourceRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, upd resource.MetadataUpdate) (*resource.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if upd.GroupIDs != nil && hasRepeats(*upd.GroupIDs) {
		return nil, errDuplicateLink
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.Category != nil {
		r.Category = *upd.Category
	}
	if upd.Visibility != nil {
		r.Visibility = *upd.Visibility
	}
	if upd.GroupIDs != nil {
		r.GroupIDs = append([]uuid.UUID{}, *upd.GroupIDs...)
	}
	cp := *r
	return &cp, nil
}

func (m *memResourceRepo) UpdateFile(ctx context.Context, id uuid.UUID, file resource.FileRef, sizeBytes uint64, category resource.Category) (*resource.Resource, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	r.File = file
	r.SizeBytes = sizeBytes
	r.Category = category
	cp := *r
	return &cp, nil
}

func (m *memResourceRepo) DeleteResource(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memResourceRepo) IncrementDownloadCount(ctx context.Context, id uuid.UUID) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	r.DownloadCount++
	return r.DownloadCount, nil
}

func (m *memResourceRepo) FetchCatalogCategories(ctx context.Context) (resource.CatalogCategories, error) {
	return m.catalog, nil
}

type memberKey struct{ user, group uuid.UUID }

// memMembershipRepo enforces one row per (user, group) like the unique constraint does.
type memMembershipRepo struct {
	mu   sync.Mutex
	rows map[memberKey]*membership.Membership
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{rows: map[memberKey]*membership.Membership{}}
}

func (m *memMembershipRepo) add(user, group uuid.UUID, role membership.Role, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[memberKey{user, group}] = &membership.Membership{
		UserID: user, GroupID: group, Role: role, IsActive: active, JoinedAt: time.Now().UTC(),
	}
}

func (m *memMembershipRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memMembershipRepo) FetchMembership(ctx context.Context, userID, groupID uuid.UUID) (*membership.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[memberKey{userID, groupID}]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memMembershipRepo) FetchGroupMemberships(ctx context.Context, groupID uuid.UUID) (membership.Memberships, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out membership.Memberships
	for k, row := range m.rows {
		if k.group == groupID && row.IsActive {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memMembershipRepo) HasActiveMembership(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range groupIDs {
		if row, ok := m.rows[memberKey{userID, g}]; ok && row.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMembershipRepo) CreateMembership(ctx context.Context, req membership.Membership) (*membership.Membership, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memberKey{req.UserID, req.GroupID}
	if row, ok := m.rows[k]; ok {
		cp := *row
		return &cp, false, nil
	}
	cp := req
	m.rows[k] = &cp
	out := cp
	return &out, true, nil
}

func (m *memMembershipRepo) SetActive(ctx context.Context, userID, groupID uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[memberKey{userID, groupID}]
	if !ok {
		return apperrors.ErrNotFound
	}
	row.IsActive = active
	return nil
}

// FakeBlobStorage keeps blobs in memory and records every call.
type FakeBlobStorage struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	puts    []string
	deletes []string

	PutFunc    func(key string) error
	DeleteFunc func(key string) error
}

func newFakeBlobStorage() *FakeBlobStorage {
	return &FakeBlobStorage{blobs: map[string][]byte{}}
}

func (f *FakeBlobStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.PutFunc != nil {
		if err := f.PutFunc(key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, key)
	f.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (f *FakeBlobStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[key]
	if !ok {
		return nil, apperrors.Storage("open", key, fmt.Errorf("object is missing"))
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *FakeBlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[key]
	return ok, nil
}

func (f *FakeBlobStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, key)
	f.mu.Unlock()
	if f.DeleteFunc != nil {
		if err := f.DeleteFunc(key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *FakeBlobStorage) has(key string) bool {
	ok, _ := f.Exists(context.Background(), key)
	return ok
}

func (f *FakeBlobStorage) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

type FakePublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (f *FakePublisher) Publish(e mq.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *FakePublisher) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Action
	}
	return out
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counters"}, []string{"result"})
}

// harness wires the real services over in-memory stores.
type harness struct {
	members   *memMembershipRepo
	resources *memResourceRepo
	blobs     *FakeBlobStorage
	events    *FakePublisher
	counter   *prometheus.CounterVec
	policy    *AccessPolicy
	lifecycle *Lifecycle
	svc       *ResourceService
	msvc      *MembershipService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		members: newMemMembershipRepo(),
		blobs:   newFakeBlobStorage(),
		events:  &FakePublisher{},
		counter: newCounter(),
	}
	h.resources = newMemResourceRepo(h.members)
	h.policy = NewAccessPolicy(NewMembershipAuthority(h.members))
	h.lifecycle = NewLifecycle(h.blobs, h.resources, h.events, zap.NewNop(), h.counter)

	svc, ok := NewResourceService(h.resources, h.blobs, h.policy, h.lifecycle, h.events, zap.NewNop(), h.counter).(*ResourceService)
	require.True(t, ok)
	h.svc = svc
	msvc, ok := NewMembershipService(h.members, h.policy, zap.NewNop(), h.counter).(*MembershipService)
	require.True(t, ok)
	h.msvc = msvc

	return h
}

func ptr[T any](v T) *T { return &v }

func pdfBytes(n int) []byte {
	b := bytes.Repeat([]byte{'x'}, n)
	copy(b, "%PDF-1.4\n")
	return b
}
