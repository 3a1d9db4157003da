package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type memoryAdmins struct {
	perms map[int64]map[model.Permission]bool
}

func newMemoryAdmins() *memoryAdmins {
	return &memoryAdmins{perms: map[int64]map[model.Permission]bool{}}
}

func (m *memoryAdmins) Grant(_ context.Context, userID int64, _ string, perm model.Permission) error {
	if m.perms[userID] == nil {
		m.perms[userID] = map[model.Permission]bool{}
	}
	m.perms[userID][perm] = true
	return nil
}

func (m *memoryAdmins) Revoke(_ context.Context, userID int64, perm model.Permission) (bool, error) {
	ok := m.perms[userID][perm]
	delete(m.perms[userID], perm)
	return ok, nil
}

func (m *memoryAdmins) Remove(_ context.Context, userID int64) (bool, error) {
	_, ok := m.perms[userID]
	delete(m.perms, userID)
	return ok, nil
}

func (m *memoryAdmins) HasPermission(_ context.Context, userID int64, perm model.Permission) (bool, error) {
	return m.perms[userID][perm], nil
}

func (m *memoryAdmins) Permissions(_ context.Context, userID int64) ([]model.Permission, error) {
	var out []model.Permission
	for p := range m.perms[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryAdmins) List(context.Context) ([]*model.AdminUser, error) {
	var out []*model.AdminUser
	for id := range m.perms {
		out = append(out, &model.AdminUser{UserID: id})
	}
	return out, nil
}

func TestAccessService(t *testing.T) {
	ctx := context.Background()
	const (
		root     = int64(100)
		delegate = int64(200)
		stranger = int64(300)
	)
	svc := NewAccessService(newMemoryAdmins(), []int64{root}, zap.NewNop())

	assert.True(t, svc.HasPermission(ctx, root, model.PermBroadcast))
	assert.False(t, svc.HasPermission(ctx, delegate, model.PermBroadcast))

	require.NoError(t, svc.Grant(ctx, root, delegate, "moder", model.PermBroadcast))
	assert.True(t, svc.HasPermission(ctx, delegate, model.PermBroadcast))
	assert.False(t, svc.HasPermission(ctx, delegate, model.PermBanUser))
	assert.True(t, svc.IsAdmin(ctx, delegate))
	assert.False(t, svc.IsAdmin(ctx, stranger))

	err := svc.Grant(ctx, delegate, stranger, "", model.PermBanUser)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	removed, err := svc.Revoke(ctx, root, delegate, model.PermBroadcast)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, svc.HasPermission(ctx, delegate, model.PermBroadcast))

	removed, err = svc.Revoke(ctx, root, stranger, "")
	require.NoError(t, err)
	assert.False(t, removed)
}
