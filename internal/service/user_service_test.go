package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type memoryUsers struct {
	users   map[int64]*model.User
	touched map[int64]time.Time
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[int64]*model.User{}, touched: map[int64]time.Time{}}
}

func (m *memoryUsers) Create(_ context.Context, id int64, username string) (*model.User, error) {
	u := &model.User{UserID: id, Username: username, DailyNotifyEnabled: true}
	m.users[id] = u
	return u, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return m.users[id], nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) Touch(_ context.Context, id int64, username string, at time.Time) error {
	m.users[id].Username = username
	m.touched[id] = at
	return nil
}

func (m *memoryUsers) SetGroup(_ context.Context, id int64, group string) error {
	m.users[id].Group = group
	return nil
}

func (m *memoryUsers) SetRole(_ context.Context, id int64, role model.Role) error {
	m.users[id].Role = &role
	return nil
}

func (m *memoryUsers) SetDailyNotify(_ context.Context, id int64, enabled bool) error {
	m.users[id].DailyNotifyEnabled = enabled
	return nil
}

func (m *memoryUsers) SetNotifyOnline(_ context.Context, id int64, enabled bool) error {
	m.users[id].NotifyOnline = enabled
	return nil
}

func (m *memoryUsers) SetNotificationTime(_ context.Context, id int64, hhmm string) error {
	m.users[id].NotificationTime = &hhmm
	return nil
}

func (m *memoryUsers) SetSubgroup(_ context.Context, id int64, subgroup *int) error {
	m.users[id].Subgroup = subgroup
	return nil
}

func (m *memoryUsers) SetTutorialCompleted(_ context.Context, id int64) error {
	m.users[id].TutorialCompleted = true
	return nil
}

type memoryChats struct {
	chats map[int64]*model.Chat
}

func newMemoryChats() *memoryChats {
	return &memoryChats{chats: map[int64]*model.Chat{}}
}

func (m *memoryChats) Create(_ context.Context, id int64) (bool, error) {
	if _, ok := m.chats[id]; ok {
		return false, nil
	}
	m.chats[id] = &model.Chat{ChatID: id, DailyNotifyEnabled: true}
	return true, nil
}

func (m *memoryChats) GetByID(_ context.Context, id int64) (*model.Chat, error) {
	return m.chats[id], nil
}

func (m *memoryChats) SetGroup(_ context.Context, id int64, group string, threadID *int64) error {
	m.chats[id].Group = group
	m.chats[id].ThreadID = threadID
	return nil
}

func (m *memoryChats) SetDailyNotify(_ context.Context, id int64, enabled bool) error {
	m.chats[id].DailyNotifyEnabled = enabled
	return nil
}

func (m *memoryChats) SetNotifyOnline(_ context.Context, id int64, enabled bool) error {
	m.chats[id].NotifyOnline = enabled
	return nil
}

func (m *memoryChats) SetNotificationTime(_ context.Context, id int64, hhmm string) error {
	m.chats[id].NotificationTime = &hhmm
	return nil
}

func (m *memoryChats) Delete(_ context.Context, id int64) error {
	delete(m.chats, id)
	return nil
}

type memoryBlocked map[int64]time.Time

func (m memoryBlocked) Add(_ context.Context, id int64, _ string, at time.Time) error {
	m[id] = at
	return nil
}

func (m memoryBlocked) Remove(_ context.Context, id int64) error {
	delete(m, id)
	return nil
}

type knownGroups map[string]bool

func (k knownGroups) IsKnown(_ context.Context, group string) bool {
	return k[group]
}

func newTestUserService() (*UserService, *memoryUsers, *memoryChats, memoryBlocked) {
	users := newMemoryUsers()
	chats := newMemoryChats()
	blocked := memoryBlocked{}
	svc := NewUserService(users, chats, blocked, knownGroups{"241-362": true, "241-361": true},
		clock.NewManual(wednesday), zap.NewNop())
	return svc, users, chats, blocked
}

func TestUserService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newTestUserService()

	u, err := svc.RegisterUser(ctx, 1, "student")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.UserID)
	assert.Empty(t, users.touched)

	_, err = svc.RegisterUser(ctx, 1, "renamed")
	require.NoError(t, err)
	assert.Equal(t, wednesday, users.touched[1])
	assert.Equal(t, "renamed", users.users[1].Username)
}

func TestUserService_SetUserGroup(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newTestUserService()

	needTutorial, err := svc.SetUserGroup(ctx, 1, "student", "241-362")
	require.NoError(t, err)
	assert.True(t, needTutorial)
	assert.Equal(t, "241-362", users.users[1].Group)

	require.NoError(t, svc.CompleteTutorial(ctx, 1))
	needTutorial, err = svc.SetUserGroup(ctx, 1, "student", "241-361")
	require.NoError(t, err)
	assert.False(t, needTutorial)

	_, err = svc.SetUserGroup(ctx, 1, "student", "999-999")
	assert.ErrorIs(t, err, ErrUnknownGroup)
	assert.Equal(t, "241-361", users.users[1].Group)
}

func TestUserService_ResolveGroup(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestUserService()

	_, err := svc.RegisterUser(ctx, 1, "student")
	require.NoError(t, err)

	_, _, err = svc.ResolveGroup(ctx, 1, 1, false)
	assert.ErrorIs(t, err, ErrGroupNotSet)

	_, err = svc.SetUserGroup(ctx, 1, "student", "241-362")
	require.NoError(t, err)
	require.NoError(t, svc.SetSubgroup(ctx, 1, 2))

	group, subgroup, err := svc.ResolveGroup(ctx, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "241-362", group)
	assert.Equal(t, 2, subgroup)

	t.Run("group chat uses chat group", func(t *testing.T) {
		_, err := svc.RegisterChat(ctx, -100)
		require.NoError(t, err)

		_, _, err = svc.ResolveGroup(ctx, -100, 1, true)
		assert.ErrorIs(t, err, ErrGroupNotSet)

		require.NoError(t, svc.SetChatGroup(ctx, -100, "241-361", nil))
		group, _, err := svc.ResolveGroup(ctx, -100, 1, true)
		require.NoError(t, err)
		assert.Equal(t, "241-361", group)
	})
}

func TestUserService_Settings(t *testing.T) {
	ctx := context.Background()
	svc, users, chats, _ := newTestUserService()

	_, err := svc.SetUserGroup(ctx, 1, "student", "241-362")
	require.NoError(t, err)

	daily, err := svc.ToggleDaily(ctx, 1, 1, false)
	require.NoError(t, err)
	assert.False(t, daily)
	assert.False(t, users.users[1].DailyNotifyEnabled)

	online, err := svc.ToggleOnline(ctx, 1, 1, false)
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, svc.SetNotificationTime(ctx, 1, 1, false, "07:30"))
	assert.ErrorIs(t, svc.SetNotificationTime(ctx, 1, 1, false, "25:00"), ErrInvalidTime)

	settings, err := svc.Settings(ctx, 1, 1, false)
	require.NoError(t, err)
	require.NotNil(t, settings.NotificationTime)
	assert.Equal(t, "07:30", *settings.NotificationTime)
	assert.False(t, settings.IsChat)

	assert.ErrorIs(t, svc.SetSubgroup(ctx, 1, 3), ErrInvalidSubgroup)
	require.NoError(t, svc.SetSubgroup(ctx, 1, 0))
	assert.Nil(t, users.users[1].Subgroup)

	t.Run("chat settings", func(t *testing.T) {
		_, err := svc.RegisterChat(ctx, -100)
		require.NoError(t, err)
		_, err = svc.Settings(ctx, -100, 1, true)
		assert.ErrorIs(t, err, ErrGroupNotSet)

		thread := int64(5)
		require.NoError(t, svc.SetChatGroup(ctx, -100, "241-362", &thread))
		online, err := svc.ToggleOnline(ctx, -100, 1, true)
		require.NoError(t, err)
		assert.True(t, online)
		assert.True(t, chats.chats[-100].NotifyOnline)
	})
}

func TestUserService_Blocked(t *testing.T) {
	ctx := context.Background()
	svc, _, _, blocked := newTestUserService()

	_, err := svc.RegisterUser(ctx, 1, "student")
	require.NoError(t, err)

	svc.MarkBlocked(ctx, 1)
	assert.Equal(t, wednesday, blocked[1])

	svc.Unblocked(ctx, 1)
	assert.Empty(t, blocked)
}

func TestUserService_ForgetChat(t *testing.T) {
	ctx := context.Background()
	svc, _, chats, _ := newTestUserService()

	_, err := svc.RegisterChat(ctx, -100)
	require.NoError(t, err)
	require.Contains(t, chats.chats, int64(-100))

	svc.ForgetChat(ctx, -100)
	assert.NotContains(t, chats.chats, int64(-100))
}
