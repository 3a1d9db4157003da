package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type memoryPatterns struct {
	items []*model.Pattern
	lists int
}

func (m *memoryPatterns) Create(_ context.Context, p *model.Pattern) error {
	p.ID = int64(len(m.items) + 1)
	m.items = append(m.items, p)
	return nil
}

func (m *memoryPatterns) List(context.Context) ([]*model.Pattern, error) {
	m.lists++
	return m.items, nil
}

func (m *memoryPatterns) Delete(_ context.Context, id int64) (bool, error) {
	for i, p := range m.items {
		if p.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memoryNames struct {
	items []*model.PersonalizedName
}

func (m *memoryNames) Create(_ context.Context, name string) (*model.PersonalizedName, error) {
	n := &model.PersonalizedName{ID: int64(len(m.items) + 1), Name: name}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memoryNames) DeleteByName(context.Context, string) (bool, error) { return false, nil }

func (m *memoryNames) List(context.Context) ([]*model.PersonalizedName, error) {
	return m.items, nil
}

func TestPatternService_Match(t *testing.T) {
	ctx := context.Background()
	patterns := &memoryPatterns{}
	svc := NewPatternService(patterns, &memoryNames{}, zap.NewNop())

	_, err := svc.AddPattern(ctx, `прив(ет|ки)`, "Привет! 👋")
	require.NoError(t, err)
	_, err = svc.AddPattern(ctx, `спасибо`, "Всегда пожалуйста!")
	require.NoError(t, err)

	resp, ok := svc.Match(ctx, "ПРИВЕТ всем")
	assert.True(t, ok)
	assert.Equal(t, "Привет! 👋", resp)

	_, ok = svc.Match(ctx, "когда пара?")
	assert.False(t, ok)

	// правила кэшируются до изменения
	svc.Match(ctx, "спасибо")
	assert.Equal(t, 1, patterns.lists)

	deleted, err := svc.DeletePattern(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, ok = svc.Match(ctx, "привет")
	assert.False(t, ok)
	assert.Equal(t, 2, patterns.lists)
}

func TestPatternService_InvalidPattern(t *testing.T) {
	svc := NewPatternService(&memoryPatterns{}, &memoryNames{}, zap.NewNop())

	_, err := svc.AddPattern(context.Background(), `(незакрытая`, "ответ")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestPatternService_Mentioned(t *testing.T) {
	ctx := context.Background()
	svc := NewPatternService(&memoryPatterns{}, &memoryNames{}, zap.NewNop())

	_, err := svc.AddName(ctx, "Поли")
	require.NoError(t, err)

	assert.True(t, svc.Mentioned(ctx, "поли, какая сейчас пара?"))
	assert.False(t, svc.Mentioned(ctx, "какая сейчас пара?"))
}

func TestParsePatternArgs(t *testing.T) {
	pattern, response, ok := ParsePatternArgs(" когда сессия => Скоро 😱 ")
	require.True(t, ok)
	assert.Equal(t, "когда сессия", pattern)
	assert.Equal(t, "Скоро 😱", response)

	_, _, ok = ParsePatternArgs("без разделителя")
	assert.False(t, ok)

	_, _, ok = ParsePatternArgs("=> пусто")
	assert.False(t, ok)
}
