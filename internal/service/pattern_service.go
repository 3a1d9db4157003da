package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

type PatternStore interface {
	Create(ctx context.Context, p *model.Pattern) error
	List(ctx context.Context) ([]*model.Pattern, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type NameStore interface {
	Create(ctx context.Context, name string) (*model.PersonalizedName, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]*model.PersonalizedName, error)
}

type compiledPattern struct {
	re       *regexp.Regexp
	response string
}

// PatternService автоответы по регулярным выражениям и имена, на которые бот отзывается в чатах
type PatternService struct {
	patterns PatternStore
	names    NameStore
	logger   *zap.Logger

	mu       sync.RWMutex
	loaded   bool
	compiled []compiledPattern
	known    []string
}

func NewPatternService(patterns PatternStore, names NameStore, logger *zap.Logger) *PatternService {
	return &PatternService{patterns: patterns, names: names, logger: logger}
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + expr)
}

// Reload перечитывает правила и имена из БД
func (s *PatternService) Reload(ctx context.Context) error {
	patterns, err := s.patterns.List(ctx)
	if err != nil {
		return err
	}
	names, err := s.names.List(ctx)
	if err != nil {
		return err
	}

	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := compilePattern(p.Pattern)
		if err != nil {
			s.logger.Warn("Skipping invalid pattern", zap.Int64("pattern_id", p.ID), zap.Error(err))
			continue
		}
		compiled = append(compiled, compiledPattern{re: re, response: p.Response})
	}
	known := make([]string, 0, len(names))
	for _, n := range names {
		known = append(known, n.Name)
	}

	s.mu.Lock()
	s.compiled, s.known, s.loaded = compiled, known, true
	s.mu.Unlock()

	s.logger.Debug("Patterns loaded", zap.Int("patterns", len(compiled)), zap.Int("names", len(known)))
	return nil
}

func (s *PatternService) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	if err := s.Reload(ctx); err != nil {
		s.logger.Error("Failed to load patterns", zap.Error(err))
	}
}

// Match ответ первого подходящего правила
func (s *PatternService) Match(ctx context.Context, text string) (string, bool) {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.compiled {
		if p.re.MatchString(text) {
			return p.response, true
		}
	}
	return "", false
}

// Mentioned упоминается ли в тексте одно из имён бота
func (s *PatternService) Mentioned(ctx context.Context, text string) bool {
	s.ensureLoaded(ctx)

	lower := strings.ToLower(text)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.known {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// ParsePatternArgs разбирает "<regexp> => <ответ>"
func ParsePatternArgs(payload string) (pattern, response string, ok bool) {
	pattern, response, found := strings.Cut(payload, "=>")
	if !found {
		return "", "", false
	}
	pattern, response = strings.TrimSpace(pattern), strings.TrimSpace(response)
	if pattern == "" || response == "" {
		return "", "", false
	}
	return pattern, response, true
}

func (s *PatternService) AddPattern(ctx context.Context, pattern, response string) (*model.Pattern, error) {
	if _, err := compilePattern(pattern); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	p := &model.Pattern{Pattern: pattern, Response: response}
	if err := s.patterns.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate()
	return p, nil
}

func (s *PatternService) DeletePattern(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.patterns.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.invalidate()
	return deleted, nil
}

func (s *PatternService) ListPatterns(ctx context.Context) ([]*model.Pattern, error) {
	return s.patterns.List(ctx)
}

// AddName добавляет имя; repository.ErrAlreadyExists для дубликата
func (s *PatternService) AddName(ctx context.Context, name string) (*model.PersonalizedName, error) {
	n, err := s.names.Create(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return n, nil
}

func (s *PatternService) DeleteName(ctx context.Context, name string) (bool, error) {
	deleted, err := s.names.DeleteByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return false, err
	}
	s.invalidate()
	return deleted, nil
}

func (s *PatternService) ListNames(ctx context.Context) ([]*model.PersonalizedName, error) {
	return s.names.List(ctx)
}

func (s *PatternService) invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}
