package settings

import (
	"log/slog"
	"strconv"
	"sync"
	"time"
)

type Repository interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Service reads policy values from the settings table through a small TTL
// cache. The cache bounds staleness: an admin edit is visible within one TTL
// on every instance, and the hot transfer path avoids a settings query per
// request.
type Service struct {
	repo   Repository
	logger *slog.Logger

	fallback Policy
	ttl      time.Duration

	mu        sync.RWMutex
	cached    Policy
	fetchedAt time.Time
}

func NewService(repo Repository, fallback Policy, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		fallback: fallback,
		ttl:      ttl,
	}
}

// CurrentPolicy returns the policy snapshot for this request. A missing key
// falls back to the configured default; a store failure serves the last
// cached snapshot if one exists, otherwise the fallback.
func (s *Service) CurrentPolicy() Policy {
	s.mu.RLock()
	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.ttl {
		p := s.cached
		s.mu.RUnlock()
		return p
	}
	s.mu.RUnlock()

	p := Policy{
		WeeklyAllowance: s.intSetting(KeyWeeklyAllowance, s.fallback.WeeklyAllowance),
		MaxTransferSize: s.intSetting(KeyMaxTransferSize, s.fallback.MaxTransferSize),
	}

	s.mu.Lock()
	s.cached = p
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return p
}

// UpdateWeeklyAllowance persists a new allowance and invalidates the cache.
func (s *Service) UpdateWeeklyAllowance(coins int) error {
	if err := s.repo.Set(KeyWeeklyAllowance, strconv.Itoa(coins)); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info("weekly allowance updated", "coins", coins)
	return nil
}

// UpdateMaxTransferSize persists a new per-transfer cap and invalidates the cache.
func (s *Service) UpdateMaxTransferSize(coins int) error {
	if err := s.repo.Set(KeyMaxTransferSize, strconv.Itoa(coins)); err != nil {
		return err
	}
	s.invalidate()
	s.logger.Info("max transfer size updated", "coins", coins)
	return nil
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Service) intSetting(key string, fallback int) int {
	raw, err := s.repo.Get(key)
	if err != nil {
		if err != ErrSettingNotFound {
			s.logger.Warn("settings lookup failed, using fallback", "key", key, "error", err)
		}
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("malformed setting value, using fallback", "key", key, "value", raw)
		return fallback
	}
	return v
}
