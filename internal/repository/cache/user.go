// Package cache decorates repositories with a short-lived in-process cache.
package cache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

type userRepository struct {
	repository.UserRepository
	cache   *cache.Cache
	lookups *prometheus.CounterVec
}

// NewUserRepository caches Get by id for ttl. Every mutation through the
// returned repository evicts the affected entry. lookups may be nil.
func NewUserRepository(inner repository.UserRepository, ttl time.Duration, lookups *prometheus.CounterVec) repository.UserRepository {
	if ttl <= 0 {
		return inner
	}
	return &userRepository{
		UserRepository: inner,
		cache:          cache.New(ttl, 2*ttl),
		lookups:        lookups,
	}
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	if cached, found := r.cache.Get(id); found {
		r.observe("hit")
		u := cached.(model.User)
		return &u, nil
	}
	r.observe("miss")

	user, err := r.UserRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(id, *user, cache.DefaultExpiration)
	return user, nil
}

// Mutations evict before and after the write: a concurrent Get between the
// two must not leave the old record cached.
func (r *userRepository) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	r.cache.Delete(id)
	defer r.cache.Delete(id)
	return r.UserRepository.UpdateStatus(ctx, id, status)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	defer r.cache.Delete(id)
	return r.UserRepository.Delete(ctx, id)
}

func (r *userRepository) observe(result string) {
	if r.lookups != nil {
		r.lookups.WithLabelValues(result).Inc()
	}
}
