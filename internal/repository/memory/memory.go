// Package memory is an in-process store used for local development
// (database.driver: memory) and by service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/repository"
)

// DB holds every collection behind one lock.
type DB struct {
	mu           sync.RWMutex
	users        map[string]model.User
	profiles     map[string]model.PatientProfile
	appointments map[string]model.Appointment
	now          func() time.Time
}

func New() *DB {
	return &DB{
		users:        make(map[string]model.User),
		profiles:     make(map[string]model.PatientProfile),
		appointments: make(map[string]model.Appointment),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// NewStore exposes db through the repository interfaces.
func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Users:        &userRepository{db: db},
		Profiles:     &profileRepository{db: db},
		Appointments: &appointmentRepository{db: db},
		Pinger:       db,
		Close:        func() error { return nil },
	}
}

func (db *DB) Ping(context.Context) error { return nil }

// PutUser stores u as is, keeping a preset ID and timestamps.
func (db *DB) PutUser(u *model.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.Touch(db.now())
	}
	db.users[u.ID] = *u
}

// PutProfile stores a patient profile.
func (db *DB) PutProfile(p *model.PatientProfile) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.profiles[p.UserID] = *p
}

// HasUser and HasProfile let tests observe deletions.
func (db *DB) HasUser(id string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.users[id]
	return ok
}

func (db *DB) HasProfile(userID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.profiles[userID]
	return ok
}

type userRepository struct {
	db *DB
}

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New().String()
	user.Touch(r.db.now())
	r.db.users[user.ID] = *user
	return nil
}

func (r *userRepository) Get(_ context.Context, id string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(_ context.Context, filter model.UserFilter) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := []*model.User{}
	for _, u := range r.db.users {
		if matches(u, filter) {
			u := u
			users = append(users, &u)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) Count(_ context.Context, filter model.UserFilter) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, u := range r.db.users {
		if matches(u, filter) {
			n++
		}
	}
	return n, nil
}

func (r *userRepository) UpdateStatus(_ context.Context, id string, status model.UserStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = r.db.now()
	r.db.users[id] = u
	return nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.users, id)
	return nil
}

func matches(u model.User, f model.UserFilter) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	return true
}

type profileRepository struct {
	db *DB
}

func (r *profileRepository) GetByUserID(_ context.Context, userID string) (*model.PatientProfile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *profileRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.profiles, userID)
	return nil
}

type appointmentRepository struct {
	db *DB
}

func (r *appointmentRepository) Create(_ context.Context, a *model.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a.ID = uuid.New().String()
	a.Touch(r.db.now())
	r.db.appointments[a.ID] = *a
	return nil
}

func (r *appointmentRepository) Get(_ context.Context, id string) (*model.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *appointmentRepository) UpdateStatus(_ context.Context, id string, status model.AppointmentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = r.db.now()
	r.db.appointments[id] = a
	return nil
}
