// Package memory はrepositoryのインメモリ実装。
// STORE_DRIVER=memory のローカル起動とシナリオテストで使う。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
)

// Storeは全テーブルを1つのロックで守る。
type Store struct {
	mu sync.RWMutex

	users         map[string]model.User
	students      map[string]model.Student
	teachers      map[string]model.Teacher
	parents       map[string]model.Parent
	admins        map[string]model.Admin
	registrations map[string]model.RegistrationRequest
	tokens        map[string]model.RefreshToken
	sessions      map[string]model.DeviceSession
	notifications map[string]model.Notification
	logs          []model.ActivityLog
	attendance    map[string]model.AttendanceSession
	records       map[string]model.AttendanceRecord
}

func NewStore() *Store {
	return &Store{
		users:         map[string]model.User{},
		students:      map[string]model.Student{},
		teachers:      map[string]model.Teacher{},
		parents:       map[string]model.Parent{},
		admins:        map[string]model.Admin{},
		registrations: map[string]model.RegistrationRequest{},
		tokens:        map[string]model.RefreshToken{},
		sessions:      map[string]model.DeviceSession{},
		notifications: map[string]model.Notification{},
		attendance:    map[string]model.AttendanceSession{},
		records:       map[string]model.AttendanceRecord{},
	}
}

func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:         &userRepo{s},
		Students:      &studentRepo{s},
		Teachers:      &teacherRepo{s},
		Parents:       &parentRepo{s},
		Admins:        &adminRepo{s},
		Registrations: &registrationRepo{s},
		RefreshTokens: &refreshTokenRepo{s},
		Sessions:      &sessionRepo{s},
		Notifications: &notificationRepo{s},
		ActivityLogs:  &activityLogRepo{s},
		Attendance:    &attendanceRepo{s},
	}
}

func paginate[T any](items []T, p repository.Page, def, max int) []T {
	p = p.Normalize(def, max)
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func newestFirst[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]).After(at(items[j])) })
}

func userPtr(u model.User) *model.User {
	return &u
}

// ---- users ----

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; ok {
		return repository.ErrConflict
	}
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return repository.ErrConflict
		}
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.userByEmail(email); ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.userByEmail(email)
	return ok, nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *model.User) { u.LastLogin = &at })
}

func (r *userRepo) UpdatePassword(_ context.Context, id string, hash string, mustChange bool) error {
	return r.update(id, func(u *model.User) {
		u.PasswordHash = &hash
		u.MustChangePassword = mustChange
	})
}

func (r *userRepo) UpdateStatus(_ context.Context, id string, status model.UserStatus) error {
	return r.update(id, func(u *model.User) { u.Status = status })
}

func (r *userRepo) Activate(_ context.Context, id string, hash string) error {
	return r.update(id, func(u *model.User) {
		u.Status = model.UserStatusActive
		u.PasswordHash = &hash
		u.MustChangePassword = true
	})
}

func (r *userRepo) ResetToPending(_ context.Context, id string) error {
	return r.update(id, func(u *model.User) {
		u.Status = model.UserStatusPending
		u.PasswordHash = nil
		u.MustChangePassword = false
	})
}

// FKのON DELETE CASCADE相当
func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for k, v := range r.s.students {
		if v.UserID == id {
			delete(r.s.students, k)
		}
	}
	for k, v := range r.s.teachers {
		if v.UserID == id {
			delete(r.s.teachers, k)
		}
	}
	for k, v := range r.s.parents {
		if v.UserID == id {
			delete(r.s.parents, k)
		}
	}
	for k, v := range r.s.admins {
		if v.UserID == id {
			delete(r.s.admins, k)
		}
	}
	for k, v := range r.s.registrations {
		if v.UserID == id {
			delete(r.s.registrations, k)
		}
	}
	for k, v := range r.s.attendance {
		if v.CreatorID == id {
			delete(r.s.attendance, k)
		}
	}
	for k, v := range r.s.records {
		if _, ok := r.s.attendance[v.SessionID]; v.UserID == id || !ok {
			delete(r.s.records, k)
		}
	}
	return nil
}

func (r *userRepo) List(_ context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.filterUsers(f)
	newestFirst(matched, func(u model.User) time.Time { return u.CreatedAt })
	return paginate(matched, f.Page, 20, 100), int64(len(matched)), nil
}

func (r *userRepo) Count(_ context.Context, f repository.UserFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return int64(len(r.s.filterUsers(f))), nil
}

func (r *userRepo) ListIDsByRoles(_ context.Context, roles []model.Role, status *model.UserStatus) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := []string{}
	for _, u := range r.s.users {
		if len(roles) > 0 && !containsRole(roles, u.Role) {
			continue
		}
		if status != nil && u.Status != *status {
			continue
		}
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *userRepo) update(id string, fn func(*model.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

// 以下はロック取得済みで呼ぶ

func (s *Store) userByEmail(email string) (model.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return model.User{}, false
}

func (s *Store) filterUsers(f repository.UserFilter) []model.User {
	out := []model.User{}
	search := strings.ToLower(f.Search)
	for _, u := range s.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.Status != nil && u.Status != *f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func containsRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
