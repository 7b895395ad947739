package memory

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
)

// joinしたUserを付ける。Userがいない行はinner join同様に落とす。
func (s *Store) joinUser(userID string) (*model.User, bool) {
	u, ok := s.users[userID]
	if !ok {
		return nil, false
	}
	return userPtr(u), true
}

func stamp(created *time.Time, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// ---- students ----

type studentRepo struct{ s *Store }

func (r *studentRepo) Create(_ context.Context, st *model.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.students {
		if other.NISN == st.NISN || other.UserID == st.UserID {
			return repository.ErrConflict
		}
	}
	stamp(&st.CreatedAt, &st.UpdatedAt)
	row := *st
	row.User = nil
	r.s.students[st.ID] = row
	return nil
}

func (r *studentRepo) FindByNISN(_ context.Context, nisn string) (*model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, st := range r.s.students {
		if st.NISN != nisn {
			continue
		}
		u, ok := r.s.joinUser(st.UserID)
		if !ok {
			break
		}
		st.User = u
		return &st, nil
	}
	return nil, repository.ErrNotFound
}

func (r *studentRepo) FindByUserID(_ context.Context, userID string) (*model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, st := range r.s.students {
		if st.UserID == userID {
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *studentRepo) FindByID(_ context.Context, id string) (*model.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (r *studentRepo) UpdateContact(_ context.Context, userID string, f model.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, st := range r.s.students {
		if st.UserID != userID {
			continue
		}
		setContact(f, &st.FullName, &st.Phone, &st.Address, &st.AvatarURL)
		st.UpdatedAt = time.Now()
		r.s.students[k] = st
		return nil
	}
	return repository.ErrNotFound
}

func (r *studentRepo) ExistsByNISN(_ context.Context, nisn string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, st := range r.s.students {
		if st.NISN == nisn {
			return true, nil
		}
	}
	return false, nil
}

// ---- teachers ----

type teacherRepo struct{ s *Store }

func (r *teacherRepo) Create(_ context.Context, t *model.Teacher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.teachers {
		if other.NIP == t.NIP || other.UserID == t.UserID {
			return repository.ErrConflict
		}
	}
	stamp(&t.CreatedAt, &t.UpdatedAt)
	row := *t
	row.User = nil
	r.s.teachers[t.ID] = row
	return nil
}

func (r *teacherRepo) FindByNIP(_ context.Context, nip string) (*model.Teacher, error) {
	return r.find(func(t model.Teacher, _ *model.User) bool { return t.NIP == nip })
}

func (r *teacherRepo) FindByEmail(_ context.Context, email string) (*model.Teacher, error) {
	return r.find(func(_ model.Teacher, u *model.User) bool {
		return u.Email == email && u.Role == model.RoleTeacher
	})
}

func (r *teacherRepo) FindByUserID(_ context.Context, userID string) (*model.Teacher, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.teachers {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *teacherRepo) ExistsByNIP(_ context.Context, nip string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.teachers {
		if t.NIP == nip {
			return true, nil
		}
	}
	return false, nil
}

func (r *teacherRepo) UpdateContact(_ context.Context, userID string, f model.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, t := range r.s.teachers {
		if t.UserID != userID {
			continue
		}
		setContact(f, &t.FullName, &t.Phone, &t.Address, &t.AvatarURL)
		t.UpdatedAt = time.Now()
		r.s.teachers[k] = t
		return nil
	}
	return repository.ErrNotFound
}

func (r *teacherRepo) find(match func(model.Teacher, *model.User) bool) (*model.Teacher, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.teachers {
		u, ok := r.s.joinUser(t.UserID)
		if !ok || !match(t, u) {
			continue
		}
		t.User = u
		return &t, nil
	}
	return nil, repository.ErrNotFound
}

// ---- parents ----

type parentRepo struct{ s *Store }

func (r *parentRepo) Create(_ context.Context, p *model.Parent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.parents {
		if other.UserID == p.UserID {
			return repository.ErrConflict
		}
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	row := *p
	row.User = nil
	r.s.parents[p.ID] = row
	return nil
}

func (r *parentRepo) FindByEmail(_ context.Context, email string) (*model.Parent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.parents {
		u, ok := r.s.joinUser(p.UserID)
		if !ok || u.Email != email || u.Role != model.RoleParent {
			continue
		}
		p.User = u
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *parentRepo) FindByUserID(_ context.Context, userID string) (*model.Parent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.parents {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *parentRepo) FindByID(_ context.Context, id string) (*model.Parent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.parents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *parentRepo) UpdateContact(_ context.Context, userID string, f model.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, p := range r.s.parents {
		if p.UserID != userID {
			continue
		}
		setContact(f, &p.FullName, &p.Phone, &p.Address, nil)
		p.UpdatedAt = time.Now()
		r.s.parents[k] = p
		return nil
	}
	return repository.ErrNotFound
}

func (r *parentRepo) ListPendingLinks(_ context.Context, studentID string) ([]model.Parent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.Parent{}
	for _, p := range r.s.parents {
		if !linkedTo(p, studentID, model.LinkStatusPending) {
			continue
		}
		u, ok := r.s.joinUser(p.UserID)
		if !ok {
			continue
		}
		p.User = u
		out = append(out, p)
	}
	newestFirst(out, func(p model.Parent) time.Time {
		if p.LinkRequestedAt == nil {
			return time.Time{}
		}
		return *p.LinkRequestedAt
	})
	return out, nil
}

func (r *parentRepo) ExistsApprovedLink(_ context.Context, studentID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.parents {
		if linkedTo(p, studentID, model.LinkStatusApproved) {
			return true, nil
		}
	}
	return false, nil
}

func (r *parentRepo) RequestLink(_ context.Context, parentID, studentID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.parents[parentID]
	if !ok || (p.LinkStatus != nil && *p.LinkStatus == model.LinkStatusApproved) {
		return repository.ErrStateChanged
	}
	status := model.LinkStatusPending
	sid := studentID
	p.StudentID, p.LinkStatus, p.LinkRequestedAt, p.LinkApprovedAt = &sid, &status, &at, nil
	p.UpdatedAt = time.Now()
	r.s.parents[parentID] = p
	return nil
}

func (r *parentRepo) ResolveLink(_ context.Context, parentID, studentID string, to model.LinkStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.parents[parentID]
	if !ok || !linkedTo(p, studentID, model.LinkStatusPending) {
		return repository.ErrStateChanged
	}
	status := to
	p.LinkStatus = &status
	if to == model.LinkStatusApproved {
		p.LinkApprovedAt = &at
	} else {
		p.StudentID = nil
	}
	p.UpdatedAt = time.Now()
	r.s.parents[parentID] = p
	return nil
}

func linkedTo(p model.Parent, studentID string, status model.LinkStatus) bool {
	return p.StudentID != nil && *p.StudentID == studentID &&
		p.LinkStatus != nil && *p.LinkStatus == status
}

// ---- admins ----

type adminRepo struct{ s *Store }

func (r *adminRepo) Create(_ context.Context, a *model.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.admins {
		if other.UserID == a.UserID {
			return repository.ErrConflict
		}
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	row := *a
	row.User = nil
	r.s.admins[a.ID] = row
	return nil
}

func (r *adminRepo) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.admins {
		u, ok := r.s.joinUser(a.UserID)
		if !ok || u.Email != email || !u.Role.IsAdmin() {
			continue
		}
		a.User = u
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

func (r *adminRepo) FindByUserID(_ context.Context, userID string) (*model.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.admins {
		if a.UserID == userID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *adminRepo) UpdateContact(_ context.Context, userID string, f model.ProfileUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for k, a := range r.s.admins {
		if a.UserID != userID {
			continue
		}
		setContact(f, &a.FullName, &a.Phone, nil, nil)
		a.UpdatedAt = time.Now()
		r.s.admins[k] = a
		return nil
	}
	return repository.ErrNotFound
}

// nilの宛先はそのテーブルにないカラム
func setContact(f model.ProfileUpdate, fullName, phone, address, avatar *string) {
	set := func(dst *string, v *string) {
		if dst != nil && v != nil {
			*dst = *v
		}
	}
	set(fullName, f.FullName)
	set(phone, f.Phone)
	set(address, f.Address)
	set(avatar, f.AvatarURL)
}
