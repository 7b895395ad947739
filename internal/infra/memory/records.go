package memory

import (
	"context"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
)

// ---- registration_requests ----

type registrationRepo struct{ s *Store }

func (r *registrationRepo) Create(_ context.Context, req *model.RegistrationRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.registrations[req.ID]; ok {
		return repository.ErrConflict
	}
	stamp(&req.CreatedAt, &req.UpdatedAt)
	row := *req
	row.User = nil
	r.s.registrations[req.ID] = row
	return nil
}

func (r *registrationRepo) FindByID(_ context.Context, id string) (*model.RegistrationRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.registrations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req.User, _ = r.s.joinUser(req.UserID)
	return &req, nil
}

func (r *registrationRepo) List(_ context.Context, f repository.RegistrationFilter) ([]model.RegistrationRequest, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.RegistrationRequest{}
	for _, req := range r.s.registrations {
		if f.Status != nil && req.Status != *f.Status {
			continue
		}
		if f.Type != nil && req.Type != *f.Type {
			continue
		}
		req.User, _ = r.s.joinUser(req.UserID)
		out = append(out, req)
	}
	newestFirst(out, func(req model.RegistrationRequest) time.Time { return req.SubmittedAt })
	return paginate(out, f.Page, 20, 100), int64(len(out)), nil
}

func (r *registrationRepo) Count(_ context.Context, status *model.RegistrationStatus) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, req := range r.s.registrations {
		if status == nil || req.Status == *status {
			n++
		}
	}
	return n, nil
}

func (r *registrationRepo) ExistsPending(_ context.Context, typ model.RegistrationType, naturalKey string, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, req := range r.s.registrations {
		if req.Status != model.RegistrationPending {
			continue
		}
		form := req.Form()
		key := form.NISN
		if typ == model.RegistrationTypeTeacher {
			key = form.NIP
		}
		if (naturalKey != "" && key == naturalKey) || (email != "" && form.Email == email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *registrationRepo) Transition(_ context.Context, id string, from, to model.RegistrationStatus, review model.RegistrationReview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.registrations[id]
	if !ok || req.Status != from {
		return repository.ErrStateChanged
	}
	req.Status = to
	req.ReviewNotes = review.Notes
	req.RejectionReason = review.RejectionReason
	req.GeneratedPassword = review.GeneratedPassword
	if review.ReviewedBy != "" {
		by, at := review.ReviewedBy, review.ReviewedAt
		req.ReviewedBy, req.ReviewedAt = &by, &at
	} else {
		req.ReviewedBy, req.ReviewedAt = nil, nil
	}
	req.UpdatedAt = time.Now()
	r.s.registrations[id] = req
	return nil
}

// ---- refresh_tokens ----

type refreshTokenRepo struct{ s *Store }

func (r *refreshTokenRepo) Create(_ context.Context, t *model.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(&t.CreatedAt, &t.UpdatedAt)
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *refreshTokenRepo) ListActive(_ context.Context, now time.Time) ([]model.RefreshToken, error) {
	return r.list(func(t model.RefreshToken) bool { return t.Usable(now) }), nil
}

func (r *refreshTokenRepo) ListActiveByUser(_ context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	return r.list(func(t model.RefreshToken) bool { return t.UserID == userID && t.Usable(now) }), nil
}

func (r *refreshTokenRepo) Revoke(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[id]
	if !ok || t.Revoked {
		return repository.ErrNotFound
	}
	t.Revoked = true
	t.UpdatedAt = time.Now()
	r.s.tokens[id] = t
	return nil
}

func (r *refreshTokenRepo) RevokeAllByUser(_ context.Context, userID string, exceptSessionID string) (int64, error) {
	return r.revokeWhere(func(t model.RefreshToken) bool {
		if t.UserID != userID {
			return false
		}
		return exceptSessionID == "" || t.SessionID == nil || *t.SessionID != exceptSessionID
	}), nil
}

func (r *refreshTokenRepo) RevokeBySession(_ context.Context, sessionID string) error {
	r.revokeWhere(func(t model.RefreshToken) bool {
		return t.SessionID != nil && *t.SessionID == sessionID
	})
	return nil
}

func (r *refreshTokenRepo) list(match func(model.RefreshToken) bool) []model.RefreshToken {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.RefreshToken{}
	for _, t := range r.s.tokens {
		if match(t) {
			out = append(out, t)
		}
	}
	newestFirst(out, func(t model.RefreshToken) time.Time { return t.CreatedAt })
	return out
}

func (r *refreshTokenRepo) revokeWhere(match func(model.RefreshToken) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.tokens {
		if t.Revoked || !match(t) {
			continue
		}
		t.Revoked = true
		t.UpdatedAt = time.Now()
		r.s.tokens[id] = t
		n++
	}
	return n
}

// ---- device_sessions ----

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, ds *model.DeviceSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}
	r.s.sessions[ds.ID] = *ds
	return nil
}

func (r *sessionRepo) FindByIDForUser(_ context.Context, sessionID, userID string) (*model.DeviceSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ds, ok := r.s.sessions[sessionID]
	if !ok || ds.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &ds, nil
}

func (r *sessionRepo) ListActiveByUser(_ context.Context, userID string) ([]model.DeviceSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.DeviceSession{}
	for _, ds := range r.s.sessions {
		if ds.UserID == userID && ds.IsActive {
			out = append(out, ds)
		}
	}
	newestFirst(out, func(ds model.DeviceSession) time.Time { return ds.LastActivity })
	return out, nil
}

func (r *sessionRepo) Deactivate(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ds, ok := r.s.sessions[sessionID]; ok {
		ds.IsActive = false
		r.s.sessions[sessionID] = ds
	}
	return nil
}

func (r *sessionRepo) DeactivateAllByUser(_ context.Context, userID string, exceptID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, ds := range r.s.sessions {
		if ds.UserID != userID || !ds.IsActive || (exceptID != "" && id == exceptID) {
			continue
		}
		ds.IsActive = false
		r.s.sessions[id] = ds
		n++
	}
	return n, nil
}

// ---- notifications ----

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) CreateBatch(ctx context.Context, ns []model.Notification) error {
	for i := range ns {
		if err := r.Create(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *notificationRepo) List(_ context.Context, f repository.NotificationFilter) ([]model.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.Notification{}
	for _, n := range r.s.notifications {
		if n.RecipientID != f.RecipientID || (f.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	newestFirst(out, func(n model.Notification) time.Time { return n.CreatedAt })
	return paginate(out, f.Page, 20, 100), int64(len(out)), nil
}

func (r *notificationRepo) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var c int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id, recipientID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	n.IsRead, n.ReadAt = true, &at
	r.s.notifications[id] = n
	return nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, recipientID string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var c int64
	for id, n := range r.s.notifications {
		if n.RecipientID != recipientID || n.IsRead {
			continue
		}
		n.IsRead, n.ReadAt = true, &at
		r.s.notifications[id] = n
		c++
	}
	return c, nil
}

func (r *notificationRepo) Delete(_ context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

// ---- activity_logs ----

type activityLogRepo struct{ s *Store }

func (r *activityLogRepo) Create(_ context.Context, log model.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	r.s.logs = append(r.s.logs, log)
	return nil
}

func (r *activityLogRepo) List(_ context.Context, f repository.ActivityLogFilter) ([]model.ActivityLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.ActivityLog{}
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		l := r.s.logs[i]
		if f.UserID != nil && l.UserID != *f.UserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		out = append(out, l)
	}
	return paginate(out, f.Page, 50, 200), nil
}
