package memory

import (
	"context"
	"sort"
	"time"

	"sekolah/internal/domain/model"
	"sekolah/internal/repository"
)

// ---- attendance_sessions / attendance_records ----

type attendanceRepo struct{ s *Store }

func (r *attendanceRepo) CreateSession(_ context.Context, sess *model.AttendanceSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.attendance[sess.ID]; ok {
		return repository.ErrConflict
	}
	stamp(&sess.CreatedAt, &sess.UpdatedAt)
	row := *sess
	row.Creator = nil
	r.s.attendance[sess.ID] = row
	return nil
}

func (r *attendanceRepo) FindSession(_ context.Context, id string) (*model.AttendanceSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.attendance[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *attendanceRepo) FindOwnedSession(_ context.Context, id, creatorID string) (*model.AttendanceSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.attendance[id]
	if !ok || sess.CreatorID != creatorID {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *attendanceRepo) ListSessionsByCreator(_ context.Context, creatorID string) ([]model.AttendanceSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.AttendanceSession{}
	for _, sess := range r.s.attendance {
		if sess.CreatorID == creatorID {
			out = append(out, sess)
		}
	}
	newestFirst(out, func(s model.AttendanceSession) time.Time { return s.CreatedAt })
	return out, nil
}

func (r *attendanceRepo) CloseSession(_ context.Context, id, creatorID string) error {
	return r.updateOwned(id, creatorID, func(s *model.AttendanceSession) { s.IsActive = false })
}

func (r *attendanceRepo) RotateToken(_ context.Context, id, creatorID, token string, validUntil time.Time) error {
	return r.updateOwned(id, creatorID, func(s *model.AttendanceSession) {
		s.QRToken = token
		s.ValidUntil = validUntil
		s.IsActive = true
	})
}

func (r *attendanceRepo) CreateRecord(_ context.Context, rec *model.AttendanceRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.records {
		if other.ID == rec.ID || (other.SessionID == rec.SessionID && other.UserID == rec.UserID) {
			return repository.ErrConflict
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	row := *rec
	row.Session, row.User = nil, nil
	r.s.records[rec.ID] = row
	return nil
}

func (r *attendanceRepo) ListRecordsBySession(_ context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.AttendanceRecord{}
	for _, rec := range r.s.records {
		if rec.SessionID != sessionID {
			continue
		}
		rec.User, _ = r.s.joinUser(rec.UserID)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckInTime.Before(out[j].CheckInTime) })
	return out, nil
}

func (r *attendanceRepo) ListRecordsByUser(_ context.Context, userID string) ([]model.AttendanceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.AttendanceRecord{}
	for _, rec := range r.s.records {
		if rec.UserID != userID {
			continue
		}
		if sess, ok := r.s.attendance[rec.SessionID]; ok {
			rec.Session = &sess
		}
		out = append(out, rec)
	}
	newestFirst(out, func(rec model.AttendanceRecord) time.Time { return rec.CheckInTime })
	return out, nil
}

func (r *attendanceRepo) updateOwned(id, creatorID string, fn func(*model.AttendanceSession)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.attendance[id]
	if !ok || sess.CreatorID != creatorID {
		return repository.ErrNotFound
	}
	fn(&sess)
	sess.UpdatedAt = time.Now()
	r.s.attendance[id] = sess
	return nil
}
