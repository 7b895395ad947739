package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sekolah/internal/apperr"
	"sekolah/internal/domain/model"
	repo "sekolah/internal/repository"
	auth "sekolah/internal/usecase/auth_usecase"

	"go.uber.org/zap"
)

const (
	msgParentProfileNotFound  = "Profil orang tua tidak ditemukan"
	msgStudentProfileNotFound = "Profil siswa tidak ditemukan"
	msgLinkRequestNotFound    = "Permintaan tidak ditemukan"
	msgLinkAlreadyResolved    = "Permintaan sudah diproses sebelumnya"
	msgStudentAlreadyLinked   = "Siswa ini sudah terhubung dengan orang tua lain"
)

type RequestLinkOutput struct {
	Message     string `json:"message"`
	StudentName string `json:"studentName"`
}

type PendingLinkRequest struct {
	ParentID     string                   `json:"id"`
	UserID       string                   `json:"userId"`
	FullName     string                   `json:"fullName"`
	Email        string                   `json:"email"`
	Phone        string                   `json:"phone,omitempty"`
	Relationship model.ParentRelationship `json:"relationship"`
	RequestedAt  *time.Time               `json:"requestedAt"`
}

type LinkedStudent struct {
	ID       string `json:"id"`
	NISN     string `json:"nisn"`
	FullName string `json:"fullName"`
	Kelas    string `json:"kelas"`
}

type LinkStatusOutput struct {
	Linked      bool              `json:"linked"`
	Status      *model.LinkStatus `json:"status"`
	RequestedAt *time.Time        `json:"requestedAt"`
	ApprovedAt  *time.Time        `json:"approvedAt"`
	Student     *LinkedStudent    `json:"student"`
}

// 保護者→生徒の連携申請。承認/却下は生徒本人だけ。
type ParentLinkUsecase struct {
	parents  repo.ParentRepository
	students repo.StudentRepository
	notifier *auth.Notifier
	activity *auth.ActivityRecorder
	clock    auth.Clock
	log      *zap.Logger
}

func NewParentLinkUsecase(
	parents repo.ParentRepository,
	students repo.StudentRepository,
	notifier *auth.Notifier,
	activity *auth.ActivityRecorder,
	clock auth.Clock,
	log *zap.Logger,
) *ParentLinkUsecase {
	return &ParentLinkUsecase{
		parents:  parents,
		students: students,
		notifier: notifier,
		activity: activity,
		clock:    clock,
		log:      log,
	}
}

func (u *ParentLinkUsecase) RequestLink(ctx context.Context, parentUserID, nisn string) (*RequestLinkOutput, error) {
	parent, err := u.parents.FindByUserID(ctx, parentUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgParentProfileNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat permintaan tautan", err)
	}
	if linkIs(parent, model.LinkStatusApproved) {
		return nil, apperr.BadRequest("Anda sudah terhubung dengan seorang siswa")
	}

	student, err := u.students.FindByNISN(ctx, nisn)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("Siswa dengan NISN tersebut tidak ditemukan")
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat permintaan tautan", err)
	}
	if !student.IsVerified {
		return nil, apperr.BadRequest("Siswa belum terverifikasi")
	}

	taken, err := u.parents.ExistsApprovedLink(ctx, student.ID)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal membuat permintaan tautan", err)
	}
	if taken {
		return nil, apperr.BadRequest(msgStudentAlreadyLinked)
	}

	if err := u.parents.RequestLink(ctx, parent.ID, student.ID, u.clock.Now()); err != nil {
		// 並行して承認された
		if errors.Is(err, repo.ErrStateChanged) {
			return nil, apperr.BadRequest("Anda sudah terhubung dengan seorang siswa")
		}
		return nil, auth.StoreError(u.log, "Gagal membuat permintaan tautan", err)
	}

	u.notifier.SendQuietly(ctx, student.UserID, auth.Message{
		SenderID: parentUserID,
		Type:     model.NotificationParentLink,
		Title:    "Permintaan Akses Orang Tua",
		Body: fmt.Sprintf("%s (%s) meminta akses sebagai orang tua Anda. Silakan setujui atau tolak permintaan ini.",
			parent.FullName, parent.Relationship),
		Metadata: map[string]any{
			"parentId":     parent.ID,
			"parentUserId": parentUserID,
			"parentName":   parent.FullName,
			"relationship": string(parent.Relationship),
		},
	})
	u.activity.Record(ctx, parentUserID, model.ActivityParentLinkRequest,
		fmt.Sprintf("Requested link to student %s", student.ID), map[string]any{"studentId": student.ID})
	u.log.Info("parent link requested", zap.String("parent_id", parent.ID), zap.String("student_id", student.ID))

	return &RequestLinkOutput{
		Message:     "Permintaan tautan berhasil dikirim. Menunggu persetujuan siswa.",
		StudentName: student.FullName,
	}, nil
}

func (u *ParentLinkUsecase) PendingRequests(ctx context.Context, studentUserID string) ([]PendingLinkRequest, error) {
	student, err := u.studentOf(ctx, studentUserID)
	if err != nil {
		return nil, err
	}

	parents, err := u.parents.ListPendingLinks(ctx, student.ID)
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil permintaan", err)
	}
	out := make([]PendingLinkRequest, 0, len(parents))
	for _, p := range parents {
		req := PendingLinkRequest{
			ParentID:     p.ID,
			UserID:       p.UserID,
			FullName:     p.FullName,
			Phone:        p.Phone,
			Relationship: p.Relationship,
			RequestedAt:  p.LinkRequestedAt,
		}
		if p.User != nil {
			req.Email = p.User.Email
		}
		out = append(out, req)
	}
	return out, nil
}

func (u *ParentLinkUsecase) Approve(ctx context.Context, studentUserID, parentID string) error {
	student, parent, err := u.pendingFor(ctx, studentUserID, parentID)
	if err != nil {
		return err
	}

	taken, err := u.parents.ExistsApprovedLink(ctx, student.ID)
	if err != nil {
		return auth.StoreError(u.log, "Gagal menyetujui permintaan", err)
	}
	if taken {
		return apperr.BadRequest(msgStudentAlreadyLinked)
	}

	if err := u.resolve(ctx, parent.ID, student.ID, model.LinkStatusApproved, "Gagal menyetujui permintaan"); err != nil {
		return err
	}

	u.notifier.SendQuietly(ctx, parent.UserID, auth.Message{
		SenderID: studentUserID,
		Type:     model.NotificationSystem,
		Title:    "Tautan Disetujui",
		Body: fmt.Sprintf("%s telah menyetujui permintaan akses Anda. Anda sekarang dapat melihat informasi anak Anda.",
			student.FullName),
	})
	u.activity.Record(ctx, studentUserID, model.ActivityParentLinkApprove,
		fmt.Sprintf("Approved parent %s", parent.ID), map[string]any{"parentId": parent.ID})
	return nil
}

func (u *ParentLinkUsecase) Reject(ctx context.Context, studentUserID, parentID string) error {
	student, parent, err := u.pendingFor(ctx, studentUserID, parentID)
	if err != nil {
		return err
	}

	if err := u.resolve(ctx, parent.ID, student.ID, model.LinkStatusRejected, "Gagal menolak permintaan"); err != nil {
		return err
	}

	u.notifier.SendQuietly(ctx, parent.UserID, auth.Message{
		SenderID: studentUserID,
		Type:     model.NotificationSystem,
		Title:    "Tautan Ditolak",
		Body:     fmt.Sprintf("%s menolak permintaan akses Anda.", student.FullName),
	})
	u.activity.Record(ctx, studentUserID, model.ActivityParentLinkReject,
		fmt.Sprintf("Rejected parent %s", parent.ID), map[string]any{"parentId": parent.ID})
	return nil
}

func (u *ParentLinkUsecase) Status(ctx context.Context, parentUserID string) (*LinkStatusOutput, error) {
	parent, err := u.parents.FindByUserID(ctx, parentUserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgParentProfileNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil status tautan", err)
	}

	out := &LinkStatusOutput{
		Linked:      linkIs(parent, model.LinkStatusApproved),
		Status:      parent.LinkStatus,
		RequestedAt: parent.LinkRequestedAt,
		ApprovedAt:  parent.LinkApprovedAt,
	}
	if parent.StudentID == nil {
		return out, nil
	}
	st, err := u.students.FindByID(ctx, *parent.StudentID)
	switch {
	case err == nil:
		out.Student = &LinkedStudent{ID: st.ID, NISN: st.NISN, FullName: st.FullName, Kelas: st.Kelas}
	case !errors.Is(err, repo.ErrNotFound):
		return nil, auth.StoreError(u.log, "Gagal mengambil status tautan", err)
	}
	return out, nil
}

func (u *ParentLinkUsecase) studentOf(ctx context.Context, userID string) (*model.Student, error) {
	student, err := u.students.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgStudentProfileNotFound)
	}
	if err != nil {
		return nil, auth.StoreError(u.log, "Gagal mengambil profil siswa", err)
	}
	return student, nil
}

// 他の生徒宛ての申請は存在しないものとして扱う
func (u *ParentLinkUsecase) pendingFor(ctx context.Context, studentUserID, parentID string) (*model.Student, *model.Parent, error) {
	student, err := u.studentOf(ctx, studentUserID)
	if err != nil {
		return nil, nil, err
	}
	parent, err := u.parents.FindByID(ctx, parentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, apperr.NotFound(msgLinkRequestNotFound)
	}
	if err != nil {
		return nil, nil, auth.StoreError(u.log, "Gagal mengambil permintaan", err)
	}
	if parent.StudentID == nil || *parent.StudentID != student.ID {
		return nil, nil, apperr.NotFound(msgLinkRequestNotFound)
	}
	if !linkIs(parent, model.LinkStatusPending) {
		return nil, nil, apperr.BadRequest(msgLinkAlreadyResolved)
	}
	return student, parent, nil
}

func (u *ParentLinkUsecase) resolve(ctx context.Context, parentID, studentID string, to model.LinkStatus, failMsg string) error {
	err := u.parents.ResolveLink(ctx, parentID, studentID, to, u.clock.Now())
	if errors.Is(err, repo.ErrStateChanged) {
		return apperr.BadRequest(msgLinkAlreadyResolved)
	}
	if err != nil {
		return auth.StoreError(u.log, failMsg, err)
	}
	return nil
}

func linkIs(p *model.Parent, status model.LinkStatus) bool {
	return p.StudentID != nil && p.LinkStatus != nil && *p.LinkStatus == status
}
