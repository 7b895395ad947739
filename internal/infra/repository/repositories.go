package repository

import (
	repo "sekolah/internal/repository"

	"gorm.io/gorm"
)

// NewGormRepositoriesは全テーブル分のgorm実装をまとめて作る
func NewGormRepositories(db *gorm.DB) repo.Repositories {
	return repo.Repositories{
		Users:         NewUserGormRepository(db),
		Students:      NewStudentGormRepository(db),
		Teachers:      NewTeacherGormRepository(db),
		Parents:       NewParentGormRepository(db),
		Admins:        NewAdminGormRepository(db),
		Registrations: NewRegistrationGormRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Sessions:      NewDeviceSessionGormRepository(db),
		Notifications: NewNotificationGormRepository(db),
		ActivityLogs:  NewActivityLogGormRepository(db),
		Attendance:    NewAttendanceGormRepository(db),
	}
}
