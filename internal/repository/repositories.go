package repository

// Repositoriesはmain.goでまとめて注入するための入れ物。
// gorm実装とインメモリ実装のどちらもこれを返す。
type Repositories struct {
	Users         UserRepository
	Students      StudentRepository
	Teachers      TeacherRepository
	Parents       ParentRepository
	Admins        AdminRepository
	Registrations RegistrationRepository
	RefreshTokens RefreshTokenRepository
	Sessions      DeviceSessionRepository
	Notifications NotificationRepository
	ActivityLogs  ActivityLogRepository
	Attendance    AttendanceRepository
}
