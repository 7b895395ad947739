package model

import (
	"time"

	"gorm.io/datatypes"
)

// 操作の種類
type ActivityAction string

const (
	ActivityRegister            ActivityAction = "REGISTER"
	ActivityLogin               ActivityAction = "LOGIN"
	ActivityLogout              ActivityAction = "LOGOUT"
	ActivityChangePassword      ActivityAction = "CHANGE_PASSWORD"
	ActivityRevokeSession       ActivityAction = "REVOKE_SESSION"
	ActivityRevokeAllSessions   ActivityAction = "REVOKE_ALL_SESSIONS"
	ActivityApproveRegistration ActivityAction = "APPROVE_REGISTRATION"
	ActivityRejectRegistration  ActivityAction = "REJECT_REGISTRATION"
	ActivitySuspendUser         ActivityAction = "SUSPEND_USER"
	ActivityReactivateUser      ActivityAction = "REACTIVATE_USER"
	ActivityDeleteUser          ActivityAction = "DELETE_USER"
	ActivityCreateAdmin         ActivityAction = "CREATE_ADMIN"
	ActivityBroadcast           ActivityAction = "BROADCAST"
	ActivityRoleBroadcast       ActivityAction = "ROLE_BROADCAST"
	ActivitySendNotification    ActivityAction = "SEND_NOTIFICATION"
	ActivityUpdateProfile       ActivityAction = "UPDATE_PROFILE"
	ActivityParentLinkRequest   ActivityAction = "PARENT_LINK_REQUEST"
	ActivityParentLinkApprove   ActivityAction = "PARENT_LINK_APPROVE"
	ActivityParentLinkReject    ActivityAction = "PARENT_LINK_REJECT"
	ActivityCheckIn             ActivityAction = "CHECK_IN"
)

// 活動ログ（追記のみ）。
// 「誰が」「何を」したかを残す。管理者操作もここに入る。
type ActivityLog struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"type:uuid;not null;index" json:"userId"`
	Action      ActivityAction `gorm:"type:varchar(50);not null;index" json:"action"`
	Description string         `json:"description"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"createdAt"`
}
