package rbac

import "strings"

// 权限常量
const (
	PermissionReadBoard     = "board:read"
	PermissionWriteBoard    = "board:write"
	PermissionReadDashboard = "dashboard:read"
	PermissionShare         = "dashboard:share"

	// 运维类权限
	PermissionReadFailedWrites = "failed_writes:read"
)

// 角色常量，与团队成员角色一致
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
	RoleViewer = "VIEWER"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleViewer: {
		PermissionReadBoard,
		PermissionReadDashboard,
	},
	RoleMember: {
		PermissionReadBoard,
		PermissionWriteBoard,
		PermissionReadDashboard,
		PermissionShare,
	},
	RoleAdmin: {
		PermissionReadBoard,
		PermissionWriteBoard,
		PermissionReadDashboard,
		PermissionShare,
		PermissionReadFailedWrites,
	},
	RoleOwner: {
		PermissionReadBoard,
		PermissionWriteBoard,
		PermissionReadDashboard,
		PermissionShare,
		PermissionReadFailedWrites,
	},
}

// NormalizeRole 未知或缺失的角色按 MEMBER 处理
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	if _, ok := rolePermissions[r]; ok {
		return r
	}
	return RoleMember
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[NormalizeRole(role)] {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       NormalizeRole(role),
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}

// ValidateUserIDInPayload 验证 payload 中的 userId 是否与 token 中的一致，payload 没带时放行
func ValidateUserIDInPayload(tokenUserID, payloadUserID string) error {
	if payloadUserID != "" && payloadUserID != tokenUserID {
		return &UserIDMismatchError{
			TokenUserID:   tokenUserID,
			PayloadUserID: payloadUserID,
		}
	}
	return nil
}

// UserIDMismatchError 表示 userId 不匹配的错误
type UserIDMismatchError struct {
	TokenUserID   string
	PayloadUserID string
}

func (e *UserIDMismatchError) Error() string {
	return "userId in payload does not match token"
}
