package i18n

// Key identifies a translatable message.
type Key string

// Response messages.
const (
	MsgSuccess              Key = "success"
	MsgRegistered           Key = "registered"
	MsgLoggedIn             Key = "logged_in"
	MsgLoggedOut            Key = "logged_out"
	MsgTokenRefreshed       Key = "token_refreshed"
	MsgProfileRetrieved     Key = "profile_retrieved"
	MsgProfileUpdated       Key = "profile_updated"
	MsgPasswordChanged      Key = "password_changed"
	MsgUsersRetrieved       Key = "users_retrieved"
	MsgUserRetrieved        Key = "user_retrieved"
	MsgUserUpdated          Key = "user_updated"
	MsgUserDeleted          Key = "user_deleted"
	MsgUserActivated        Key = "user_activated"
	MsgUserDeactivated      Key = "user_deactivated"
	MsgStaffEnabled         Key = "staff_enabled"
	MsgStaffDisabled        Key = "staff_disabled"
	MsgSuperuserEnabled     Key = "superuser_enabled"
	MsgSuperuserDisabled    Key = "superuser_disabled"
	MsgGroupsRetrieved      Key = "groups_retrieved"
	MsgGroupRetrieved       Key = "group_retrieved"
	MsgGroupCreated         Key = "group_created"
	MsgGroupUpdated         Key = "group_updated"
	MsgGroupDeleted         Key = "group_deleted"
	MsgPermissionsRetrieved Key = "permissions_retrieved"
	MsgStatsRetrieved       Key = "stats_retrieved"
	MsgTodosRetrieved       Key = "todos_retrieved"
	MsgTodoRetrieved        Key = "todo_retrieved"
	MsgTodoCreated          Key = "todo_created"
	MsgTodoUpdated          Key = "todo_updated"
	MsgTodoDeleted          Key = "todo_deleted"
	MsgTodoToggled          Key = "todo_toggled"
)

// Error messages.
const (
	ErrValidationFailed       Key = "validation_failed"
	ErrInvalidPayload         Key = "invalid_payload"
	ErrInvalidCredentials     Key = "invalid_credentials"
	ErrAccountDisabled        Key = "account_disabled"
	ErrAuthenticationRequired Key = "authentication_required"
	ErrInvalidToken           Key = "invalid_token"
	ErrPermissionDenied       Key = "permission_denied"
	ErrNotFound               Key = "not_found"
	ErrUserNotFound           Key = "user_not_found"
	ErrTodoNotFound           Key = "todo_not_found"
	ErrGroupNotFound          Key = "group_not_found"
	ErrInternal               Key = "internal_error"
)

// Field-level messages.
const (
	FieldRequired         Key = "field_required"
	FieldTooShort         Key = "field_too_short"
	FieldTooLong          Key = "field_too_long"
	FieldInvalidEmail     Key = "field_invalid_email"
	FieldInvalid          Key = "field_invalid"
	FieldOneOf            Key = "field_one_of"
	FieldReadOnly         Key = "field_read_only"
	FieldUsernameTaken    Key = "username_taken"
	FieldEmailTaken       Key = "email_taken"
	FieldGroupNameTaken   Key = "group_name_taken"
	FieldPasswordMismatch Key = "password_mismatch"
	FieldOldPasswordWrong Key = "old_password_wrong"
	FieldUnknownPerm      Key = "unknown_permission"
	FieldUnknownGroup     Key = "unknown_group"
)

// Field labels.
const (
	LabelUsername        Key = "label_username"
	LabelEmail           Key = "label_email"
	LabelPassword        Key = "label_password"
	LabelPasswordConfirm Key = "label_password_confirm"
	LabelFirstName       Key = "label_first_name"
	LabelLastName        Key = "label_last_name"
	LabelOldPassword     Key = "label_old_password"
	LabelNewPassword     Key = "label_new_password"
	LabelConfirmPassword Key = "label_confirm_password"
	LabelTitle           Key = "label_title"
	LabelDescription     Key = "label_description"
	LabelCompleted       Key = "label_completed"
	LabelPhone           Key = "label_phone"
	LabelAvatar          Key = "label_avatar"
	LabelName            Key = "label_name"
	LabelPermissions     Key = "label_permissions"
	LabelGroups          Key = "label_groups"
	LabelRefresh         Key = "label_refresh"
	LabelIsActive        Key = "label_is_active"
	LabelIsStaff         Key = "label_is_staff"
	LabelIsSuperuser     Key = "label_is_superuser"
)

var translations = map[Locale]map[Key]string{
	English: {
		MsgSuccess:              "Success",
		MsgRegistered:           "Registration successful",
		MsgLoggedIn:             "Login successful",
		MsgLoggedOut:            "Successfully logged out",
		MsgTokenRefreshed:       "Token refreshed",
		MsgProfileRetrieved:     "Profile retrieved",
		MsgProfileUpdated:       "Profile updated successfully",
		MsgPasswordChanged:      "Password changed successfully",
		MsgUsersRetrieved:       "Users retrieved",
		MsgUserRetrieved:        "User retrieved",
		MsgUserUpdated:          "User updated successfully",
		MsgUserDeleted:          "User deleted successfully",
		MsgUserActivated:        "User activated successfully",
		MsgUserDeactivated:      "User deactivated successfully",
		MsgStaffEnabled:         "User staff status enabled successfully",
		MsgStaffDisabled:        "User staff status disabled successfully",
		MsgSuperuserEnabled:     "User superuser status enabled successfully",
		MsgSuperuserDisabled:    "User superuser status disabled successfully",
		MsgGroupsRetrieved:      "Groups retrieved",
		MsgGroupRetrieved:       "Group retrieved",
		MsgGroupCreated:         "Group created successfully",
		MsgGroupUpdated:         "Group updated successfully",
		MsgGroupDeleted:         "Group deleted successfully",
		MsgPermissionsRetrieved: "Permissions retrieved",
		MsgStatsRetrieved:       "Dashboard statistics retrieved",
		MsgTodosRetrieved:       "Todos retrieved",
		MsgTodoRetrieved:        "Todo retrieved",
		MsgTodoCreated:          "Todo created successfully",
		MsgTodoUpdated:          "Todo updated successfully",
		MsgTodoDeleted:          "Todo deleted successfully",
		MsgTodoToggled:          "Todo status toggled",

		ErrValidationFailed:       "Validation failed",
		ErrInvalidPayload:         "Invalid request payload",
		ErrInvalidCredentials:     "Invalid credentials",
		ErrAccountDisabled:        "User account is disabled",
		ErrAuthenticationRequired: "Authentication credentials were not provided.",
		ErrInvalidToken:           "Invalid token",
		ErrPermissionDenied:       "Permission denied",
		ErrNotFound:               "Not found.",
		ErrUserNotFound:           "User not found",
		ErrTodoNotFound:           "Todo not found",
		ErrGroupNotFound:          "Group not found",
		ErrInternal:               "Internal server error",

		FieldRequired:         "This field is required.",
		FieldTooShort:         "Ensure this field has at least %s characters.",
		FieldTooLong:          "Ensure this field has no more than %s characters.",
		FieldInvalidEmail:     "Enter a valid email address.",
		FieldInvalid:          "Invalid value.",
		FieldOneOf:            "Must be one of: %s.",
		FieldReadOnly:         "This field cannot be changed here.",
		FieldUsernameTaken:    "A user with that username already exists.",
		FieldEmailTaken:       "A user with that email already exists.",
		FieldGroupNameTaken:   "A group with that name already exists.",
		FieldPasswordMismatch: "Passwords don't match.",
		FieldOldPasswordWrong: "Old password is incorrect.",
		FieldUnknownPerm:      "Unknown permission: %s.",
		FieldUnknownGroup:     "Unknown group: %s.",

		LabelUsername:        "Username",
		LabelEmail:           "Email",
		LabelPassword:        "Password",
		LabelPasswordConfirm: "Password confirmation",
		LabelFirstName:       "First name",
		LabelLastName:        "Last name",
		LabelOldPassword:     "Old password",
		LabelNewPassword:     "New password",
		LabelConfirmPassword: "Password confirmation",
		LabelTitle:           "Title",
		LabelDescription:     "Description",
		LabelCompleted:       "Completed",
		LabelPhone:           "Phone",
		LabelAvatar:          "Avatar",
		LabelName:            "Name",
		LabelPermissions:     "Permissions",
		LabelGroups:          "Groups",
		LabelRefresh:         "Refresh token",
		LabelIsActive:        "Active",
		LabelIsStaff:         "Staff status",
		LabelIsSuperuser:     "Superuser status",
	},
	SimplifiedChinese: {
		MsgSuccess:              "成功",
		MsgRegistered:           "注册成功",
		MsgLoggedIn:             "登录成功",
		MsgLoggedOut:            "已成功退出登录",
		MsgTokenRefreshed:       "令牌已刷新",
		MsgProfileRetrieved:     "获取个人资料成功",
		MsgProfileUpdated:       "个人资料更新成功",
		MsgPasswordChanged:      "密码修改成功",
		MsgUsersRetrieved:       "获取用户列表成功",
		MsgUserRetrieved:        "获取用户成功",
		MsgUserUpdated:          "用户更新成功",
		MsgUserDeleted:          "用户删除成功",
		MsgUserActivated:        "用户已激活",
		MsgUserDeactivated:      "用户已停用",
		MsgStaffEnabled:         "已授予用户员工权限",
		MsgStaffDisabled:        "已取消用户员工权限",
		MsgSuperuserEnabled:     "已授予用户超级管理员权限",
		MsgSuperuserDisabled:    "已取消用户超级管理员权限",
		MsgGroupsRetrieved:      "获取用户组列表成功",
		MsgGroupRetrieved:       "获取用户组成功",
		MsgGroupCreated:         "用户组创建成功",
		MsgGroupUpdated:         "用户组更新成功",
		MsgGroupDeleted:         "用户组删除成功",
		MsgPermissionsRetrieved: "获取权限列表成功",
		MsgStatsRetrieved:       "获取仪表盘统计成功",
		MsgTodosRetrieved:       "获取待办事项成功",
		MsgTodoRetrieved:        "获取待办事项成功",
		MsgTodoCreated:          "待办事项创建成功",
		MsgTodoUpdated:          "待办事项更新成功",
		MsgTodoDeleted:          "待办事项删除成功",
		MsgTodoToggled:          "待办事项状态已切换",

		ErrValidationFailed:       "验证失败",
		ErrInvalidPayload:         "请求数据无效",
		ErrInvalidCredentials:     "用户名或密码错误",
		ErrAccountDisabled:        "用户账户已被禁用",
		ErrAuthenticationRequired: "身份认证信息未提供。",
		ErrInvalidToken:           "令牌无效",
		ErrPermissionDenied:       "权限不足",
		ErrNotFound:               "未找到。",
		ErrUserNotFound:           "用户不存在",
		ErrTodoNotFound:           "待办事项不存在",
		ErrGroupNotFound:          "用户组不存在",
		ErrInternal:               "服务器内部错误",

		FieldRequired:         "该字段是必填项。",
		FieldTooShort:         "请确保该字段至少包含 %s 个字符。",
		FieldTooLong:          "请确保该字段不超过 %s 个字符。",
		FieldInvalidEmail:     "请输入有效的邮箱地址。",
		FieldInvalid:          "无效的值。",
		FieldOneOf:            "必须是以下之一：%s。",
		FieldReadOnly:         "该字段不能在此处修改。",
		FieldUsernameTaken:    "该用户名已存在。",
		FieldEmailTaken:       "该邮箱已被注册。",
		FieldGroupNameTaken:   "该用户组名称已存在。",
		FieldPasswordMismatch: "两次输入的密码不一致。",
		FieldOldPasswordWrong: "原密码不正确。",
		FieldUnknownPerm:      "未知权限：%s。",
		FieldUnknownGroup:     "未知用户组：%s。",

		LabelUsername:        "用户名",
		LabelEmail:           "邮箱",
		LabelPassword:        "密码",
		LabelPasswordConfirm: "确认密码",
		LabelFirstName:       "名",
		LabelLastName:        "姓",
		LabelOldPassword:     "原密码",
		LabelNewPassword:     "新密码",
		LabelConfirmPassword: "确认密码",
		LabelTitle:           "标题",
		LabelDescription:     "描述",
		LabelCompleted:       "是否完成",
		LabelPhone:           "电话",
		LabelAvatar:          "头像",
		LabelName:            "名称",
		LabelPermissions:     "权限",
		LabelGroups:          "用户组",
		LabelRefresh:         "刷新令牌",
		LabelIsActive:        "是否激活",
		LabelIsStaff:         "员工状态",
		LabelIsSuperuser:     "超级管理员状态",
	},
}

// fieldLabels maps request field names to their label keys. Fields missing
// here are rendered by FieldLabel's title-case fallback.
var fieldLabels = map[string]Key{
	"username":         LabelUsername,
	"email":            LabelEmail,
	"password":         LabelPassword,
	"password_confirm": LabelPasswordConfirm,
	"first_name":       LabelFirstName,
	"last_name":        LabelLastName,
	"old_password":     LabelOldPassword,
	"new_password":     LabelNewPassword,
	"confirm_password": LabelConfirmPassword,
	"title":            LabelTitle,
	"description":      LabelDescription,
	"completed":        LabelCompleted,
	"phone":            LabelPhone,
	"avatar":           LabelAvatar,
	"name":             LabelName,
	"permissions":      LabelPermissions,
	"groups":           LabelGroups,
	"refresh":          LabelRefresh,
	"is_active":        LabelIsActive,
	"is_staff":         LabelIsStaff,
	"is_superuser":     LabelIsSuperuser,
}
