package xerr

const (
	SERVER_COMMON_ERROR = 100001
	REQUEST_PARAM_ERROR = 100002
	DB_ERROR            = 100004

	// 聚合管道错误分类
	CONFIG_ERROR      = 200001 // 缺少凭证等配置错误，provider 不注册
	TRANSPORT_ERROR   = 200002 // 网络、超时、非 2xx
	VALIDATION_ERROR  = 200003 // 必填字段缺失
	PERSISTENCE_ERROR = 200004 // 约束冲突、事务失败
	UNKNOWN_PROVIDER  = 200005 // normalizer 未知 provider

	ErrInternalServer = 500 // HTTP 500

	ErrBadRequest       = 1000 // HTTP 400
	ErrInvalidInput     = 1001 // HTTP 400
	ErrMissingParameter = 1002 // HTTP 400

	ErrNotFound         = 1300 // HTTP 404
	ErrResourceNotFound = 1301 // HTTP 404
)

var messages = map[int]string{
	SERVER_COMMON_ERROR: "server error",
	REQUEST_PARAM_ERROR: "invalid request parameter",
	DB_ERROR:            "database error",
	CONFIG_ERROR:        "configuration error",
	TRANSPORT_ERROR:     "transport error",
	VALIDATION_ERROR:    "validation error",
	PERSISTENCE_ERROR:   "persistence error",
	UNKNOWN_PROVIDER:    "unknown provider",
	ErrInternalServer:   "internal server error",
	ErrBadRequest:       "bad request",
	ErrInvalidInput:     "invalid input",
	ErrMissingParameter: "missing parameter",
	ErrNotFound:         "not found",
	ErrResourceNotFound: "resource not found",
}

// Message returns the default message for a code.
func Message(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[SERVER_COMMON_ERROR]
}
