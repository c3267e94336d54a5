package response

// 业务状态码，放在 HTTP 200 响应体内返回
const (
	CodeOK              = 0
	CodeBadRequest      = 400 // 请求参数无效
	CodeUnauthorized    = 401 // 未登录或凭证无效
	CodeNotFound        = 404 // 资源不存在
	CodeTooManyRequests = 429 // 触发频率限制
	CodeInternal        = 500 // 服务端错误
)
