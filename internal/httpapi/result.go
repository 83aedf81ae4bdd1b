package httpapi

// 响应信封的 code/type 取值
const (
	CodeOK     = 2000
	CodeFailed = -1

	KindSuccess = "success"
	KindError   = "error"
)

// Envelope 所有 JSON 接口的统一响应
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

// Success 成功响应
func Success[T any](result T) Envelope[T] {
	return Envelope[T]{Code: CodeOK, Type: KindSuccess, Message: "ok", Result: result}
}

// Failure 失败响应，result 为 null
func Failure(message string) Envelope[any] {
	return Envelope[any]{Code: CodeFailed, Type: KindError, Message: message}
}
