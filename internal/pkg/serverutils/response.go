package serverutils

type BaseResponse[T any] struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type ErrorBody struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Status:  "success",
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) ErrorBody {
	return ErrorBody{
		Status:  "error",
		Code:    code,
		Message: message,
	}
}

func ErrorResponseWithDetail(code int, message, detail string) ErrorBody {
	body := ErrorResponse(code, message)
	body.Detail = detail
	return body
}
