package serverutils

import "docsearch-console/internal/dto"

type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

// ErrorResponse fills both "message" and "detail" so clients of either
// convention can read it.
func ErrorResponse(code int, message string) dto.ErrorResponse {
	return dto.ErrorResponse{
		Success: false,
		Code:    code,
		Message: message,
		Detail:  message,
	}
}
