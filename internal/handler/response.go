package handler

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Reasons []string    `json:"reasons,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewValidationResponse carries every reason a request was rejected.
func NewValidationResponse(message string, reasons []string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
		Reasons: reasons,
	}
}
