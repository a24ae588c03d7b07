package models

// APIResponse is the envelope every flowgate endpoint replies with.
// Success tells the caller which of Data or Error is meaningful.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse pairs a machine-readable error code with a human-readable
// message and the HTTP status it was served with.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
