package models

// Response is the JSON envelope returned by every endpoint
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Missing []string    `json:"missing,omitempty"`
	Error   string      `json:"error,omitempty"`
}
