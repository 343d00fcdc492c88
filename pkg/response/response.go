// Package response defines the JSON envelope shared by middleware that has
// to answer requests before a handler runs.
package response

// Envelope is the wire shape of a non-handler response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorData `json:"error,omitempty"`
}

// ErrorData carries a machine-readable code alongside the message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success builds a success envelope around data.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Error builds an error envelope with a code and message.
func Error(code, message string) Envelope {
	return Envelope{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message},
	}
}

// ErrorWithDetails builds an error envelope carrying extra detail text.
func ErrorWithDetails(code, message, details string) Envelope {
	return Envelope{
		Success: false,
		Error:   &ErrorData{Code: code, Message: message, Details: details},
	}
}
