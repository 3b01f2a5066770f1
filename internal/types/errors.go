package types

// ErrorBody ist der Kern jeder Fehlerantwort der REST API.
type ErrorBody struct {
	Code    string `json:"code"`              // stabiler, maschinenlesbarer Code (z.B. MODBUS_502)
	Message string `json:"message"`           // Kurzbeschreibung für den Operator
	Details any    `json:"details,omitempty"` // optionaler Kontext: String, Map oder Struct
}

// ErrorResponse umhüllt den Body, damit Fehler im JSON immer unter "error"
// liegen und Clients nicht raten müssen.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
