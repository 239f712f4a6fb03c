package models

// ErrorResponse corps JSON d'une réponse en erreur
type ErrorResponse struct {
	Error     string   `json:"error"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func NewErrorResponse(message, requestID string) ErrorResponse {
	return ErrorResponse{Error: message, RequestID: requestID}
}

// NewValidationErrorResponse conserve la liste complète des erreurs
func NewValidationErrorResponse(errs []string, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     "Données invalides",
		Errors:    errs,
		RequestID: requestID,
	}
}
