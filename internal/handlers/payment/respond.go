package payment

import (
	"encoding/json"
	"net/http"

	"github.com/uzpos/payment-service/internal/domain"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the domain error taxonomy to HTTP. A gateway decline is not
// routed here: it is a business outcome carried in a 200 response body.
func writeError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)

	status := http.StatusInternalServerError
	switch {
	case domain.IsValidationError(err):
		status = http.StatusBadRequest
	case code == domain.ErrorCodeTxnNotFound:
		status = http.StatusNotFound
	case code == domain.ErrorCodeTxnInvalidState:
		status = http.StatusConflict
	case code == domain.ErrorCodeGatewayTimeout, code == domain.ErrorCodeGatewayNetwork:
		status = http.StatusBadGateway
	}

	var body errorBody
	body.Error.Code = string(code)
	if body.Error.Code == "" {
		body.Error.Code = string(domain.ErrorCodeInternalError)
	}
	body.Error.Message = err.Error()

	writeJSON(w, status, body)
}
