package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

// errorResponse — JSON-конверт ошибок API.
type errorResponse struct {
	Error    string            `json:"error"`
	Mensagem string            `json:"mensagem"`
	Detalhes map[string]string `json:"detalhes,omitempty"`
}

// validationErrors — ошибки, которые транслируются в 400 Bad Request.
var validationErrors = []error{
	domain.ErrTabRequired,
	domain.ErrLinesRequired,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidPrice,
	domain.ErrNilLine,
	domain.ErrInvalidStatus,
	domain.ErrInvalidTransition,
	domain.ErrItemUnavailable,
	domain.ErrMenuItemNameRequired,
	domain.ErrMenuItemPriceInvalid,
	domain.ErrMenuItemCategoryInvalid,
	domain.ErrIdempotencyKeyRequired,
}

func isValidationError(err error) bool {
	for _, candidate := range validationErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// statusForError переводит доменную ошибку в HTTP статус.
func statusForError(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsVersionConflict(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusConflict
	case isValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func labelForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "nao_encontrado"
	case http.StatusBadRequest:
		return "requisicao_invalida"
	case http.StatusConflict:
		return "conflito"
	default:
		return "erro_interno"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	mensagem := err.Error()
	if status == http.StatusInternalServerError {
		// Внутренние детали не утекают наружу.
		mensagem = "internal server error"
	}
	writeError(w, status, mensagem, nil)
}

func writeError(w http.ResponseWriter, status int, mensagem string, detalhes map[string]string) {
	writeJSON(w, status, errorResponse{
		Error:    labelForStatus(status),
		Mensagem: mensagem,
		Detalhes: detalhes,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
