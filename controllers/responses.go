package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/equipe-visionarios/imoveis-api/models"
)

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, apiError{Message: message, Code: code})
}

// WriteDomainError maps err to a status code and a client safe message. The
// raw error is only logged.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, apiError{Message: "Dados inválidos", Code: "validation_error", Fields: verr.Fields})
	case errors.Is(err, models.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "Dados inválidos")
	case errors.Is(err, models.ErrEmailTaken):
		WriteError(w, http.StatusBadRequest, "email_taken", "Usuário já registrado")
	case errors.Is(err, models.ErrResetTokenInvalid):
		WriteError(w, http.StatusBadRequest, "reset_token_invalid", "Token inválido ou expirado")
	case errors.Is(err, models.ErrUpstream):
		log.Printf("%s %s: upstream failure: %v", r.Method, r.URL.Path, err)
		WriteError(w, http.StatusBadRequest, "upstream_error", "Não foi possível concluir a operação com um serviço externo")
	case errors.Is(err, models.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "E-mail ou senha inválidos")
	case errors.Is(err, models.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Não autorizado, token ausente ou inválido")
	case errors.Is(err, models.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "Não autorizado")
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Recurso não encontrado")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Erro interno do servidor")
	}
}
