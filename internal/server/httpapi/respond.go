package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/manup/agenda/internal/common"
)

const (
	msgInvalidRequest     = "Dados inválidos."
	msgDuplicateEmail     = "Este email já está em uso."
	msgInvalidCredentials = "Email ou senha inválidos."
	msgInvalidResetToken  = "Token inválido ou expirado."
	msgNotification       = "Erro ao enviar e-mail de recuperação."
	msgNotFound           = "Recurso não encontrado."
	msgInvalidTransition  = "Transição de status inválida."
	msgFeatureDisabled    = "Funcionalidade indisponível."
	msgAuthRequired       = "Autenticação necessária."
	msgForbidden          = "Acesso negado."
	msgTooManyRequests    = "Muitas requisições. Tente novamente mais tarde."
	msgInternal           = "Erro interno no servidor."
	msgUnavailable        = "Serviço indisponível."

	msgResetRequested = "Se um usuário com esse e-mail existir, um link de redefinição será enviado."
	msgResetCompleted = "Senha redefinida com sucesso!"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps a service sentinel to its HTTP status and public message.
// Anything unrecognised is an internal error.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, msgInvalidRequest
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, msgDuplicateEmail
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, msgInvalidResetToken
	case errors.Is(err, common.ErrNotification):
		return http.StatusInternalServerError, msgNotification
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrInvalidTransition):
		return http.StatusConflict, msgInvalidTransition
	case errors.Is(err, common.ErrFeatureDisabled):
		return http.StatusNotImplemented, msgFeatureDisabled
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgAuthRequired
	}
	return http.StatusInternalServerError, msgInternal
}

func (rt *Router) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError && !errors.Is(err, common.ErrorInternal) && !errors.Is(err, common.ErrNotification) {
		rt.logger.Error(r.Context(), "unmapped service error", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return common.ErrValidation
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return common.ErrValidation
	}
	return nil
}
