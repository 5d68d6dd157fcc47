package httpapi

import (
	"net/http"
	"time"
)

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	account, err := rt.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{AccountID: account.ID})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	res, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresIn: int64(res.ExpiresIn / time.Second),
		Account:   toAccount(res.Account),
	})
}

// handleResetRequest answers identically whether or not the email belongs
// to an account.
func (rt *Router) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	if err := rt.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgResetRequested})
}

func (rt *Router) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	var req resetCompleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	if err := rt.auth.CompletePasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgResetCompleted})
}

func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	account, err := rt.auth.Profile(r.Context(), accountIDFromContext(r.Context()))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(account))
}
