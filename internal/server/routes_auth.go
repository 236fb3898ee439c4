package server

import (
	"net/http"
	"strings"
)

// handleAuthVerify проверяет токен из заголовка без прохода через
// requireAuth, чтобы отдать клиенту осмысленный результат проверки.
func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeError(w, http.StatusUnauthorized, "authorization required", "")
		return
	}
	token := strings.TrimPrefix(header, "Bearer ")

	user, err := s.current().auth.Validate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  user,
	})
}

// handleAuthUser возвращает пользователя текущего запроса.
func (s *Server) handleAuthUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": requestUser(r)})
}
