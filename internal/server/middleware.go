package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"LogAnalyzer/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// requireAuth проверяет заголовок Authorization и кладёт пользователя
// в контекст запроса. Без валидного bearer-токена запрос отклоняется.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "authorization required", "")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		user, err := s.current().auth.Validate(token)
		if err != nil {
			s.logger.Debug("Токен отклонён", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token", "")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// requestUser возвращает пользователя, положенного requireAuth.
func requestUser(r *http.Request) models.User {
	user, _ := r.Context().Value(userKey).(models.User)
	return user
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
