// Пакет auth проверяет bearer-токены входящих запросов.
// При заданном секрете токен проверяется как HMAC-подписанный JWT;
// при пустом секрете claims извлекаются без проверки подписи
// (режим разработки, когда токены выпускает внешний провайдер).
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"LogAnalyzer/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Service разбирает и проверяет токены.
type Service struct {
	secret []byte
}

func New(secret string) *Service {
	s := &Service{}
	if secret != "" {
		s.secret = []byte(secret)
	}
	return s
}

// Validate возвращает пользователя из токена или ошибку.
func (s *Service) Validate(token string) (models.User, error) {
	var claims jwt.MapClaims

	if s.secret != nil {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !parsed.Valid {
			return models.User{}, ErrInvalidToken
		}
		claims, _ = parsed.Claims.(jwt.MapClaims)
	} else {
		parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
		if err != nil {
			return models.User{}, ErrInvalidToken
		}
		claims, _ = parsed.Claims.(jwt.MapClaims)
	}
	if claims == nil {
		return models.User{}, ErrInvalidToken
	}

	user := models.User{
		ID:       claimString(claims, "sub"),
		Email:    claimString(claims, "email"),
		Role:     claimString(claims, "role"),
		Provider: "jwt",
	}
	if user.ID == "" {
		user.ID = claimString(claims, "user_id")
	}
	if user.ID == "" {
		return models.User{}, fmt.Errorf("invalid token payload")
	}
	if user.Role == "" {
		user.Role = "user"
	}
	return user, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
