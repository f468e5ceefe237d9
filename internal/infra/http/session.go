package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"terrace/internal/domain"
)

// ErrNotAuthenticated — запрос без валидной сессии.
var ErrNotAuthenticated = errors.New("нет аутентификации")

type ctxKey int

const userIDKey ctxKey = iota

// Sessions подписывает и проверяет токены сессий. Токен несёт uid и срок
// действия; отзыв при выходе хранится в кэше до истечения токена.
type Sessions struct {
	secret []byte
	cache  domain.Cache
	ttl    time.Duration
}

// NewSessions создаёт провайдер сессий.
func NewSessions(secret string, cache domain.Cache, ttl time.Duration) *Sessions {
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), cache: cache, ttl: ttl}
}

// Issue выдаёт подписанный токен для пользователя.
func (s *Sessions) Issue(userID string) string {
	expires := time.Now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s.%d", userID, expires)
	return payload + "." + s.sign(payload)
}

// Verify проверяет подпись, срок действия и отзыв токена.
func (s *Sessions) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrNotAuthenticated
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return "", ErrNotAuthenticated
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expires {
		return "", ErrNotAuthenticated
	}
	if revoked, err := s.cache.Get(s.revokeKey(token)); err == nil && len(revoked) > 0 {
		return "", ErrNotAuthenticated
	}
	return parts[0], nil
}

// Revoke отзывает токен до конца его срока действия.
func (s *Sessions) Revoke(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrNotAuthenticated
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrNotAuthenticated
	}
	ttl := time.Until(time.Unix(expires, 0))
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(s.revokeKey(token), []byte("1"), ttl)
}

func (s *Sessions) sign(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Sessions) revokeKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:revoked:" + hex.EncodeToString(sum[:])
}

// BearerToken извлекает токен из заголовка Authorization либо из query
// (websocket-клиенты браузера не умеют выставлять заголовки).
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// AuthMiddleware проверяет токен сессии и кладёт uid в контекст запроса.
func AuthMiddleware(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, ErrNotAuthenticated)
				return
			}
			userID, err := sessions.Verify(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrNotAuthenticated)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID возвращает uid аутентифицированного пользователя из контекста.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

// ErrorResponse описывает ошибку.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError отправляет JSON с ошибкой.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

// WriteJSON отправляет JSON-ответ.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
