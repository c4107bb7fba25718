// Package middlewarectx содержит HTTP middleware сервиса выдачи.
//
// TokenMiddleware достаёт токен сессии из заголовка Authorization и
// кладёт его в контекст; сама проверка токена выполняется сервисами,
// чтобы просроченная сессия гарантированно не имела побочных эффектов.
// AdminMiddleware дополнительно проверяет сессию и требует права
// администратора.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/veilnet/confighub/internal/http/response"
	"github.com/veilnet/confighub/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Token — ключ для токена сессии в контексте
	Token Key = "session_token"
	// User — ключ для идентификатора пользователя в контексте
	User Key = "user_id"
	// IsAdmin — ключ для признака администратора в контексте
	IsAdmin Key = "is_admin"
)

// TokenMiddleware возвращает HTTP middleware, который требует заголовок
// Authorization с Bearer-токеном и кладёт токен в контекст запроса.
func TokenMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.TokenMiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthenticated, "missing or invalid authorization header"))
				return
			}
			tok := strings.TrimPrefix(authHeader, "Bearer ")

			ctx := context.WithValue(r.Context(), Token, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware возвращает HTTP middleware, который проверяет сессию из
// контекста и пропускает только администратора. Должен стоять после
// TokenMiddleware.
func AdminMiddleware(sessions Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tok, ok := r.Context().Value(Token).(string)
			if !ok || tok == "" {
				log.Error("session token not found in context")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthenticated, "unauthorized"))
				return
			}

			sess, err := sessions.Validate(r.Context(), tok)
			if err != nil {
				log.Error("invalid or expired session", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(response.CodeUnauthenticated, "invalid or expired session"))
				return
			}
			if !sess.IsAdmin {
				log.Error("admin rights required", slog.String("user_id", sess.UserID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(response.CodeUnauthenticated, "admin rights required"))
				return
			}

			ctx := context.WithValue(r.Context(), User, sess.UserID)
			ctx = context.WithValue(ctx, IsAdmin, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
