package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/transport"
)

// Handler owns the request-auth middleware. The identity provider has already
// authenticated the caller; we verify its token signature and apply the
// allow-list.
type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(service *Service, base *transport.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, service: service}
}

func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeNotAllowed))
			return
		}

		email, err := h.service.EmailFromToken(token)
		if err != nil {
			h.Logger.Warn("token rejected", "error", err)
			h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeNotAllowed))
			return
		}

		if !h.service.IsAllowedEmail(email) {
			h.Logger.Warn("email not in allow list", "email", email)
			h.WriteAppError(w, internal.ErrNotAllowed)
			return
		}

		ctx := internal.ContextWithActor(r.Context(), h.service.ActorFor(email))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards the admin surface (audit view, global config).
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := internal.ActorFromContext(r.Context())
		if !ok {
			h.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeNotAllowed))
			return
		}
		if actor.Role != internal.RoleAdmin {
			h.WriteAppError(w, internal.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EmailFromToken validates the provider-signed token and extracts the email
// claim.
func (s *Service) EmailFromToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("token has no email claim")
	}
	return email, nil
}
