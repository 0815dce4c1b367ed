// Package auth derives the caller identity from the external identity
// provider's token and decides membership and role from configured lists.
package auth

import (
	"strings"

	"github.com/frahmantamala/benefits-portal/internal"
)

type Service struct {
	jwtSecret     []byte
	allowedEmails []string
	allowedDomain string
	adminEmails   []string
}

func NewService(cfg internal.AuthConfig) *Service {
	domain := strings.ToLower(strings.TrimSpace(cfg.AllowedDomain))
	domain = strings.TrimPrefix(domain, "@")

	return &Service{
		jwtSecret:     []byte(cfg.JWTSecret),
		allowedEmails: internal.SplitEmails(cfg.AllowedEmails),
		allowedDomain: domain,
		adminEmails:   internal.SplitEmails(cfg.AdminEmails),
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) IsAllowedEmail(email string) bool {
	normalized := normalize(email)
	if normalized == "" {
		return false
	}

	for _, allowed := range s.allowedEmails {
		if allowed == normalized {
			return true
		}
	}

	if s.allowedDomain != "" {
		return strings.HasSuffix(normalized, "@"+s.allowedDomain)
	}

	return false
}

func (s *Service) IsAdminEmail(email string) bool {
	normalized := normalize(email)
	if normalized == "" || len(s.adminEmails) == 0 {
		return false
	}
	for _, admin := range s.adminEmails {
		if admin == normalized {
			return true
		}
	}
	return false
}

func (s *Service) ActorFor(email string) internal.Actor {
	role := internal.RoleUser
	if s.IsAdminEmail(email) {
		role = internal.RoleAdmin
	}
	return internal.Actor{Email: normalize(email), Role: role}
}
