package auth_test

import (
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/auth"
)

const testSecret = "test-secret"

func signToken(secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	Expect(err).NotTo(HaveOccurred())
	return signed
}

var _ = Describe("AuthService", func() {
	var service *auth.Service

	BeforeEach(func() {
		service = auth.NewService(internal.AuthConfig{
			JWTSecret:     testSecret,
			AllowedEmails: "externa@parceiro.com",
			AllowedDomain: "@example.com",
			AdminEmails:   "admin@example.com",
		})
	})

	Describe("EmailFromToken", func() {
		It("should extract the email claim from a valid token", func() {
			token := signToken(testSecret, jwt.MapClaims{"email": "maria@example.com"})
			email, err := service.EmailFromToken(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(email).To(Equal("maria@example.com"))
		})

		It("should reject a token signed with another secret", func() {
			token := signToken("other-secret", jwt.MapClaims{"email": "maria@example.com"})
			_, err := service.EmailFromToken(token)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a token without an email claim", func() {
			token := signToken(testSecret, jwt.MapClaims{"sub": "123"})
			_, err := service.EmailFromToken(token)
			Expect(err).To(HaveOccurred())
		})

		It("should reject garbage", func() {
			_, err := service.EmailFromToken("not-a-token")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("IsAllowedEmail", func() {
		It("should allow emails on the configured domain", func() {
			Expect(service.IsAllowedEmail("maria@example.com")).To(BeTrue())
			Expect(service.IsAllowedEmail("MARIA@EXAMPLE.COM")).To(BeTrue())
		})

		It("should allow explicitly listed emails off the domain", func() {
			Expect(service.IsAllowedEmail("externa@parceiro.com")).To(BeTrue())
		})

		It("should reject everyone else", func() {
			Expect(service.IsAllowedEmail("intruso@outra.com")).To(BeFalse())
			Expect(service.IsAllowedEmail("")).To(BeFalse())
		})
	})

	Describe("ActorFor", func() {
		It("should grant ADMIN to listed admin emails", func() {
			actor := service.ActorFor("Admin@Example.com")
			Expect(actor.Email).To(Equal("admin@example.com"))
			Expect(actor.Role).To(Equal(internal.RoleAdmin))
		})

		It("should default everyone else to USER", func() {
			actor := service.ActorFor("maria@example.com")
			Expect(actor.Role).To(Equal(internal.RoleUser))
		})
	})
})
