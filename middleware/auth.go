package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/equipe-visionarios/imoveis-api/controllers"
	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/equipe-visionarios/imoveis-api/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

var errNoToken = errors.New("missing Authorization header")

// identityFromRequest decodes the bearer token of r.
func identityFromRequest(v TokenValidator, r *http.Request) (models.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.Identity{}, errNoToken
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.Identity{}, errors.New("invalid Authorization header format")
	}

	claims, err := v.ValidateJWT(parts[1])
	if err != nil {
		return models.Identity{}, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Identity{}, errors.New("invalid subject in token")
	}
	return models.Identity{UserID: userID, Role: claims.Role}, nil
}

// Auth rejects requests without a valid bearer token.
func Auth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identityFromRequest(v, r)
			if err != nil {
				log.Printf("Unauthorized request %s %s: %v", r.Method, r.URL.Path, err)
				controllers.WriteDomainError(w, r, models.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(controllers.WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the caller when a valid token is present. Anonymous
// requests and requests with a bad token are served without an identity.
func OptionalAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identityFromRequest(v, r)
			switch {
			case errors.Is(err, errNoToken):
				next.ServeHTTP(w, r)
			case err != nil:
				log.Printf("Ignoring bad token on %s %s: %v", r.Method, r.URL.Path, err)
				next.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r.WithContext(controllers.WithIdentity(r.Context(), id)))
			}
		})
	}
}

// AdminOnly must run after Auth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := controllers.IdentityFrom(r.Context())
		if !ok {
			controllers.WriteDomainError(w, r, models.ErrUnauthorized)
			return
		}
		if !id.IsAdmin() {
			log.Printf("Non admin %s denied %s %s", id.UserID.Hex(), r.Method, r.URL.Path)
			controllers.WriteDomainError(w, r, models.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
