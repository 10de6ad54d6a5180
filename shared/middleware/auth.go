package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/tenant"
	"github.com/pavitra93/gym-billing-system/shared/utils"
)

const (
	scopeKey = "tenant_scope"

	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Claims are the gym-scoped claims carried by API tokens
type Claims struct {
	GymID string `json:"gym_id"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ScopeResolver turns the gym claim into a tenant scope. *tenant.Directory satisfies it.
type ScopeResolver interface {
	Resolve(ctx context.Context, gymID uuid.UUID, actor tenant.Actor) (tenant.Scope, error)
}

// Revocations reports denylisted tokens. *utils.RedisCache satisfies it.
type Revocations interface {
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware validates HS256 tokens and binds the caller's gym to the request
type AuthMiddleware struct {
	secret      []byte
	issuer      string
	resolver    ScopeResolver
	revocations Revocations
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(secret, issuer string, resolver ScopeResolver) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), issuer: issuer, resolver: resolver}
}

// WithRevocations enables the token denylist check
func (am *AuthMiddleware) WithRevocations(r Revocations) *AuthMiddleware {
	am.revocations = r
	return am
}

// RequireAuth rejects requests without a valid token and stores the resolved
// tenant scope in the context
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := am.parse(tokenString)
		if err != nil {
			logrus.WithField("client_ip", c.ClientIP()).WithError(err).Debug("token rejected")
			utils.UnauthorizedResponse(c, "Invalid token")
			c.Abort()
			return
		}

		if am.revocations != nil {
			revoked, err := am.revocations.IsTokenRevoked(c.Request.Context(), tokenString)
			if err != nil {
				logrus.WithError(err).Error("token revocation check failed")
				utils.ServiceUnavailableResponse(c, "Unable to verify token")
				c.Abort()
				return
			}
			if revoked {
				utils.UnauthorizedResponse(c, "Token has been revoked")
				c.Abort()
				return
			}
		}

		gymID, err := uuid.Parse(claims.GymID)
		if err != nil {
			utils.UnauthorizedResponse(c, "Token has no valid gym")
			c.Abort()
			return
		}
		scope, err := am.resolver.Resolve(c.Request.Context(), gymID, tenant.Actor{
			UserID: claims.Subject,
			Origin: c.ClientIP(),
		})
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				utils.ForbiddenResponse(c, "Gym not found for this account")
			} else {
				logrus.WithField("gym_id", gymID).WithError(err).Error("failed to resolve gym")
				utils.InternalServerErrorResponse(c, "Failed to resolve gym")
			}
			c.Abort()
			return
		}

		c.Set(scopeKey, scope)
		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole lets only callers holding requiredRole through
func (am *AuthMiddleware) RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.UnauthorizedResponse(c, "User role not found in context")
			c.Abort()
			return
		}
		if role != requiredRole {
			utils.ForbiddenResponse(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return am.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(am.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("token has no expiry")
	}
	return claims, nil
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// ScopeFromContext returns the scope stored by RequireAuth
func ScopeFromContext(c *gin.Context) (tenant.Scope, bool) {
	v, ok := c.Get(scopeKey)
	if !ok {
		return tenant.Scope{}, false
	}
	scope, ok := v.(tenant.Scope)
	return scope, ok && scope.Valid()
}

// IssueToken signs a token for subject acting on gymID
func IssueToken(secret, issuer, subject string, gymID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		GymID: gymID.String(),
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
