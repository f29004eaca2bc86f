// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Tokens are HS256 JWTs
// whose subject is the learner id; a verified subject is stored under the
// "userID" Gin context key, which every other middleware and handler reads
// through UserID.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey     = "userID"
	userIDHeader  = "X-User-ID"
	defaultUserID = "demo-user"
)

// Claims are the JWT claims accepted by JWTAuth.
type Claims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scope,omitempty"`
}

// AuthOptions configures JWTAuth.
type AuthOptions struct {
	// Secret is the HMAC key. JWTAuth must not be installed with an empty one.
	Secret string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	// Skip reports requests that need no token (health, metrics, docs).
	Skip func(c *gin.Context) bool
}

// JWTAuth rejects requests without a valid bearer token and records the
// token subject as the request's user id.
func JWTAuth(opts AuthOptions) gin.HandlerFunc {
	key := []byte(opts.Secret)
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (opts.Skip != nil && opts.Skip(c)) {
			c.Next()
			return
		}

		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims := &Claims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil })
		if err != nil || !token.Valid {
			abortAuth(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if strings.TrimSpace(claims.Subject) == "" {
			abortAuth(c, http.StatusUnauthorized, "token has no subject")
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

// UserID returns the learner id for the request: the authenticated subject,
// then the X-User-ID header used in development, then "demo-user".
func UserID(c *gin.Context) string {
	if id, ok := AuthenticatedUserID(c); ok {
		return id
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(userIDHeader)); h != "" {
			return h
		}
	}
	return defaultUserID
}

// AuthenticatedUserID returns the user id set by JWTAuth, if any.
func AuthenticatedUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func bearerToken(h string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func abortAuth(c *gin.Context, status int, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"request_id": RequestIDFrom(c),
		"code":       "unauthorized",
		"error":      msg,
	})
}
