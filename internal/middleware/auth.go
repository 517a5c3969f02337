package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog/log"
)

const identityCacheTTL = 5 * time.Minute

// IdentityResolver maps a bearer token to an authenticated GitHub login.
type IdentityResolver interface {
	ResolveLogin(ctx context.Context, token string) (string, error)
}

// GithubIdentityResolver resolves tokens against the GitHub users endpoint.
// Resolved logins are cached briefly so the gate does not add an API call to
// every request.
type GithubIdentityResolver struct {
	mu    sync.Mutex
	cache map[string]cachedIdentity
}

type cachedIdentity struct {
	login      string
	resolvedAt time.Time
}

// NewGithubIdentityResolver creates a GithubIdentityResolver.
func NewGithubIdentityResolver() *GithubIdentityResolver {
	return &GithubIdentityResolver{cache: make(map[string]cachedIdentity)}
}

// ResolveLogin returns the login owning token.
func (r *GithubIdentityResolver) ResolveLogin(ctx context.Context, token string) (string, error) {
	r.mu.Lock()
	if c, ok := r.cache[token]; ok && time.Since(c.resolvedAt) < identityCacheTTL {
		r.mu.Unlock()
		return c.login, nil
	}
	r.mu.Unlock()

	client := github.NewClient(nil).WithAuthToken(token)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}

	login := user.GetLogin()
	r.mu.Lock()
	r.cache[token] = cachedIdentity{login: login, resolvedAt: time.Now()}
	r.mu.Unlock()
	return login, nil
}

// RequireEditor rejects any request whose token does not resolve to a login
// on the allow-list. The gate fails closed: missing or unverifiable identity
// is treated as unauthenticated.
func RequireEditor(resolver IdentityResolver, allowedUsers []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedUsers))
	for _, u := range allowedUsers {
		allowed[u] = true
	}

	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		login, err := resolver.ResolveLogin(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to resolve caller identity")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !allowed[login] {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set("login", login)
		c.Next()
	}
}

func bearerToken(header string) string {
	for _, prefix := range []string{"Bearer ", "token "} {
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	return ""
}
