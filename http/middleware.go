package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	contextUserID = "user_id"
	contextRole   = "role"
)

// JWTAuth validates an HS256 bearer token issued by the identity provider and puts
// its "sub" and "role" claims into the echo context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "not authorized"})
			}

			tok, err := jwt.Parse(
				strings.TrimPrefix(auth, "Bearer "),
				func(t *jwt.Token) (interface{}, error) {
					return []byte(secret), nil
				},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			)
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "invalid claims"})
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "invalid claims"})
			}
			role, _ := claims["role"].(string)

			c.Set(contextUserID, sub)
			c.Set(contextRole, role)

			return next(c)
		}
	}
}

func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(contextRole).(string)
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, errorResponse{Message: "not authorized"})
			}

			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(contextUserID).(string)
	return id
}

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps a token bucket per authenticated user.
type UserRateLimiter struct {
	lock      sync.Mutex
	limit     rate.Limit
	burst     int
	users     map[string]*userLimiter
	lastPrune time.Time
}

func NewUserRateLimiter(limit rate.Limit, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limit: limit,
		burst: burst,
		users: map[string]*userLimiter{},
	}
}

func (l *UserRateLimiter) Allow(userID string) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > limiterIdleTTL {
		for id, u := range l.users {
			if now.Sub(u.lastSeen) > limiterIdleTTL {
				delete(l.users, id)
			}
		}
		l.lastPrune = now
	}

	u, ok := l.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = u
	}
	u.lastSeen = now

	return u.limiter.Allow()
}

func (l *UserRateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !l.Allow(userID(c)) {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Message: "too many booking attempts, try again shortly"})
		}

		return next(c)
	}
}
