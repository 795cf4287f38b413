package transport

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/anime-shed/notes-ai-go/internal/errors"
)

// userLimiter throttles AI calls per signed-in user. Every remote function
// invocation is billed, so a runaway client is cut off here.
type userLimiter struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
	now         func() time.Time
}

func newUserLimiter(perSecond float64, burst int) *userLimiter {
	return &userLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

func (l *userLimiter) get(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Idle limiters are refilled anyway; drop them hourly.
	now := l.now()
	if now.Sub(l.lastCleanup) > time.Hour {
		l.limiters = make(map[string]*rate.Limiter)
		l.lastCleanup = now
	}

	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	return limiter
}

// middleware rejects with 429 once the user's bucket is empty. A nil
// limiter lets everything through.
func (l *userLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		if !l.get(currentSession(c).UserID).AllowN(l.now(), 1) {
			respondError(c, apperrors.NewRateLimitError("too many AI requests, try again shortly"))
			return
		}
		c.Next()
	}
}
