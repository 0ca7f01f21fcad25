package middlewares

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/FaithCommunity/services"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const RequestIDHeader = "X-Request-ID"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RequestID reuses the caller's X-Request-ID or mints a ULID, echoes it back and
// stores it on both the gin context and the request context.
func RequestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if id == "" || len(id) > 64 {
		id = newRequestID()
	}

	c.Set("requestId", id)
	c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
	c.Header(RequestIDHeader, id)

	c.Next()
}
