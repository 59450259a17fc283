package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ProviderKeyHeader carries the caller's own credential for the provider in the path.
const ProviderKeyHeader = "X-Provider-Key"

const sessionKeysKey = "provider_session_keys"

// SessionKeys collects the session credential of the addressed provider. The
// key never leaves the request.
func SessionKeys() gin.HandlerFunc {
	return func(c *gin.Context) {
		keys := map[string]string{}
		if key := strings.TrimSpace(c.GetHeader(ProviderKeyHeader)); key != "" {
			if name := c.Param("name"); name != "" {
				keys[name] = key
			}
		}
		c.Set(sessionKeysKey, keys)
		c.Next()
	}
}

// APIKeys returns the session credentials collected by SessionKeys.
func APIKeys(c *gin.Context) map[string]string {
	if v, ok := c.Get(sessionKeysKey); ok {
		if keys, ok := v.(map[string]string); ok {
			return keys
		}
	}
	return map[string]string{}
}
