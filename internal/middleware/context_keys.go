package middleware

import "github.com/gin-gonic/gin"

// terminalIDKey is the key used to store the authenticated terminal's ID in
// the Gin context. Using a custom type prevents collisions.
const terminalIDKey = contextKey("terminalID")

// GetTerminalIDFromContext retrieves the authenticated terminal ID from the
// Gin context. It returns the terminal ID and a boolean indicating if it was
// found.
func GetTerminalIDFromContext(c *gin.Context) (string, bool) {
	terminalIDVal, exists := c.Get(string(terminalIDKey))
	if !exists {
		// check the request context as well
		ctxVal := c.Request.Context().Value(terminalIDKey)
		if ctxVal != nil {
			return ctxVal.(string), true
		}
		return "", false
	}

	terminalID, ok := terminalIDVal.(string)
	if !ok {
		// This should not happen if the auth middleware sets it correctly
		return "", false
	}

	return terminalID, true
}
