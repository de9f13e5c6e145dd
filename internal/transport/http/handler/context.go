package handler

import (
	"github.com/gin-gonic/gin"

	"docstack/internal/model"
	"docstack/internal/transport/http/middleware"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// getScopeFromContext rebuilds the explicit Scope from token claims.
// Core services only ever see this value; they never read session
// state themselves.
func getScopeFromContext(c *gin.Context) (model.Scope, bool) {
	username, uok := c.Get(middleware.ContextUsernameKey)
	sessionID, sok := c.Get(middleware.ContextSessionIDKey)
	if !uok || !sok {
		return model.Scope{}, false
	}
	owner, ok1 := username.(string)
	session, ok2 := sessionID.(string)
	if !ok1 || !ok2 {
		return model.Scope{}, false
	}
	scope := model.Scope{Owner: owner, Session: session}
	return scope, scope.Valid()
}
