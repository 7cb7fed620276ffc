package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	resp "github.com/Divyaanshvats/intern-management-system/internal/transport/http/response"
)

const keyIdentity = "identity"

// AuthJWT authenticates the bearer credential and, when roles are given,
// requires one of them.
func AuthJWT(g *auth.Gate, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.Authenticate(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(resp.CodeUnauthorized, resp.FromError(err))
			return
		}
		if len(roles) > 0 {
			if _, err := auth.RequireRole(id, roles...); err != nil {
				c.AbortWithStatusJSON(resp.CodeForbidden, resp.FromError(err))
				return
			}
		}
		c.Set(keyIdentity, id)
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(keyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
