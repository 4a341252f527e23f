package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/referrio/core/internal/tenant"
)

const ContextKeyAgencyID = "agency_id"

// Tenant resolves the Host header to an agency id and attaches it to the
// request: as a gin context value, as the propagated x-agency-id request
// header read verbatim downstream, and echoed on the response. Resolution
// never fails a request.
func Tenant(env tenant.Environment) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := tenant.Resolve(c.Request.Host, env)
		c.Set(ContextKeyAgencyID, id)
		c.Request.Header.Set(tenant.HeaderKey, id)
		c.Header(tenant.HeaderKey, id)
		c.Next()
	}
}

// CurrentAgencyID extracts the resolved agency id from context.
func CurrentAgencyID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyAgencyID)
	id, _ := v.(string)
	if id == "" {
		return tenant.Default
	}
	return id
}
