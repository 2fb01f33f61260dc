package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelic starts a New Relic transaction per request and tags it with the
// request id and, once resolved, the caller's agency
func NewRelic(app *newrelic.Application) []gin.HandlerFunc {
	return []gin.HandlerFunc{nrgin.Middleware(app), transactionAttributes}
}

func transactionAttributes(c *gin.Context) {
	c.Next()

	txn := nrgin.Transaction(c)
	if txn == nil {
		return
	}
	txn.AddAttribute("request_id", GetRequestID(c))
	if id := GetIdentity(c); id.AgencyID != nil {
		txn.AddAttribute("agency_id", id.AgencyID.String())
		txn.AddAttribute("role", string(id.Role))
	}
}
