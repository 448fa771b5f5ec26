package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/masterclass/pkg/apperr"
	"github.com/fatflowers/masterclass/pkg/auth"
	"github.com/fatflowers/masterclass/pkg/logctx"
	"github.com/fatflowers/masterclass/pkg/response"
)

// RateLimitedData is returned with a 429 so clients can show a countdown.
type RateLimitedData struct {
	ResetSeconds int64 `json:"resetSeconds"`
}

// writeError maps err onto the envelope and its HTTP status. Server-side
// failures are logged; client errors are not.
func writeError(c *gin.Context, log *zap.SugaredLogger, event string, err error) {
	writeErrorCode(c, log, event, err, apperr.Code(err))
}

func writeErrorCode(c *gin.Context, log *zap.SugaredLogger, event string, err error, code response.APIResponseCode) {
	status := code.HTTPStatus()
	if status >= 500 {
		logctx.FromGin(c, log).Errorw(event, "error", err)
	}
	if rl, ok := apperr.AsRateLimited(err); ok {
		c.Header("Retry-After", strconv.FormatInt(rl.ResetSeconds, 10))
		c.JSON(status, response.ErrorT(code, &RateLimitedData{ResetSeconds: rl.ResetSeconds}))
		return
	}
	if status >= 500 {
		c.JSON(status, response.ErrorT[any](code, nil))
		return
	}
	c.JSON(status, response.ErrorT[any](code, err.Error()))
}

func caller(c *gin.Context) string {
	return auth.Subject(c.Request.Context())
}
