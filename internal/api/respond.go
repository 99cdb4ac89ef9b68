package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reports/engine/internal/fault"
)

func httpStatus(code fault.Code) int {
	switch code {
	case fault.CodeValidation, fault.CodeUnsafeParameter:
		return http.StatusBadRequest
	case fault.CodeNotFound:
		return http.StatusNotFound
	case fault.CodeStateConflict, fault.CodeNotCancellable:
		return http.StatusConflict
	case fault.CodeLookbackExceeded:
		return http.StatusUnprocessableEntity
	case fault.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := fault.CodeOf(err)
	c.JSON(httpStatus(code), gin.H{
		"code":  string(code),
		"error": err.Error(),
	})
}
