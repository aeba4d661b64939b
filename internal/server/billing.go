package server

import (
	"net/http"

	rentbillingdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/domain"
	"github.com/gin-gonic/gin"
)

// generateRentRequest takes a zero-based month (0 = January).
type generateRentRequest struct {
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

// GenerateRent creates the rent payments for one billing period. Re-running
// the same period reports the payments in "existing".
func (s *Server) GenerateRent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req generateRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Month == nil {
		AbortWithError(c, newValidationError("month", "required", "month is required"))
		return
	}
	if req.Year == nil {
		AbortWithError(c, newValidationError("year", "required", "year is required"))
		return
	}

	result, err := s.billingSvc.GenerateForPeriod(c.Request.Context(), rentbillingdomain.GenerateRequest{
		Month: *req.Month,
		Year:  *req.Year,
		Actor: actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
