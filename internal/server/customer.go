package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicingdomain "github.com/smallbiznis/invoicer/internal/invoicing/domain"
)

func (s *Server) createCustomer(c *gin.Context) {
	var customer invoicingdomain.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.invoicingSvc.CreateCustomer(c.Request.Context(), customer)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) listCustomers(c *gin.Context) {
	customers, err := s.invoicingSvc.ListCustomers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"count":     len(customers),
	})
}

func (s *Server) seedData(c *gin.Context) {
	result, err := s.seeder.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
