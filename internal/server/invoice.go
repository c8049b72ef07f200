package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	invoicingdomain "github.com/smallbiznis/invoicer/internal/invoicing/domain"
)

func (s *Server) createInvoice(c *gin.Context) {
	var invoice invoicingdomain.Invoice
	if err := c.ShouldBindJSON(&invoice); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.invoicingSvc.CreateInvoice(c.Request.Context(), invoice)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) listInvoices(c *gin.Context) {
	invoices, err := s.invoicingSvc.ListInvoices(c.Request.Context(), c.Query("customer"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// getInvoice uses the point lookup when the customer query parameter is
// present and falls back to the slower by-number scan otherwise.
func (s *Server) getInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	invoiceNumber := c.Param("invoiceNumber")

	var invoice invoicingdomain.Invoice
	var err error
	if customer := c.Query("customer"); customer != "" {
		invoice, err = s.invoicingSvc.GetInvoice(ctx, customer, invoiceNumber)
	} else {
		invoice, err = s.invoicingSvc.GetInvoiceByNumber(ctx, invoiceNumber)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (s *Server) updateInvoice(c *gin.Context) {
	var invoice invoicingdomain.Invoice
	if err := c.ShouldBindJSON(&invoice); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	invoice.InvoiceNumber = c.Param("invoiceNumber")
	if invoice.CustomerKey == "" {
		invoice.CustomerKey = invoice.CustomerName
	}

	updated, err := s.invoicingSvc.UpdateInvoice(c.Request.Context(), invoice)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	invoiceNumber := c.Param("invoiceNumber")

	customer := c.Query("customer")
	if customer == "" {
		invoice, err := s.invoicingSvc.GetInvoiceByNumber(ctx, invoiceNumber)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		customer = invoice.CustomerKey
	}

	if err := s.invoicingSvc.DeleteInvoice(ctx, customer, invoiceNumber); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listInvoiceItems(c *gin.Context) {
	items, err := s.invoicingSvc.ListInvoiceItems(c.Request.Context(), c.Param("invoiceNumber"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) addInvoiceItem(c *gin.Context) {
	var item invoicingdomain.InvoiceItem
	if err := c.ShouldBindJSON(&item); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	created, err := s.invoicingSvc.AddInvoiceItem(c.Request.Context(), c.Param("invoiceNumber"), item)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteInvoiceItem(c *gin.Context) {
	err := s.invoicingSvc.DeleteInvoiceItem(c.Request.Context(), c.Param("invoiceNumber"), c.Param("itemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// enqueueRender dispatches a render request. With a customer query
// parameter the request is enqueued directly; without one the invoice is
// resolved by number first and a miss is a 404, not a fault.
func (s *Server) enqueueRender(c *gin.Context) {
	ctx := c.Request.Context()
	invoiceNumber := c.Param("invoiceNumber")

	if customer := c.Query("customer"); customer != "" {
		if err := s.invoicingSvc.EnqueueRender(ctx, customer, invoiceNumber); err != nil {
			AbortWithError(c, err)
			return
		}
	} else {
		ok, err := s.invoicingSvc.EnqueueRenderByNumber(ctx, invoiceNumber)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !ok {
			AbortWithError(c, invoicingdomain.ErrInvoiceNotFound)
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{
		"invoice_number": invoiceNumber,
		"status":         "queued",
	})
}
