package server

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicer/internal/pdfgen"
	"go.uber.org/zap"
)

type pdfInfo struct {
	FileName      string     `json:"file_name"`
	InvoiceNumber string     `json:"invoice_number"`
	GeneratedAt   *time.Time `json:"generated_at,omitempty"`
	ViewURL       string     `json:"view_url"`
	DownloadURL   string     `json:"download_url"`
}

func (s *Server) listPdfs(c *gin.Context) {
	names, err := s.pipeline.ListPdfs(c.Request.Context(), c.Query("invoiceNumber"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	base := baseURL(c)
	infos := make([]pdfInfo, 0, len(names))
	for _, name := range names {
		info := pdfInfo{
			FileName:      name,
			InvoiceNumber: pdfgen.ExtractInvoiceNumber(name),
			ViewURL:       fmt.Sprintf("%s/api/pdfs/%s/view", base, url.PathEscape(name)),
			DownloadURL:   fmt.Sprintf("%s/api/pdfs/%s/download", base, url.PathEscape(name)),
		}
		if generatedAt, ok := pdfgen.ExtractGeneratedAt(name); ok {
			info.GeneratedAt = &generatedAt
		}
		infos = append(infos, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"pdfs":  infos,
		"count": len(infos),
	})
}

func (s *Server) viewPdf(c *gin.Context) {
	s.servePdf(c, "inline")
}

func (s *Server) downloadPdf(c *gin.Context) {
	s.servePdf(c, "attachment")
}

func (s *Server) servePdf(c *gin.Context, disposition string) {
	name, err := url.PathUnescape(c.Param("fileName"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	stream, err := s.pipeline.GetPdf(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	c.Data(http.StatusOK, "application/pdf", data)
	s.log.Debug("served pdf", zap.String("blob", name), zap.String("disposition", disposition))
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
