package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/quickquote/internal/application/service"
	"github.com/garyjia/quickquote/internal/domain/entity"
	"github.com/garyjia/quickquote/internal/invoice"
	"github.com/garyjia/quickquote/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	config   ServerConfig
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, config ServerConfig, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		config:   config,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateInvoiceRequest is the body of POST /api/invoices
type CreateInvoiceRequest struct {
	CompanyName string `json:"company_name"`
	JobDetails  string `json:"job_details"`
}

// InvoiceResponse describes a generated invoice
type InvoiceResponse struct {
	ID          string  `json:"id"`
	Number      int     `json:"number,omitempty"`
	CompanyName string  `json:"company_name"`
	ClientName  string  `json:"client_name"`
	ItemCount   int     `json:"item_count"`
	SkipCount   int     `json:"skip_count"`
	GrandTotal  float64 `json:"grand_total"`
	Total       string  `json:"total"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	PDFURL      string  `json:"pdf_url"`
	PreviewURL  string  `json:"preview_url"`
	CreditsLeft *int    `json:"credits_left,omitempty"`
}

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func toInvoiceResponse(g *entity.Generation) InvoiceResponse {
	return InvoiceResponse{
		ID:          g.ID,
		CompanyName: g.CompanyName,
		ClientName:  g.ClientName,
		ItemCount:   g.ItemCount,
		SkipCount:   g.SkipCount,
		GrandTotal:  g.GrandTotal,
		Total:       invoice.FormatCurrency(g.GrandTotal),
		Status:      g.Status,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
		PDFURL:      "/api/invoices/" + g.ID + "/pdf",
		PreviewURL:  "/api/invoices/" + g.ID + "/preview",
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Me handles GET /api/me
func (h *Handlers) Me(c *gin.Context) {
	session := sessionFrom(c)

	view, err := h.services.Credits.Account(c.Request.Context(), session.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Example handles GET /api/example
func (h *Handlers) Example(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"job_details": service.ExampleJobDetails},
	})
}

// multipartOverhead is the slack allowed above MaxUploadBytes for the
// multipart envelope
const multipartOverhead = 1 << 20

// Transcribe handles POST /api/transcriptions
func (h *Handlers) Transcribe(c *gin.Context) {
	if h.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes+multipartOverhead)
	}
	header, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, entity.ErrAudioTooLarge)
			return
		}
		respondError(c, entity.ErrEmptyAudio)
		return
	}
	if h.config.MaxUploadBytes > 0 && header.Size > h.config.MaxUploadBytes {
		respondError(c, entity.ErrAudioTooLarge)
		return
	}

	f, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "error", err)
		respondError(c, err)
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read upload", "error", err)
		respondError(c, err)
		return
	}

	text, err := h.services.Transcriptions.Transcribe(c.Request.Context(), header.Filename, audio)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"text": text}})
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	session := sessionFrom(c)

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	req.CompanyName = utils.SanitizeString(req.CompanyName)
	if err := utils.ValidateCompanyName(req.CompanyName); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := utils.ValidateJobDetails(req.JobDetails); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	res, err := h.services.Generations.Generate(c.Request.Context(), service.GenerateInput{
		Email:       session.Email,
		CompanyName: req.CompanyName,
		JobDetails:  req.JobDetails,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	body := toInvoiceResponse(res.Generation)
	body.Number = res.Document.Number
	body.CreditsLeft = &res.CreditsLeft

	c.JSON(http.StatusCreated, Response{Success: true, Data: body})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	session := sessionFrom(c)

	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	gens, err := h.services.Generations.List(c.Request.Context(), session.Email, req.Limit, req.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]InvoiceResponse, 0, len(gens))
	for _, g := range gens {
		out = append(out, toInvoiceResponse(g))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"invoices": out,
			"limit":    req.Limit,
			"offset":   req.Offset,
		},
	})
}

// DownloadInvoice handles GET /api/invoices/:id/pdf
func (h *Handlers) DownloadInvoice(c *gin.Context) {
	session := sessionFrom(c)

	pdf, err := h.services.Generations.Download(c.Request.Context(), session.Email, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="Invoice.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// PreviewInvoice handles GET /api/invoices/:id/preview
func (h *Handlers) PreviewInvoice(c *gin.Context) {
	session := sessionFrom(c)

	img, err := h.services.Generations.Preview(c.Request.Context(), session.Email, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", img)
}

// ExportInvoices handles GET /api/invoices/export
func (h *Handlers) ExportInvoices(c *gin.Context) {
	session := sessionFrom(c)

	var buf bytes.Buffer
	if err := h.services.Generations.Export(c.Request.Context(), session.Email, &buf); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// StripeWebhook handles POST /webhooks/stripe
func (h *Handlers) StripeWebhook(c *gin.Context) {
	limit := h.config.MaxWebhookBytes
	if limit <= 0 {
		limit = 64 << 10
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	payload, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unreadable payload"})
		return
	}

	notification, err := h.services.Payments.ParseCheckout(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, err)
		return
	}
	if notification == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"received": true}})
		return
	}

	applied, err := h.services.Credits.ApplyPayment(c.Request.Context(), notification)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"received": true, "credited": applied},
	})
}
