package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
	"github.com/garyjia/quickquote/internal/invoice"
)

// ExampleJobDetails is the sample job description offered to new users
const ExampleJobDetails = "Client: John Doe. 5 LED lights at $80 each. 10 hours labor at $95 per hour. $50 for materials."

// InvoiceRenderer lays out invoice documents
type InvoiceRenderer interface {
	Render(companyName string, req entity.InvoiceDocumentRequest) (*invoice.Document, error)
}

// HistoryWriter serialises a generation history
type HistoryWriter interface {
	Export(generations []*entity.Generation, w io.Writer) error
}

// PreviewFunc rasterises the first page of a PDF
type PreviewFunc func(pdf []byte, dpi float64) ([]byte, error)

// GenerateInput is one invoice generation request
type GenerateInput struct {
	Email       string
	CompanyName string
	JobDetails  string
}

// GenerateResult is a completed generation
type GenerateResult struct {
	Generation  *entity.Generation
	Document    *invoice.Document
	CreditsLeft int
}

// GenerationService manages invoice generation and the generation history
type GenerationService interface {
	Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error)
	Get(ctx context.Context, email, id string) (*entity.Generation, error)
	List(ctx context.Context, email string, limit, offset int) ([]*entity.Generation, error)
	Download(ctx context.Context, email, id string) ([]byte, error)
	Preview(ctx context.Context, email, id string) ([]byte, error)
	Export(ctx context.Context, email string, w io.Writer) error
}

// maxExportRows bounds the history export
const maxExportRows = 10000

type generationServiceImpl struct {
	accounts      port.AccountRepository
	generations   port.GenerationRepository
	txManager     port.TransactionManager
	storage       port.FileStorage
	extractor     port.InvoiceExtractor
	renderer      InvoiceRenderer
	history       HistoryWriter
	preview       PreviewFunc
	previewDPI    float64
	signupCredits int
	logger        Logger
}

// GenerationDeps groups the collaborators of a GenerationService
type GenerationDeps struct {
	Accounts    port.AccountRepository
	Generations port.GenerationRepository
	TxManager   port.TransactionManager
	Storage     port.FileStorage
	Extractor   port.InvoiceExtractor
	Renderer    InvoiceRenderer
	History     HistoryWriter
	Preview     PreviewFunc
	PreviewDPI  float64
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(deps GenerationDeps, policy CreditPolicy, logger Logger) GenerationService {
	preview := deps.Preview
	if preview == nil {
		preview = invoice.PreviewPNG
	}
	dpi := deps.PreviewDPI
	if dpi <= 0 {
		dpi = invoice.DefaultPreviewDPI
	}
	return &generationServiceImpl{
		accounts:      deps.Accounts,
		generations:   deps.Generations,
		txManager:     deps.TxManager,
		storage:       deps.Storage,
		extractor:     deps.Extractor,
		renderer:      deps.Renderer,
		history:       deps.History,
		preview:       preview,
		previewDPI:    dpi,
		signupCredits: policy.SignupCredits,
		logger:        logger,
	}
}

func documentPath(id string) string {
	return "invoices/" + id + ".pdf"
}

// Generate extracts, renders and stores one invoice. The credit is debited
// only once a document exists; a failed save refunds it.
func (s *generationServiceImpl) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	account, err := s.accounts.GetOrCreate(ctx, in.Email, s.signupCredits)
	if err != nil {
		s.logger.Error("Failed to load account", "error", err, "email", in.Email)
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !account.CanGenerate() {
		return nil, entity.ErrInsufficientCredits
	}

	company := strings.TrimSpace(in.CompanyName)
	if company == "" {
		company = entity.DefaultCompanyName
	}

	data, err := s.extractor.Extract(ctx, in.JobDetails)
	if err != nil {
		s.logger.Error("Extraction failed", "error", err, "email", in.Email)
		return nil, err
	}

	doc, err := s.renderer.Render(company, *data)
	if err != nil {
		s.logger.Error("Render failed", "error", err, "email", in.Email)
		return nil, fmt.Errorf("%w: %w", entity.ErrRenderFailed, err)
	}
	if doc.Table.Skipped > 0 {
		s.logger.Info("Line items skipped", "email", in.Email, "skipped", doc.Table.Skipped)
	}

	id := uuid.NewString()
	gen := &entity.Generation{
		ID:          id,
		Email:       in.Email,
		CompanyName: company,
		ClientName:  doc.ClientName,
		ItemCount:   len(doc.Table.Rows),
		SkipCount:   doc.Table.Skipped,
		GrandTotal:  doc.Table.GrandTotal,
		StoragePath: documentPath(id),
		Status:      entity.GenerationStatusCompleted,
		CreatedAt:   time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.accounts.Debit(txCtx, in.Email); err != nil {
			return err
		}
		return s.generations.Create(txCtx, gen)
	})
	if err != nil {
		if !errors.Is(err, entity.ErrInsufficientCredits) {
			s.logger.Error("Failed to record generation", "error", err, "email", in.Email)
		}
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}

	if err := s.storage.Save(ctx, gen.StoragePath, doc.PDF); err != nil {
		s.logger.Error("Failed to store invoice, refunding", "error", err, "generation_id", id)
		s.refund(ctx, gen)
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	credits := account.Credits - 1
	if after, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		credits = after.Credits
	}

	s.logger.Info("Invoice generated",
		"generation_id", id,
		"email", in.Email,
		"items", gen.ItemCount,
		"total", gen.GrandTotal,
		"credits_left", credits)

	return &GenerateResult{
		Generation:  gen,
		Document:    doc,
		CreditsLeft: credits,
	}, nil
}

// refund returns the debited credit and marks the generation REFUNDED.
// It detaches from the request context so a cancelled client cannot
// leave the ledger debited.
func (s *generationServiceImpl) refund(ctx context.Context, gen *entity.Generation) {
	ctx = context.WithoutCancel(ctx)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.accounts.AddCredits(txCtx, gen.Email, 1, ""); err != nil {
			return err
		}
		return s.generations.UpdateStatus(txCtx, gen.ID, entity.GenerationStatusRefunded)
	})
	if err != nil {
		s.logger.Error("Refund failed", "error", err, "generation_id", gen.ID, "email", gen.Email)
		return
	}
	gen.Status = entity.GenerationStatusRefunded
}

// Get returns a generation owned by email
func (s *generationServiceImpl) Get(ctx context.Context, email, id string) (*entity.Generation, error) {
	gen, err := s.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.Email != email {
		return nil, entity.ErrGenerationNotFound
	}
	return gen, nil
}

// List returns the caller's generations, newest first
func (s *generationServiceImpl) List(ctx context.Context, email string, limit, offset int) ([]*entity.Generation, error) {
	gens, err := s.generations.ListByEmail(ctx, email, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list generations", "error", err, "email", email)
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return gens, nil
}

// Download returns the stored PDF of a completed generation
func (s *generationServiceImpl) Download(ctx context.Context, email, id string) ([]byte, error) {
	gen, err := s.Get(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if gen.Status != entity.GenerationStatusCompleted {
		return nil, entity.ErrGenerationNotFound
	}

	pdf, err := s.storage.Read(ctx, gen.StoragePath)
	if err != nil {
		s.logger.Error("Stored invoice unreadable", "error", err, "generation_id", id)
		return nil, fmt.Errorf("failed to read invoice: %w", err)
	}
	return pdf, nil
}

// Preview renders page one of a stored invoice as PNG
func (s *generationServiceImpl) Preview(ctx context.Context, email, id string) ([]byte, error) {
	pdf, err := s.Download(ctx, email, id)
	if err != nil {
		return nil, err
	}

	img, err := s.preview(pdf, s.previewDPI)
	if err != nil {
		s.logger.Error("Preview failed", "error", err, "generation_id", id)
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}
	return img, nil
}

// Export writes the caller's generation history as a workbook
func (s *generationServiceImpl) Export(ctx context.Context, email string, w io.Writer) error {
	gens, err := s.List(ctx, email, maxExportRows, 0)
	if err != nil {
		return err
	}
	if err := s.history.Export(gens, w); err != nil {
		s.logger.Error("History export failed", "error", err, "email", email)
		return fmt.Errorf("failed to export history: %w", err)
	}
	return nil
}
