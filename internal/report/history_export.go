package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

// HistorySheet is the worksheet name of the history workbook
const HistorySheet = "Invoices"

var historyHeader = []interface{}{
	"Generated At", "Invoice ID", "Company", "Client", "Items", "Skipped", "Total", "Status",
}

// HistoryExporter writes a user's generation history as an XLSX workbook
type HistoryExporter struct {
	logger *zap.Logger
}

// NewHistoryExporter creates a new history exporter
func NewHistoryExporter(logger *zap.Logger) *HistoryExporter {
	return &HistoryExporter{logger: logger}
}

// Export writes one row per generation, newest first as given, to w
func (e *HistoryExporter) Export(generations []*entity.Generation, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E3A8A"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyFmt := "$#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("failed to create currency style: %w", err)
	}

	if err := f.SetSheetRow(HistorySheet, "A1", &historyHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(HistorySheet, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, g := range generations {
		if g == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			g.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			g.ID,
			g.CompanyName,
			g.ClientName,
			g.ItemCount,
			g.SkipCount,
			g.GrandTotal,
			g.Status,
		}
		if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if len(generations) > 0 {
		last := fmt.Sprintf("G%d", len(generations)+1)
		if err := f.SetCellStyle(HistorySheet, "G2", last, moneyStyle); err != nil {
			e.logger.Warn("Failed to apply currency format", zap.Error(err))
		}
	}

	e.setWidth(f, "A", "A", 20)
	e.setWidth(f, "B", "B", 38)
	e.setWidth(f, "C", "D", 24)
	e.setWidth(f, "G", "G", 14)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("History exported", zap.Int("rows", len(generations)))
	return nil
}

func (e *HistoryExporter) setWidth(f *excelize.File, start, end string, width float64) {
	if err := f.SetColWidth(HistorySheet, start, end, width); err != nil {
		e.logger.Warn("Failed to set column width",
			zap.String("columns", start+":"+end),
			zap.Error(err))
	}
}
