package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Headcount(ctx context.Context) (Headcount, error) {
	return s.Store.Headcount(ctx)
}

// RosterPDF renders the full employee roster, active and inactive, as a PDF.
func (s *Service) RosterPDF(ctx context.Context) ([]byte, error) {
	hc, err := s.Store.Headcount(ctx)
	if err != nil {
		return nil, err
	}
	roster, err := s.Store.Roster(ctx)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Employee Roster")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Active: %d   Inactive: %d   Staff: %d", hc.Active, hc.Inactive, hc.Staff))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 7, "Name", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Phone", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 7, "Role", "1", 0, "", false, 0, "")
	pdf.CellFormat(28, 7, "Joined", "1", 0, "", false, 0, "")
	pdf.CellFormat(22, 7, "Status", "1", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range roster {
		status := "active"
		if !row.IsActive {
			status = "inactive"
		}
		pdf.CellFormat(55, 7, row.FirstName+" "+row.RestOfName, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, row.Phone, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, row.Role, "1", 0, "", false, 0, "")
		pdf.CellFormat(28, 7, row.DateJoined.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(22, 7, status, "1", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
