package ledgergo

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// renderStatement writes a PDF statement: account header followed by the
// operation history, most recent first.
func renderStatement(w io.Writer, acct *Account, ops []Operation) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Statement %v", acct.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(190, 8, "Account Statement", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Account: %v (%s)", acct.ID, acct.Kind), "", 1, "L", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Balance: %s", acct.Balance), "", 1, "L", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Opened: %s by %s", acct.CreatedAt.Format("2006-01-02"), acct.CreatedBy), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(35, 6, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(18, 6, "Type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(72, 6, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "By", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, op := range ops {
		pdf.CellFormat(35, 6, op.Timestamp.Format("2006-01-02 15:04:05"), "", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, string(op.Type), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, op.Amount.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(72, 6, op.Description, "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, op.PerformedBy, "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
