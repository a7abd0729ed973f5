package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// SlipData carries the fields printed on an outing pass slip.
type SlipData struct {
	PassID      string
	StudentName string
	RegNo       string
	RoomNo      string
	Reason      string
	OutDate     string
	OutTime     string
	Status      string
	QRData      string
	IssuedAt    string
}

// SlipRenderer renders a printable A5 outing pass slip.
type SlipRenderer struct{}

// NewSlipRenderer constructs a slip renderer.
func NewSlipRenderer() *SlipRenderer {
	return &SlipRenderer{}
}

// Render produces the PDF bytes for one pass slip.
func (r *SlipRenderer) Render(slip SlipData) ([]byte, error) {
	if slip.PassID == "" {
		return nil, fmt.Errorf("slip requires a pass id")
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "HOSTEL OUTING PASS", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued %s", slip.IssuedAt), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 14, slip.PassID, "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Student", slip.StudentName},
		{"Reg No", slip.RegNo},
		{"Room", slip.RoomNo},
		{"Outing Date", slip.OutDate},
		{"Out Time", slip.OutTime},
		{"Status", slip.Status},
	}
	pdf.SetFont("Arial", "", 11)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(40, 8, row[0], "B", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, row[1], "B", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Reason / Destination", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, slip.Reason, "1", "", false)
	pdf.Ln(4)

	if slip.QRData != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Credential", "", 1, "", false, 0, "")
		pdf.SetFont("Courier", "", 7)
		pdf.MultiCell(0, 4, slip.QRData, "", "", false)
	}

	pdf.SetY(-28)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(60, 6, "Warden signature", "T", 0, "C", false, 0, "")
	pdf.CellFormat(10, 6, "", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, "Gate stamp", "T", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render slip: %w", err)
	}
	return buf.Bytes(), nil
}
