package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gilcleber/Controle-Premios-sub000/internal/deadline"
	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding exported outputs.
const SheetName = "Saídas"

// Derived pickup status labels.
const (
	StatusDelivered = "Entregue"
	StatusWaiting   = "Aguardando"
	StatusExpired   = "Expirado"
)

const dateLayout = "02/01/2006"

var header = []any{"Data", "Prêmio", "Quantidade", "Ganhador", "Telefone", "Documento", "Programa", "Tipo", "Prazo de retirada", "Status", "Entregue em", "Observação"}

// StatusLabel derives the human status of an output at now.
func StatusLabel(o models.Output, now time.Time) string {
	switch {
	case !o.IsPending():
		return StatusDelivered
	case deadline.IsLate(true, o.PickupDeadline, now):
		return StatusExpired
	default:
		return StatusWaiting
	}
}

// OutputsWorkbook renders outputs as an XLSX document, one row per output.
func OutputsWorkbook(outputs []models.Output, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if errRename := f.SetSheetName("Sheet1", SheetName); errRename != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", errRename)
	}
	if errHeader := f.SetSheetRow(SheetName, "A1", &header); errHeader != nil {
		return nil, fmt.Errorf("export: write header: %w", errHeader)
	}
	bold, errStyle := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if errStyle != nil {
		return nil, fmt.Errorf("export: header style: %w", errStyle)
	}
	lastCol, errCell := excelize.CoordinatesToCellName(len(header), 1)
	if errCell != nil {
		return nil, errCell
	}
	if errApply := f.SetCellStyle(SheetName, "A1", lastCol, bold); errApply != nil {
		return nil, fmt.Errorf("export: apply header style: %w", errApply)
	}

	for i, o := range outputs {
		delivered := ""
		if o.DeliveredDate != nil {
			delivered = o.DeliveredDate.Format(dateLayout)
		}
		row := []any{
			o.Date.Format(dateLayout),
			o.PrizeName,
			o.Quantity,
			o.WinnerName,
			o.WinnerPhone,
			o.WinnerDoc,
			o.ProgramName,
			o.Type,
			o.PickupDeadline.Format(dateLayout),
			StatusLabel(o, now),
			delivered,
			o.Note,
		}
		cell, errCell := excelize.CoordinatesToCellName(1, i+2)
		if errCell != nil {
			return nil, errCell
		}
		if errRow := f.SetSheetRow(SheetName, cell, &row); errRow != nil {
			return nil, fmt.Errorf("export: write row %d: %w", i+2, errRow)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "L", 18)

	var buf bytes.Buffer
	if _, errWrite := f.WriteTo(&buf); errWrite != nil {
		return nil, fmt.Errorf("export: write workbook: %w", errWrite)
	}
	return buf.Bytes(), nil
}
