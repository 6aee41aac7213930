package handlers

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/workorder"
	"p9e.in/workorders/repository"
)

const exportSheet = "Radni nalozi"

// exportPageSize is the largest page the repository serves.
const exportPageSize = 500

var exportColumns = []struct {
	Label string
	Width float64
}{
	{"Broj naloga", 18},
	{"Datum", 12},
	{"Tehničar", 22},
	{"Naručitelj", 28},
	{"OIB naručitelja", 16},
	{"Korisnik", 28},
	{"Dolazak", 10},
	{"Završetak", 10},
	{"Sati", 8},
	{"Teren", 8},
	{"Udaljenost (km)", 16},
	{"Potpisano", 10},
}

// ExportWorkOrders streams the filtered work order list as an XLSX file.
func (h *Handler) ExportWorkOrders(w http.ResponseWriter, r *http.Request) {
	f, err := workOrderFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor := session(r).Actor()

	var rows []models.WorkOrderRecord
	f.Page = repository.Page{Limit: exportPageSize}
	for {
		page, total, err := h.workOrders.List(r.Context(), actor, f)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		rows = append(rows, page...)
		if len(page) < exportPageSize || int64(len(rows)) >= total {
			break
		}
		f.Offset += exportPageSize
	}

	file, err := buildWorkOrderSheet(rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("Radni_nalozi_%s.xlsx", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := file.Write(w); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write xlsx", "error", err)
	}
}

func buildWorkOrderSheet(rows []models.WorkOrderRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(exportSheet, cell, col.Label)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
		f.SetColWidth(exportSheet, name, name, col.Width)
	}

	for i := range rows {
		rec := &rows[i]
		wo := workorder.Hydrate(rec)
		employee := ""
		if rec.Employee != nil {
			employee = rec.Employee.FullName()
		}
		customer := ""
		if wo.OrderForCustomer {
			customer = wo.Customer.CompanyName
		}
		var distance any
		if wo.FieldTrip && rec.Distance != nil {
			distance = *rec.Distance
		}
		values := []any{
			rec.OrderNumber,
			rec.Date,
			employee,
			rec.ClientCompanyName,
			rec.ClientOIB,
			customer,
			wo.ArrivalTime,
			wo.CompletionTime,
			wo.CalculatedHours,
			yesNo(wo.FieldTrip),
			distance,
			yesNo(wo.CustomerSignature != ""),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(exportColumns), len(rows)+1)
		f.AutoFilter(exportSheet, "A1:"+last, nil)
	}
	f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return f, nil
}

func yesNo(b bool) string {
	if b {
		return "Da"
	}
	return "Ne"
}
