package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/pdfexport"
	"p9e.in/workorders/pkg/workorder"
	"p9e.in/workorders/repository"
)

type workOrderSummary struct {
	ID                  uuid.UUID `json:"id"`
	OrderNumber         string    `json:"orderNumber"`
	Date                string    `json:"date"`
	ClientCompanyName   string    `json:"clientCompanyName"`
	CustomerCompanyName string    `json:"customerCompanyName,omitempty"`
	EmployeeID          uuid.UUID `json:"employeeId"`
	EmployeeName        string    `json:"employeeName"`
	Hours               string    `json:"hours"`
	FieldTrip           bool      `json:"fieldTrip"`
	Signed              bool      `json:"signed"`
}

func summarize(rec *models.WorkOrderRecord) workOrderSummary {
	wo := workorder.Hydrate(rec)
	s := workOrderSummary{
		ID:                rec.ID,
		OrderNumber:       rec.OrderNumber,
		Date:              rec.Date,
		ClientCompanyName: rec.ClientCompanyName,
		EmployeeID:        rec.EmployeeID,
		Hours:             wo.CalculatedHours,
		FieldTrip:         wo.FieldTrip,
		Signed:            wo.CustomerSignature != "",
	}
	if wo.OrderForCustomer {
		s.CustomerCompanyName = wo.Customer.CompanyName
	}
	if rec.Employee != nil {
		s.EmployeeName = rec.Employee.FullName()
	}
	return s
}

type workOrderResponse struct {
	ID         uuid.UUID              `json:"id"`
	EmployeeID uuid.UUID              `json:"employeeId"`
	WorkOrder  *workorder.WorkOrder   `json:"workOrder"`
	Issues     []workorder.FieldIssue `json:"issues,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

func respondWorkOrder(rec *models.WorkOrderRecord, issues []workorder.FieldIssue) workOrderResponse {
	return workOrderResponse{
		ID:         rec.ID,
		EmployeeID: rec.EmployeeID,
		WorkOrder:  workorder.Hydrate(rec),
		Issues:     issues,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func workOrderFilter(r *http.Request) (repository.WorkOrderFilter, error) {
	q := r.URL.Query()
	f := repository.WorkOrderFilter{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Search: q.Get("q"),
		Page:   pageFrom(r),
	}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return f, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	if v := q.Get("employeeId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fmt.Errorf("invalid employeeId")
		}
		f.EmployeeID = &id
	}
	return f, nil
}

// ListWorkOrders returns the work orders visible to the caller, newest first.
func (h *Handler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	f, err := workOrderFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, total, err := h.workOrders.List(r.Context(), session(r).Actor(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := listResponse[workOrderSummary]{Items: make([]workOrderSummary, 0, len(rows)), Total: total}
	for i := range rows {
		out.Items = append(out.Items, summarize(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// NewWorkOrder returns a blank form with a fresh order number, today's date
// and the caller's stored technician signature.
func (h *Handler) NewWorkOrder(w http.ResponseWriter, r *http.Request) {
	d := workorder.NewDraft(h.now(), nil)
	sig, err := h.signatures.Get(r.Context(), session(r).EmployeeID)
	switch {
	case err == nil:
		_ = d.AttachSignature(workorder.SignatureTechnician, sig.Image, "", nil)
	case !errors.Is(err, repository.ErrNotFound):
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d.WorkOrder())
}

// submit normalizes a posted form and rejects it when validation reports
// errors. Warnings are passed back to the caller.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) (*models.WorkOrderRecord, []workorder.FieldIssue, bool) {
	var wo workorder.WorkOrder
	if err := decodeJSON(r, &wo); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, nil, false
	}
	rec, issues := workorder.DraftFrom(&wo).Submit()
	if workorder.HasErrors(issues) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"issues": issues,
		})
		return nil, nil, false
	}
	return rec, issues, true
}

// CreateWorkOrder stores a new work order owned by the caller.
func (h *Handler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	rec, issues, ok := h.submit(w, r)
	if !ok {
		return
	}
	regenerate := func() string { return workorder.GenerateOrderNumber(h.now(), nil) }
	if !workorder.IsOrderNumber(rec.OrderNumber) {
		rec.OrderNumber = regenerate()
	}
	if err := h.workOrders.Create(r.Context(), session(r).Actor(), rec, regenerate); err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.WorkOrderSaved("create")
	h.log.InfoContext(r.Context(), "work order created", "id", rec.ID, "order_number", rec.OrderNumber)
	writeJSON(w, http.StatusCreated, respondWorkOrder(rec, issues))
}

// GetWorkOrder returns one work order in form shape.
func (h *Handler) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rec, err := h.workOrders.Get(r.Context(), session(r).Actor(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, respondWorkOrder(rec, nil))
}

// UpdateWorkOrder replaces the editable fields of a work order. The order
// number and owner never change.
func (h *Handler) UpdateWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	src, issues, ok := h.submit(w, r)
	if !ok {
		return
	}
	rec, err := h.workOrders.Update(r.Context(), session(r).Actor(), id, func(dst *models.WorkOrderRecord) {
		workorder.ApplyTo(dst, src)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.WorkOrderSaved("update")
	writeJSON(w, http.StatusOK, respondWorkOrder(rec, issues))
}

// DeleteWorkOrder soft-deletes a work order.
func (h *Handler) DeleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.workOrders.Delete(r.Context(), session(r).Actor(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.WorkOrderSaved("delete")
	w.WriteHeader(http.StatusNoContent)
}

// company reads the letterhead from the global settings.
func (h *Handler) company(r *http.Request) (pdfexport.Company, error) {
	s, err := h.settings.All(r.Context())
	if err != nil {
		return pdfexport.Company{}, err
	}
	return pdfexport.Company{
		Name:    s[models.SettingCompanyName],
		Address: s[models.SettingCompanyAddress],
		OIB:     s[models.SettingCompanyOIB],
		Phone:   s[models.SettingCompanyPhone],
		Email:   s[models.SettingCompanyEmail],
	}, nil
}

// WorkOrderPDF renders a work order as a PDF download.
func (h *Handler) WorkOrderPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rec, err := h.workOrders.Get(r.Context(), session(r).Actor(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	company, err := h.company(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	doc := workorder.TransformForPDF(rec)
	doc.Company = company
	h.writePDF(w, r, doc, rec.OrderNumber)
}

// writePDF renders doc and sends it as an attachment.
func (h *Handler) writePDF(w http.ResponseWriter, r *http.Request, doc pdfexport.Document, orderNumber string) {
	out, err := h.renderer.Render(r.Context(), doc)
	h.metrics.PDFExport(err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfexport.Filename(orderNumber)))
	w.Header().Set("Content-Length", fmt.Sprint(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
