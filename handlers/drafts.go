package handlers

import (
	"net/http"

	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/workorder"
)

type draftReq struct {
	WorkOrder *workorder.WorkOrder `json:"workOrder"`
	Ops       []workorder.Op       `json:"ops"`
}

type draftResp struct {
	WorkOrder *workorder.WorkOrder   `json:"workOrder"`
	Issues    []workorder.FieldIssue `json:"issues"`
}

// EditDraft applies form edits to an unsaved work order and returns the
// result with its current field markers. Without a work order the edits
// start from a blank form.
func (h *Handler) EditDraft(w http.ResponseWriter, r *http.Request) {
	var req draftReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	d := workorder.NewDraft(h.now(), nil)
	if req.WorkOrder != nil {
		d = workorder.DraftFrom(req.WorkOrder)
	}
	if err := d.Apply(req.Ops...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issues := d.Validate()
	if issues == nil {
		issues = []workorder.FieldIssue{}
	}
	writeJSON(w, http.StatusOK, draftResp{WorkOrder: d.WorkOrder(), Issues: issues})
}

// PatchWorkOrder applies form edits to a stored work order. The result must
// pass validation before it is saved.
func (h *Handler) PatchWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req draftReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	actor := session(r).Actor()
	current, err := h.workOrders.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d := workorder.DraftFromRecord(current)
	if err := d.Apply(req.Ops...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	src, issues := d.Submit()
	if workorder.HasErrors(issues) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"issues": issues,
		})
		return
	}
	rec, err := h.workOrders.Update(r.Context(), actor, id, func(dst *models.WorkOrderRecord) {
		workorder.ApplyTo(dst, src)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.WorkOrderSaved("update")
	writeJSON(w, http.StatusOK, respondWorkOrder(rec, issues))
}

// PreviewWorkOrderPDF renders an unsaved form as a PDF so it can be checked
// before submitting. Sections are printed from the form's item lists.
func (h *Handler) PreviewWorkOrderPDF(w http.ResponseWriter, r *http.Request) {
	var wo workorder.WorkOrder
	if err := decodeJSON(r, &wo); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	company, err := h.company(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d := workorder.DraftFrom(&wo)
	doc := workorder.DocumentFromWorkOrder(d.WorkOrder())
	doc.Company = company
	h.writePDF(w, r, doc, d.WorkOrder().ID)
}
