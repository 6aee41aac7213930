package handlers

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/workorder"
)

func (e *env) createOrder(as *models.Employee, body map[string]any) workOrderResponse {
	e.t.Helper()
	rr := e.call(e.h.CreateWorkOrder, http.MethodPost, "/api/v1/work-orders", body, as, nil)
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[workOrderResponse](e.t, rr)
}

func TestCreateWorkOrder(t *testing.T) {
	e := newEnv(t)

	created := e.createOrder(&e.tech, validOrder())
	assert.Equal(t, e.tech.ID, created.EmployeeID)
	assert.True(t, workorder.IsOrderNumber(created.WorkOrder.ID), created.WorkOrder.ID)
	assert.Equal(t, "2h30min", created.WorkOrder.CalculatedHours)
	assert.Empty(t, created.Issues)

	var rec models.WorkOrderRecord
	require.NoError(t, e.db.First(&rec, "id = ?", created.ID).Error)
	assert.Equal(t, 150, rec.Hours)
	assert.Equal(t, "• Ne radi grijanje", *rec.Description)

	t.Run("client supplied hours are recalculated", func(t *testing.T) {
		body := validOrder()
		body["calculatedHours"] = "9h00min"
		got := e.createOrder(&e.tech, body)
		assert.Equal(t, "2h30min", got.WorkOrder.CalculatedHours)
	})

	t.Run("keeps a well formed order number", func(t *testing.T) {
		body := validOrder()
		body["id"] = "RN-20240315-777"
		got := e.createOrder(&e.tech, body)
		assert.Equal(t, "RN-20240315-777", got.WorkOrder.ID)
	})

	t.Run("duplicate order number is regenerated", func(t *testing.T) {
		body := validOrder()
		body["id"] = "RN-20240315-777"
		got := e.createOrder(&e.tech, body)
		assert.NotEqual(t, "RN-20240315-777", got.WorkOrder.ID)
		assert.True(t, workorder.IsOrderNumber(got.WorkOrder.ID))
	})

	t.Run("warnings are returned", func(t *testing.T) {
		body := validOrder()
		delete(body, "arrivalTime")
		got := e.createOrder(&e.tech, body)
		require.NotEmpty(t, got.Issues)
		assert.Equal(t, "missing_time", got.Issues[0].Code)
		assert.Equal(t, "0h00min", got.WorkOrder.CalculatedHours)
	})
}

func TestCreateWorkOrder_ValidationErrors(t *testing.T) {
	e := newEnv(t)

	body := validOrder()
	body["client"].(map[string]any)["email"] = "not-an-email"
	body["fieldTrip"] = true

	rr := e.call(e.h.CreateWorkOrder, http.MethodPost, "/api/v1/work-orders", body, &e.tech, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	resp := decode[struct {
		Error  string                 `json:"error"`
		Issues []workorder.FieldIssue `json:"issues"`
	}](t, rr)
	fields := map[string]string{}
	for _, is := range resp.Issues {
		fields[is.Field] = is.Code
	}
	assert.Equal(t, "invalid_email", fields["client.email"])
	assert.Equal(t, "required", fields["distance"])

	var n int64
	e.db.Model(&models.WorkOrderRecord{}).Count(&n)
	assert.Zero(t, n)
}

func TestWorkOrderAccess(t *testing.T) {
	e := newEnv(t)
	mine := e.createOrder(&e.tech, validOrder())
	theirs := e.createOrder(&e.other, validOrder())
	vars := func(r workOrderResponse) map[string]string { return map[string]string{"id": r.ID.String()} }

	t.Run("technician sees own only", func(t *testing.T) {
		rr := e.call(e.h.ListWorkOrders, http.MethodGet, "/api/v1/work-orders", nil, &e.tech, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		list := decode[listResponse[workOrderSummary]](t, rr)
		require.Len(t, list.Items, 1)
		assert.Equal(t, mine.ID, list.Items[0].ID)
		assert.Equal(t, "2h30min", list.Items[0].Hours)

		rr = e.call(e.h.GetWorkOrder, http.MethodGet, "/", nil, &e.tech, vars(theirs))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("lead sees everything", func(t *testing.T) {
		rr := e.call(e.h.ListWorkOrders, http.MethodGet, "/api/v1/work-orders?q=RN-", nil, &e.lead, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.EqualValues(t, 2, decode[listResponse[workOrderSummary]](t, rr).Total)
	})

	t.Run("bad filters", func(t *testing.T) {
		rr := e.call(e.h.ListWorkOrders, http.MethodGet, "/api/v1/work-orders?from=15.03.2024", nil, &e.lead, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		rr = e.call(e.h.ListWorkOrders, http.MethodGet, "/api/v1/work-orders?employeeId=x", nil, &e.lead, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update", func(t *testing.T) {
		body := validOrder()
		body["id"] = "RN-20000101-001"
		body["completionTime"] = "12:00"
		rr := e.call(e.h.UpdateWorkOrder, http.MethodPut, "/", body, &e.tech, vars(mine))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		got := decode[workOrderResponse](t, rr)
		assert.Equal(t, "4h00min", got.WorkOrder.CalculatedHours)
		assert.Equal(t, mine.WorkOrder.ID, got.WorkOrder.ID, "order number is immutable")

		rr = e.call(e.h.UpdateWorkOrder, http.MethodPut, "/", validOrder(), &e.tech, vars(theirs))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rr := e.call(e.h.DeleteWorkOrder, http.MethodDelete, "/", nil, &e.tech, vars(mine))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = e.call(e.h.DeleteWorkOrder, http.MethodDelete, "/", nil, &e.admin, vars(theirs))
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = e.call(e.h.GetWorkOrder, http.MethodGet, "/", nil, &e.admin, vars(theirs))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := e.call(e.h.GetWorkOrder, http.MethodGet, "/", nil, &e.admin, map[string]string{"id": "abc"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWorkOrderPDF(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.h.settings.Set(t.Context(), map[string]string{
		models.SettingCompanyName: "Servis d.o.o.",
	}))

	body := validOrder()
	body["technicianSignature"] = pngDataURL(t)
	body["customerSignature"] = "/uploads/missing.png"
	created := e.createOrder(&e.tech, body)

	rr := e.call(e.h.WorkOrderPDF, http.MethodGet, "/", nil, &e.tech, map[string]string{"id": created.ID.String()})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Radni_nalog_`+created.WorkOrder.ID+`.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")))
}

func TestExportWorkOrders(t *testing.T) {
	e := newEnv(t)
	first := e.createOrder(&e.tech, validOrder())
	trip := validOrder()
	trip["fieldTrip"] = true
	trip["distance"] = "12,5"
	e.createOrder(&e.tech, trip)

	rr := e.call(e.h.ExportWorkOrders, http.MethodGet, "/api/v1/work-orders/export.xlsx", nil, &e.lead, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Radni_nalozi_20240315_103000.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Broj naloga", rows[0][0])

	var numbers []string
	var trips []string
	for _, row := range rows[1:] {
		numbers = append(numbers, row[0])
		trips = append(trips, row[9])
		assert.Equal(t, "2h30min", row[8])
	}
	assert.Contains(t, numbers, first.WorkOrder.ID)
	assert.ElementsMatch(t, []string{"Da", "Ne"}, trips)
}
