package workorder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"p9e.in/workorders/models"
)

var (
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownSection  = errors.New("unknown section")
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnknownSigner   = errors.New("unknown signature kind")
	ErrMaterialMissing = errors.New("material not found")
)

// SignatureKind selects which signature slot is written.
type SignatureKind string

const (
	SignatureTechnician SignatureKind = "technician"
	SignatureCustomer   SignatureKind = "customer"
)

// Draft owns the in-memory work order for one edit session. Item and
// material lists never drop below one row.
type Draft struct {
	wo *WorkOrder
}

// NewDraft returns an empty work order with a fresh order number and
// today's date.
func NewDraft(now time.Time, intn func(int) int) *Draft {
	wo := &WorkOrder{
		ID:              GenerateOrderNumber(now, intn),
		Date:            now.Format("2006-01-02"),
		CalculatedHours: zeroDuration,
	}
	d := &Draft{wo: wo}
	d.normalize()
	return d
}

// DraftFromRecord hydrates a persisted record for editing.
func DraftFromRecord(rec *models.WorkOrderRecord) *Draft {
	d := &Draft{wo: Hydrate(rec)}
	d.normalize()
	return d
}

// DraftFrom wraps a work order submitted by a client, filling in missing row
// ids and the one-row minimums.
func DraftFrom(wo *WorkOrder) *Draft {
	d := &Draft{wo: wo}
	d.normalize()
	return d
}

// WorkOrder returns the draft's current state.
func (d *Draft) WorkOrder() *WorkOrder {
	return d.wo
}

func (d *Draft) normalize() {
	for _, s := range Sections {
		items := d.wo.Items(s)
		for i := range *items {
			if (*items)[i].ID == "" {
				(*items)[i].ID = newRowID()
			}
		}
		if len(*items) == 0 {
			*items = []WorkItem{{ID: newRowID()}}
		}
	}
	for i := range d.wo.Materials {
		if d.wo.Materials[i].ID == "" {
			d.wo.Materials[i].ID = newRowID()
		}
	}
	if len(d.wo.Materials) == 0 {
		d.wo.Materials = []Material{{ID: newRowID()}}
	}
}

// SetField writes a scalar form field. Paths are "client.email",
// "customer.firstName", "arrivalTime", "fieldTrip" and so on.
func (d *Draft) SetField(path, value string) error {
	if party, field, ok := strings.Cut(path, "."); ok {
		var p *Party
		switch party {
		case "client":
			p = &d.wo.Client
		case "customer":
			p = &d.wo.Customer
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return setPartyField(p, field, value, path)
	}

	switch path {
	case "date":
		d.wo.Date = value
	case "arrivalTime":
		d.wo.ArrivalTime = value
		d.recalculate()
	case "completionTime":
		d.wo.CompletionTime = value
		d.recalculate()
	case "distance":
		d.wo.Distance = value
	case "customerSignerName":
		d.wo.CustomerSignerName = value
	case "orderForCustomer", "fieldTrip":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, path, value)
		}
		if path == "orderForCustomer" {
			d.wo.OrderForCustomer = b
		} else {
			d.wo.FieldTrip = b
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	return nil
}

func setPartyField(p *Party, field, value, path string) error {
	switch field {
	case "companyName":
		p.CompanyName = value
	case "companyAddress":
		p.CompanyAddress = value
	case "oib":
		p.OIB = value
	case "firstName":
		p.FirstName = value
	case "lastName":
		p.LastName = value
	case "mobile":
		p.Mobile = value
	case "email":
		p.Email = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	return nil
}

func (d *Draft) recalculate() {
	d.wo.CalculatedHours = CalculateBillableHours(d.wo.ArrivalTime, d.wo.CompletionTime)
}

func (d *Draft) items(section Section) (*[]WorkItem, error) {
	items := d.wo.Items(section)
	if items == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return items, nil
}

// AddItem appends a blank line to a section.
func (d *Draft) AddItem(section Section) (WorkItem, error) {
	items, err := d.items(section)
	if err != nil {
		return WorkItem{}, err
	}
	it := WorkItem{ID: newRowID()}
	*items = append(*items, it)
	return it, nil
}

// UpdateItem replaces the text of one line.
func (d *Draft) UpdateItem(section Section, id, text string) error {
	items, err := d.items(section)
	if err != nil {
		return err
	}
	for i := range *items {
		if (*items)[i].ID == id {
			(*items)[i].Text = text
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrItemNotFound, section, id)
}

// RemoveItem deletes a line. Removing the only line is a no-op.
func (d *Draft) RemoveItem(section Section, id string) error {
	items, err := d.items(section)
	if err != nil {
		return err
	}
	for i := range *items {
		if (*items)[i].ID != id {
			continue
		}
		if len(*items) > 1 {
			*items = append((*items)[:i], (*items)[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrItemNotFound, section, id)
}

// AddMaterial appends a blank material row.
func (d *Draft) AddMaterial() Material {
	m := Material{ID: newRowID()}
	d.wo.Materials = append(d.wo.Materials, m)
	return m
}

// UpdateMaterial replaces the row with the same id as m.
func (d *Draft) UpdateMaterial(m Material) error {
	for i := range d.wo.Materials {
		if d.wo.Materials[i].ID == m.ID {
			d.wo.Materials[i] = m
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMaterialMissing, m.ID)
}

// RemoveMaterial deletes a row. Removing the only row is a no-op.
func (d *Draft) RemoveMaterial(id string) error {
	for i := range d.wo.Materials {
		if d.wo.Materials[i].ID != id {
			continue
		}
		if len(d.wo.Materials) > 1 {
			d.wo.Materials = append(d.wo.Materials[:i], d.wo.Materials[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMaterialMissing, id)
}

// AttachSignature stores a captured signature. Metadata is only kept for the
// customer signature and is never overwritten by a technician signature.
func (d *Draft) AttachSignature(kind SignatureKind, image, signerName string, meta *SignatureMetadata) error {
	switch kind {
	case SignatureTechnician:
		d.wo.TechnicianSignature = image
	case SignatureCustomer:
		d.wo.CustomerSignature = image
		d.wo.CustomerSignerName = signerName
		d.wo.SignatureMetadata = meta
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSigner, kind)
	}
	return nil
}

// Validate returns the form's field markers.
func (d *Draft) Validate() []FieldIssue {
	return Validate(d.wo)
}

// Submit recomputes the billable hours from the arrival and completion
// times, whatever the draft held before, and serializes the draft.
func (d *Draft) Submit() (*models.WorkOrderRecord, []FieldIssue) {
	d.recalculate()
	return Serialize(d.wo), d.Validate()
}
