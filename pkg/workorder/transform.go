package workorder

import (
	"strconv"
	"strings"

	"p9e.in/workorders/models"
)

// Hydrate converts a persisted record into the form model.
func Hydrate(rec *models.WorkOrderRecord) *WorkOrder {
	wo := &WorkOrder{
		ID: rec.OrderNumber,
		Client: Party{
			CompanyName:    rec.ClientCompanyName,
			CompanyAddress: rec.ClientCompanyAddress,
			OIB:            rec.ClientOIB,
			FirstName:      rec.ClientFirstName,
			LastName:       rec.ClientLastName,
			Mobile:         rec.ClientMobile,
			Email:          rec.ClientEmail,
		},
		OrderForCustomer:    rec.OrderForCustomer,
		Description:         storedItems(SectionDescription, rec.Description),
		FoundCondition:      storedItems(SectionFoundCondition, rec.FoundCondition),
		PerformedWork:       storedItems(SectionPerformedWork, rec.PerformedWork),
		TechnicianComment:   storedItems(SectionTechnicianComment, rec.TechnicianComment),
		Materials:           ParseMaterials(rec.Materials),
		Date:                rec.Date,
		ArrivalTime:         deref(rec.ArrivalTime),
		CompletionTime:      deref(rec.CompletionTime),
		CalculatedHours:     FormatMinutesToDisplay(rec.Hours),
		FieldTrip:           fieldTrip(rec),
		TechnicianSignature: deref(rec.TechnicianSignature),
		CustomerSignature:   deref(rec.CustomerSignature),
		CustomerSignerName:  deref(rec.CustomerSignerName),
		SignatureMetadata: ParseSignatureMetadata(
			rec.SignatureTimestamp, rec.SignatureCoordinates, rec.SignatureAddress),
	}
	if rec.Distance != nil {
		wo.Distance = strconv.FormatFloat(*rec.Distance, 'f', -1, 64)
	}
	if rec.OrderForCustomer {
		wo.Customer = Party{
			CompanyName:    deref(rec.CustomerCompanyName),
			CompanyAddress: deref(rec.CustomerCompanyAddress),
			OIB:            deref(rec.CustomerOIB),
			FirstName:      deref(rec.CustomerFirstName),
			LastName:       deref(rec.CustomerLastName),
			Mobile:         deref(rec.CustomerMobile),
			Email:          deref(rec.CustomerEmail),
		}
	}
	return wo
}

// storedItems parses a stored section. Stored lines have no ids of their own,
// so they are numbered by position to stay addressable across reads.
func storedItems(section Section, text *string) []WorkItem {
	items := ParseTextToWorkItems(deref(text))
	for i := range items {
		items[i].ID = string(section) + "-" + strconv.Itoa(i+1)
	}
	return items
}

// fieldTrip prefers the stored flag; rows written before it existed fall
// back to distance > 0.
func fieldTrip(rec *models.WorkOrderRecord) bool {
	if rec.FieldTrip != nil {
		return *rec.FieldTrip
	}
	return rec.Distance != nil && *rec.Distance > 0
}

// Serialize converts the form model into the persisted shape. Empty optional
// strings become NULL. ID, EmployeeID and timestamps are left to the caller.
func Serialize(wo *WorkOrder) *models.WorkOrderRecord {
	trip := wo.FieldTrip
	rec := &models.WorkOrderRecord{
		OrderNumber:          strings.TrimSpace(wo.ID),
		ClientCompanyName:    strings.TrimSpace(wo.Client.CompanyName),
		ClientCompanyAddress: strings.TrimSpace(wo.Client.CompanyAddress),
		ClientOIB:            strings.TrimSpace(wo.Client.OIB),
		ClientFirstName:      strings.TrimSpace(wo.Client.FirstName),
		ClientLastName:       strings.TrimSpace(wo.Client.LastName),
		ClientMobile:         strings.TrimSpace(wo.Client.Mobile),
		ClientEmail:          strings.TrimSpace(wo.Client.Email),
		OrderForCustomer:     wo.OrderForCustomer,
		Description:          nullIfEmpty(JoinWorkItems(wo.Description)),
		FoundCondition:       nullIfEmpty(JoinWorkItems(wo.FoundCondition)),
		PerformedWork:        nullIfEmpty(JoinWorkItems(wo.PerformedWork)),
		TechnicianComment:    nullIfEmpty(JoinWorkItems(wo.TechnicianComment)),
		Materials:            MaterialsJSON(wo.Materials),
		Date:                 strings.TrimSpace(wo.Date),
		ArrivalTime:          nullIfEmpty(wo.ArrivalTime),
		CompletionTime:       nullIfEmpty(wo.CompletionTime),
		Hours:                ParseDisplayToMinutes(wo.CalculatedHours),
		FieldTrip:            &trip,
		TechnicianSignature:  nullIfEmpty(wo.TechnicianSignature),
		CustomerSignature:    nullIfEmpty(wo.CustomerSignature),
		CustomerSignerName:   nullIfEmpty(wo.CustomerSignerName),
	}
	if wo.OrderForCustomer {
		rec.CustomerCompanyName = nullIfEmpty(wo.Customer.CompanyName)
		rec.CustomerCompanyAddress = nullIfEmpty(wo.Customer.CompanyAddress)
		rec.CustomerOIB = nullIfEmpty(wo.Customer.OIB)
		rec.CustomerFirstName = nullIfEmpty(wo.Customer.FirstName)
		rec.CustomerLastName = nullIfEmpty(wo.Customer.LastName)
		rec.CustomerMobile = nullIfEmpty(wo.Customer.Mobile)
		rec.CustomerEmail = nullIfEmpty(wo.Customer.Email)
	}
	if wo.FieldTrip {
		if d, ok := ParseDistance(wo.Distance); ok {
			rec.Distance = &d
		}
	}
	if meta := wo.SignatureMetadata; meta != nil && meta.Timestamp != "" {
		rec.SignatureTimestamp = nullIfEmpty(meta.Timestamp)
		if meta.Coordinates != nil {
			lit := FormatPointLiteral(*meta.Coordinates)
			rec.SignatureCoordinates = &lit
		}
		rec.SignatureAddress = nullIfEmpty(meta.Address)
	}
	return rec
}

// ApplyTo copies the editable columns of src onto dst, leaving identity,
// ownership and timestamps untouched.
func ApplyTo(dst, src *models.WorkOrderRecord) {
	id, owner, number := dst.ID, dst.EmployeeID, dst.OrderNumber
	created, deleted := dst.CreatedAt, dst.DeletedAt
	*dst = *src
	dst.ID, dst.EmployeeID, dst.OrderNumber = id, owner, number
	dst.CreatedAt, dst.DeletedAt = created, deleted
	dst.Employee = nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
