package workorder

import (
	"strconv"

	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/pdfexport"
)

// Printed section headings.
var sectionTitles = map[Section]string{
	SectionDescription:       "OPIS KVARA",
	SectionFoundCondition:    "ZATEČENO STANJE",
	SectionPerformedWork:     "IZVRŠENI RADOVI",
	SectionTechnicianComment: "KOMENTAR TEHNIČARA",
}

const (
	technicianSignatureLabel = "Potpis tehničara"
	customerSignatureLabel   = "Potpis korisnika"
)

// TransformForPDF builds a document straight from a stored record, with the
// sections kept as their stored bullet text.
func TransformForPDF(rec *models.WorkOrderRecord) pdfexport.Document {
	doc := pdfexport.Document{
		OrderNumber: rec.OrderNumber,
		Date:        rec.Date,
		Client: pdfexport.Party{
			CompanyName:    rec.ClientCompanyName,
			CompanyAddress: rec.ClientCompanyAddress,
			OIB:            rec.ClientOIB,
			ContactName:    Party{FirstName: rec.ClientFirstName, LastName: rec.ClientLastName}.ContactName(),
			Mobile:         rec.ClientMobile,
			Email:          rec.ClientEmail,
		},
		Sections: []pdfexport.Section{
			pdfexport.TextSection{Title: sectionTitles[SectionDescription], Text: deref(rec.Description)},
			pdfexport.TextSection{Title: sectionTitles[SectionFoundCondition], Text: deref(rec.FoundCondition)},
			pdfexport.TextSection{Title: sectionTitles[SectionPerformedWork], Text: deref(rec.PerformedWork)},
			pdfexport.TextSection{Title: sectionTitles[SectionTechnicianComment], Text: deref(rec.TechnicianComment), SkipWhenEmpty: true},
		},
		Materials:      materialRows(ParseMaterials(rec.Materials)),
		ArrivalTime:    deref(rec.ArrivalTime),
		CompletionTime: deref(rec.CompletionTime),
		Hours:          FormatMinutesToDisplay(rec.Hours),
		FieldTrip:      fieldTrip(rec),
		TechnicianSignature: pdfexport.Signature{
			Label: technicianSignatureLabel,
			Image: deref(rec.TechnicianSignature),
		},
		CustomerSignature: customerSignature(
			deref(rec.CustomerSignature),
			deref(rec.CustomerSignerName),
			ParseSignatureMetadata(rec.SignatureTimestamp, rec.SignatureCoordinates, rec.SignatureAddress),
		),
	}
	if rec.Distance != nil {
		doc.Distance = strconv.FormatFloat(*rec.Distance, 'f', -1, 64)
	}
	if rec.OrderForCustomer {
		doc.Customer = &pdfexport.Party{
			CompanyName:    deref(rec.CustomerCompanyName),
			CompanyAddress: deref(rec.CustomerCompanyAddress),
			OIB:            deref(rec.CustomerOIB),
			ContactName:    Party{FirstName: deref(rec.CustomerFirstName), LastName: deref(rec.CustomerLastName)}.ContactName(),
			Mobile:         deref(rec.CustomerMobile),
			Email:          deref(rec.CustomerEmail),
		}
	}
	return doc
}

// DocumentFromWorkOrder builds a document from the form model.
func DocumentFromWorkOrder(wo *WorkOrder) pdfexport.Document {
	doc := pdfexport.Document{
		OrderNumber:    wo.ID,
		Date:           wo.Date,
		Client:         pdfParty(wo.Client),
		Materials:      materialRows(wo.Materials),
		ArrivalTime:    wo.ArrivalTime,
		CompletionTime: wo.CompletionTime,
		Hours:          CalculateBillableHours(wo.ArrivalTime, wo.CompletionTime),
		FieldTrip:      wo.FieldTrip,
		TechnicianSignature: pdfexport.Signature{
			Label: technicianSignatureLabel,
			Image: wo.TechnicianSignature,
		},
		CustomerSignature: customerSignature(wo.CustomerSignature, wo.CustomerSignerName, wo.SignatureMetadata),
	}
	if wo.FieldTrip {
		doc.Distance = wo.Distance
	}
	if wo.OrderForCustomer {
		p := pdfParty(wo.Customer)
		doc.Customer = &p
	}
	for _, s := range Sections {
		items := *wo.Items(s)
		texts := make([]string, len(items))
		for i, it := range items {
			texts[i] = it.Text
		}
		doc.Sections = append(doc.Sections, pdfexport.ItemSection{
			Title:         sectionTitles[s],
			Items:         texts,
			SkipWhenEmpty: s == SectionTechnicianComment,
		})
	}
	return doc
}

func pdfParty(p Party) pdfexport.Party {
	return pdfexport.Party{
		CompanyName:    p.CompanyName,
		CompanyAddress: p.CompanyAddress,
		OIB:            p.OIB,
		ContactName:    p.ContactName(),
		Mobile:         p.Mobile,
		Email:          p.Email,
	}
}

func materialRows(ms []Material) []pdfexport.MaterialRow {
	rows := make([]pdfexport.MaterialRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, pdfexport.MaterialRow{Name: m.Name, Quantity: m.Quantity, Unit: m.Unit})
	}
	return rows
}

func customerSignature(image, signer string, meta *SignatureMetadata) pdfexport.Signature {
	sig := pdfexport.Signature{
		Label:      customerSignatureLabel,
		Image:      image,
		SignerName: signer,
	}
	if meta != nil {
		sig.Timestamp = meta.Timestamp
		sig.Address = meta.Address
		if c := meta.Coordinates; c != nil {
			sig.Location = strconv.FormatFloat(c.Latitude, 'f', 6, 64) + ", " + strconv.FormatFloat(c.Longitude, 'f', 6, 64)
		}
	}
	return sig
}
