// Package workorder holds the work-order form model, the conversions between
// it and the persisted record, and the draft controller used while a work
// order is being edited.
package workorder

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// WorkItem is one line of an itemized text section.
type WorkItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Material is one row of the materials table.
type Material struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// Party is the identity block shared by the naručitelj (client) and the
// korisnik (customer).
type Party struct {
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	OIB            string `json:"oib"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Mobile         string `json:"mobile"`
	Email          string `json:"email"`
}

// ContactName returns "First Last" without stray spaces.
func (p Party) ContactName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// IsZero reports whether every field is blank.
func (p Party) IsZero() bool {
	return p == Party{}
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the coordinates in orb's (lon, lat) order.
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// CoordinatesFromPoint converts an orb point (lon, lat) back to Coordinates.
func CoordinatesFromPoint(p orb.Point) Coordinates {
	return Coordinates{Latitude: p.Lat(), Longitude: p.Lon()}
}

// SignatureMetadata is captured once with the customer signature.
type SignatureMetadata struct {
	Timestamp   string       `json:"timestamp"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Address     string       `json:"address,omitempty"`
}

// Section names an itemized text section of a work order.
type Section string

const (
	SectionDescription       Section = "description"
	SectionFoundCondition    Section = "foundCondition"
	SectionPerformedWork     Section = "performedWork"
	SectionTechnicianComment Section = "technicianComment"
)

// Sections in display and print order.
var Sections = []Section{
	SectionDescription,
	SectionFoundCondition,
	SectionPerformedWork,
	SectionTechnicianComment,
}

// WorkOrder is the editable form model of one work order.
type WorkOrder struct {
	ID string `json:"id"` // order number, e.g. RN-20240101-042

	Client           Party `json:"client"`
	OrderForCustomer bool  `json:"orderForCustomer"`
	Customer         Party `json:"customer"`

	Description       []WorkItem `json:"description"`
	FoundCondition    []WorkItem `json:"foundCondition"`
	PerformedWork     []WorkItem `json:"performedWork"`
	TechnicianComment []WorkItem `json:"technicianComment"`

	Materials []Material `json:"materials"`

	Date            string `json:"date"`
	ArrivalTime     string `json:"arrivalTime"`
	CompletionTime  string `json:"completionTime"`
	CalculatedHours string `json:"calculatedHours"`

	FieldTrip bool   `json:"fieldTrip"`
	Distance  string `json:"distance"`

	TechnicianSignature string             `json:"technicianSignature"`
	CustomerSignature   string             `json:"customerSignature"`
	CustomerSignerName  string             `json:"customerSignerName"`
	SignatureMetadata   *SignatureMetadata `json:"signatureMetadata,omitempty"`
}

// Items returns a pointer to the item slice of the given section, or nil if
// the section is unknown.
func (wo *WorkOrder) Items(section Section) *[]WorkItem {
	switch section {
	case SectionDescription:
		return &wo.Description
	case SectionFoundCondition:
		return &wo.FoundCondition
	case SectionPerformedWork:
		return &wo.PerformedWork
	case SectionTechnicianComment:
		return &wo.TechnicianComment
	}
	return nil
}

func newRowID() string {
	return uuid.NewString()
}
