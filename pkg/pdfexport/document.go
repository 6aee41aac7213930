// Package pdfexport lays out a work order on A4 pages.
package pdfexport

import (
	"strings"
)

// Company is the letterhead printed at the top of every export.
type Company struct {
	Name    string
	Address string
	OIB     string
	Phone   string
	Email   string
}

// Party is one identity panel (naručitelj or korisnik).
type Party struct {
	CompanyName    string
	CompanyAddress string
	OIB            string
	ContactName    string
	Mobile         string
	Email          string
}

// Section is an itemized block of text. The renderer accepts both the
// flattened text stored in the database and the item lists of the form.
// A section without lines is printed with a dash unless it is optional, in
// which case it is left out.
type Section interface {
	Heading() string
	Lines() []string
	Optional() bool
}

// TextSection is a stored text blob with one bullet line per item.
type TextSection struct {
	Title         string
	Text          string
	SkipWhenEmpty bool
}

func (s TextSection) Heading() string { return s.Title }
func (s TextSection) Optional() bool  { return s.SkipWhenEmpty }

func (s TextSection) Lines() []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s.Text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "•"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ItemSection is a list of form lines.
type ItemSection struct {
	Title         string
	Items         []string
	SkipWhenEmpty bool
}

func (s ItemSection) Heading() string { return s.Title }
func (s ItemSection) Optional() bool  { return s.SkipWhenEmpty }

func (s ItemSection) Lines() []string {
	out := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// MaterialRow is one row of the materials table.
type MaterialRow struct {
	Name     string
	Quantity string
	Unit     string
}

// Signature is one signature box. Image is a data URL or a storage
// reference; an empty or unloadable image leaves the box empty.
type Signature struct {
	Label      string
	Image      string
	SignerName string
	Timestamp  string
	Location   string
	Address    string
}

// Document is everything the renderer prints for one work order.
type Document struct {
	OrderNumber string
	Date        string
	Company     Company

	Client   Party
	Customer *Party

	Sections  []Section
	Materials []MaterialRow

	ArrivalTime    string
	CompletionTime string
	Hours          string

	FieldTrip bool
	Distance  string

	TechnicianSignature Signature
	CustomerSignature   Signature
}

// Filename is the download name for a document: Radni_nalog_{order number}.pdf
// with "/" replaced so the name is a single path segment.
func Filename(orderNumber string) string {
	return "Radni_nalog_" + strings.ReplaceAll(orderNumber, "/", "-") + ".pdf"
}
