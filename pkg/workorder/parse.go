package workorder

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCountry is assumed when an address carries no country part.
const DefaultCountry = "Hrvatska"

const zeroDuration = "0h00min"

var (
	durationPattern = regexp.MustCompile(`(\d+)h(\d+)min`)
	pointPattern    = regexp.MustCompile(`\(([^,]+),([^)]+)\)`)
)

// FormatMinutesToDisplay renders whole minutes as "XhYYmin".
func FormatMinutesToDisplay(minutes int) string {
	if minutes <= 0 {
		return zeroDuration
	}
	return fmt.Sprintf("%dh%02dmin", minutes/60, minutes%60)
}

// ParseDisplayToMinutes is the inverse of FormatMinutesToDisplay. It returns
// 0 when s does not contain an "XhYYmin" duration.
func ParseDisplayToMinutes(s string) int {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins
}

// CalculateBillableHours returns the time between two same-day wall-clock
// times. A completion earlier than the arrival is taken to be on the next day.
func CalculateBillableHours(arrival, completion string) string {
	a, ok := parseClock(arrival)
	if !ok {
		return zeroDuration
	}
	c, ok := parseClock(completion)
	if !ok {
		return zeroDuration
	}
	diff := c.Sub(a)
	if diff < 0 {
		diff += 24 * time.Hour
	}
	return FormatMinutesToDisplay(int(math.Round(diff.Minutes())))
}

func parseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTextToWorkItems splits a stored text blob into form lines. Bullet
// markers and blank lines are dropped; the result always has at least one
// (possibly blank) item so the form has a row to render.
func ParseTextToWorkItems(text string) []WorkItem {
	var items []WorkItem
	for _, line := range splitLines(text) {
		items = append(items, WorkItem{ID: newRowID(), Text: line})
	}
	if len(items) == 0 {
		items = []WorkItem{{ID: newRowID()}}
	}
	return items
}

// JoinWorkItems is the inverse of ParseTextToWorkItems: non-blank items are
// written one per line with a bullet prefix.
func JoinWorkItems(items []WorkItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it.Text); t != "" {
			lines = append(lines, "• "+t)
		}
	}
	return strings.Join(lines, "\n")
}

// splitLines returns the non-blank lines of text with bullet markers removed.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if t := stripBullet(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func stripBullet(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "•"):
		line = strings.TrimPrefix(line, "•")
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		line = line[2:]
	}
	return strings.TrimSpace(line)
}

// Address is a comma-separated address split into its parts.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// ParseAddress splits "street, city, country". Components that themselves
// contain commas do not survive the split.
func ParseAddress(full string) Address {
	parts := strings.Split(full, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	addr := Address{Country: DefaultCountry}
	if len(parts) > 0 {
		addr.Street = parts[0]
	}
	if len(parts) > 1 {
		addr.City = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		addr.Country = parts[2]
	}
	return addr
}

// FormatAddress joins the non-empty parts with ", ".
func FormatAddress(street, city, country string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{street, city, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ParseSignatureMetadata rebuilds signature metadata from its stored columns.
// The coordinate column is a point literal "(lon,lat)": longitude comes first.
func ParseSignatureMetadata(timestamp, rawCoordinates, address *string) *SignatureMetadata {
	if timestamp == nil {
		return nil
	}
	meta := &SignatureMetadata{Timestamp: *timestamp}
	if rawCoordinates != nil {
		if c, ok := ParsePointLiteral(*rawCoordinates); ok {
			meta.Coordinates = &c
		}
	}
	if address != nil {
		meta.Address = *address
	}
	return meta
}

// ParsePointLiteral parses "(lon,lat)".
func ParsePointLiteral(raw string) (Coordinates, bool) {
	m := pointPattern.FindStringSubmatch(raw)
	if m == nil {
		return Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	if err != nil {
		return Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
	if err != nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: lat, Longitude: lon}, true
}

// FormatPointLiteral writes c as "(lon,lat)".
func FormatPointLiteral(c Coordinates) string {
	p := c.Point()
	return "(" + strconv.FormatFloat(p.X(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Y(), 'f', -1, 64) + ")"
}

type storedMaterial struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
	Unit     string          `json:"unit"`
}

// ParseMaterials decodes the stored materials JSON. Empty, missing or
// malformed input yields one blank row.
func ParseMaterials(raw []byte) []Material {
	var stored []storedMaterial
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stored); err != nil {
			stored = nil
		}
	}
	out := make([]Material, 0, len(stored))
	for _, s := range stored {
		m := Material{
			ID:       s.ID,
			Name:     s.Name,
			Quantity: rawQuantity(s.Quantity),
			Unit:     s.Unit,
		}
		if m.ID == "" {
			m.ID = newRowID()
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		out = []Material{{ID: newRowID()}}
	}
	return out
}

// quantity was written as a number by older clients and as a string by newer ones.
func rawQuantity(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// MaterialsJSON encodes the materials for storage, dropping fully blank rows.
func MaterialsJSON(materials []Material) []byte {
	keep := make([]Material, 0, len(materials))
	for _, m := range materials {
		if isBlankMaterial(m) {
			continue
		}
		m.Name = strings.TrimSpace(m.Name)
		m.Quantity = strings.TrimSpace(m.Quantity)
		m.Unit = strings.TrimSpace(m.Unit)
		keep = append(keep, m)
	}
	b, err := json.Marshal(keep)
	if err != nil {
		return []byte("[]")
	}
	return b
}

func isBlankMaterial(m Material) bool {
	return strings.TrimSpace(m.Name) == "" &&
		strings.TrimSpace(m.Quantity) == "" &&
		strings.TrimSpace(m.Unit) == ""
}

// ParseDistance accepts "12.5" and "12,5".
func ParseDistance(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}
