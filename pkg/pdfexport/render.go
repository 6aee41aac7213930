package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"golang.org/x/sync/errgroup"
)

// Page geometry in millimetres.
const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginTop    = 15.0
	contentWidth = pageWidth - 2*marginLeft
	pageBreakY   = 270.0
	lineHeight   = 5.0
	columnGap    = 6.0
	columnWidth  = (contentWidth - columnGap) / 2
	signatureBox = 30.0
)

const (
	regularFont = "DejaVuSans.ttf"
	boldFont    = "DejaVuSans-Bold.ttf"
)

// Options configure a Renderer.
type Options struct {
	// FontDir may hold DejaVuSans.ttf and DejaVuSans-Bold.ttf. Without them
	// the core Helvetica font is used and č, ć and đ are transliterated.
	FontDir string
	Loader  ImageLoader
	Logger  *slog.Logger
	// Now stamps the PDF creation date; nil means time.Now.
	Now func() time.Time
}

// Renderer turns Documents into PDF bytes. It is safe for concurrent use.
type Renderer struct {
	fontDir string
	utf8    bool
	loader  ImageLoader
	log     *slog.Logger
	now     func() time.Time
}

// NewRenderer checks the font directory once and returns a renderer.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		fontDir: opts.FontDir,
		loader:  opts.Loader,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.fontDir != "" && fileExists(filepath.Join(r.fontDir, regularFont)) && fileExists(filepath.Join(r.fontDir, boldFont)) {
		r.utf8 = true
	}
	return r
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

type loadedImage struct {
	data []byte
	size image.Point
}

// Render lays out doc and returns the PDF. Signature images are fetched
// concurrently before layout; an image that cannot be loaded is logged and
// its box is left empty.
func (r *Renderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	images := r.loadImages(ctx, doc.TechnicianSignature.Image, doc.CustomerSignature.Image)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := r.layoutDocument(doc, images)
	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) layoutDocument(doc Document, images []*loadedImage) *layout {
	l := r.newLayout(doc)
	l.header(doc)
	l.parties(doc.Client, doc.Customer)
	for _, s := range doc.Sections {
		l.section(s)
	}
	l.materials(doc.Materials)
	l.timeSummary(doc)
	l.travelSummary(doc)
	l.signatures(doc.TechnicianSignature, doc.CustomerSignature, images)
	return l
}

func (r *Renderer) loadImages(ctx context.Context, refs ...string) []*loadedImage {
	out := make([]*loadedImage, len(refs))
	if r.loader == nil {
		return out
	}
	var g errgroup.Group
	for i, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		g.Go(func() error {
			raw, err := r.loader.Load(ctx, ref)
			if err != nil {
				r.log.Warn("signature image not loaded", "slot", i, "error", err)
				return nil
			}
			data, size, err := normalizeImage(raw)
			if err != nil {
				r.log.Warn("signature image not decodable", "slot", i, "error", err)
				return nil
			}
			out[i] = &loadedImage{data: data, size: size}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// layout carries the manual y cursor.
type layout struct {
	pdf  *fpdf.Fpdf
	y    float64
	font string
	tr   func(string) string
	utf8 bool
	seq  int
}

var transliteration = strings.NewReplacer(
	"č", "c", "ć", "c", "đ", "d",
	"Č", "C", "Ć", "C", "Đ", "D",
)

func (r *Renderer) newLayout(doc Document) *layout {
	pdf := fpdf.New("P", "mm", "A4", r.fontDir)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetCreationDate(r.now())

	l := &layout{pdf: pdf, font: "Helvetica"}
	if r.utf8 {
		pdf.AddUTF8Font("DejaVu", "", regularFont)
		pdf.AddUTF8Font("DejaVu", "B", boldFont)
		l.font = "DejaVu"
		l.utf8 = true
		l.tr = func(s string) string { return s }
	} else {
		cp := pdf.UnicodeTranslatorFromDescriptor("cp1252")
		l.tr = func(s string) string { return cp(transliteration.Replace(s)) }
	}
	pdf.SetTitle(l.tr("Radni nalog "+doc.OrderNumber), r.utf8)
	pdf.SetCreator("workorders", false)
	pdf.AddPage()
	l.y = marginTop
	return l
}

func (l *layout) ensure(h float64) {
	if l.y+h > pageBreakY {
		l.pdf.AddPage()
		l.y = marginTop
	}
}

func (l *layout) setFont(style string, size float64) {
	l.pdf.SetFont(l.font, style, size)
}

func (l *layout) text(x float64, s string) {
	l.pdf.Text(x, l.y, l.tr(s))
}

// wrap translates s and splits it into lines no wider than w in the current
// font. fpdf's SplitText indexes widths by rune, which is out of range for
// cp1252 bytes, so widths are measured with GetStringWidth instead.
func (l *layout) wrap(s string, w float64) []string {
	s = l.tr(s)
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		cand := word
		if line != "" {
			cand = line + " " + word
		}
		if l.pdf.GetStringWidth(cand) <= w {
			line = cand
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		for l.pdf.GetStringWidth(word) > w {
			n := l.fit(word, w)
			lines = append(lines, word[:n])
			word = word[n:]
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// fit returns how many leading bytes of s fit in w, at least one glyph.
func (l *layout) fit(s string, w float64) int {
	n := 0
	for n < len(s) {
		size := 1
		if l.utf8 {
			_, size = utf8.DecodeRuneInString(s[n:])
		}
		if n > 0 && l.pdf.GetStringWidth(s[:n+size]) > w {
			break
		}
		n += size
	}
	return n
}

func (l *layout) header(doc Document) {
	c := doc.Company
	l.setFont("B", 11)
	l.y += 4
	if c.Name != "" {
		l.text(marginLeft, c.Name)
	}
	l.setFont("", 8)
	info := []string{c.Address}
	if c.OIB != "" {
		info = append(info, "OIB: "+c.OIB)
	}
	if c.Phone != "" {
		info = append(info, "Tel: "+c.Phone)
	}
	if c.Email != "" {
		info = append(info, c.Email)
	}
	for _, s := range info {
		if s == "" {
			continue
		}
		l.y += 4
		l.text(marginLeft, s)
	}

	l.y += 10
	l.setFont("B", 16)
	title := l.tr("RADNI NALOG")
	l.pdf.Text((pageWidth-l.pdf.GetStringWidth(title))/2, l.y, title)

	l.y += 7
	l.setFont("", 10)
	line := "Broj: " + doc.OrderNumber + "    Datum: " + displayDate(doc.Date)
	w := l.pdf.GetStringWidth(l.tr(line))
	l.pdf.Text((pageWidth-w)/2, l.y, l.tr(line))
	l.y += 4
	l.pdf.SetLineWidth(0.3)
	l.pdf.Line(marginLeft, l.y, pageWidth-marginLeft, l.y)
	l.y += 6
}

// displayDate turns 2024-01-15 into 15.01.2024.; anything else is printed as is.
func displayDate(s string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("02.01.2006.")
}

func partyLines(p Party) []string {
	var out []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, label+v)
		}
	}
	add("", p.CompanyName)
	add("", p.CompanyAddress)
	add("OIB: ", p.OIB)
	add("Kontakt: ", p.ContactName)
	add("Mob: ", p.Mobile)
	add("E-mail: ", p.Email)
	return out
}

func (l *layout) parties(client Party, customer *Party) {
	l.setFont("", 9)
	panels := []struct {
		title string
		lines []string
	}{{"NARUČITELJ", nil}}

	width := contentWidth
	if customer != nil {
		width = columnWidth
		panels = append(panels, struct {
			title string
			lines []string
		}{"KORISNIK", nil})
	}
	wrapped := func(p Party) []string {
		var out []string
		for _, s := range partyLines(p) {
			out = append(out, l.wrap(s, width-4)...)
		}
		return out
	}
	panels[0].lines = wrapped(client)
	if customer != nil {
		panels[1].lines = wrapped(*customer)
	}

	rows := 0
	for _, p := range panels {
		rows = max(rows, len(p.lines))
	}
	h := 8 + float64(rows)*lineHeight + 2
	l.ensure(h)

	top := l.y
	for i, p := range panels {
		x := marginLeft + float64(i)*(columnWidth+columnGap)
		l.pdf.SetLineWidth(0.2)
		l.pdf.Rect(x, top, width, h, "D")
		l.setFont("B", 9)
		l.pdf.Text(x+2, top+5, l.tr(p.title))
		l.setFont("", 9)
		for j, s := range p.lines {
			// already translated by wrap
			l.pdf.Text(x+2, top+10+float64(j)*lineHeight, s)
		}
	}
	l.y = top + h + 6
}

func (l *layout) heading(s string) {
	l.ensure(lineHeight * 3)
	l.setFont("B", 10)
	l.text(marginLeft, s)
	l.y += 1.5
	l.pdf.SetLineWidth(0.1)
	l.pdf.Line(marginLeft, l.y, pageWidth-marginLeft, l.y)
	l.y += lineHeight
}

func (l *layout) section(s Section) {
	lines := s.Lines()
	if len(lines) == 0 && s.Optional() {
		return
	}
	l.heading(s.Heading())
	l.setFont("", 9)
	if len(lines) == 0 {
		l.ensure(lineHeight)
		l.text(marginLeft+5, "-")
		l.y += lineHeight + 3
		return
	}
	for _, line := range lines {
		for i, part := range l.wrap(line, contentWidth-6) {
			l.ensure(lineHeight)
			if i == 0 {
				l.pdf.Text(marginLeft+1, l.y, l.tr("•"))
			}
			l.pdf.Text(marginLeft+5, l.y, part)
			l.y += lineHeight
		}
	}
	l.y += 3
}

func (l *layout) materials(rows []MaterialRow) {
	var keep []MaterialRow
	for _, r := range rows {
		if strings.TrimSpace(r.Name) != "" {
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return
	}
	l.heading("UTROŠENI MATERIJAL")

	widths := []float64{contentWidth - 60, 30, 30}
	cols := []string{"Naziv", "Količina", "Jedinica"}
	drawHeader := func() {
		l.setFont("B", 9)
		l.pdf.SetFillColor(230, 230, 230)
		x := marginLeft
		for i, c := range cols {
			l.pdf.SetXY(x, l.y-4)
			l.pdf.CellFormat(widths[i], 6, l.tr(c), "1", 0, "L", true, 0, "")
			x += widths[i]
		}
		l.y += 6
	}
	drawHeader()

	l.setFont("", 9)
	for _, r := range keep {
		names := l.wrap(r.Name, widths[0]-2)
		h := float64(len(names))*lineHeight + 1
		if l.y+h > pageBreakY {
			l.pdf.AddPage()
			l.y = marginTop + 4
			drawHeader()
			l.setFont("", 9)
		}
		top := l.y - 4
		x := marginLeft
		l.pdf.Rect(x, top, widths[0], h, "D")
		for i, n := range names {
			l.pdf.Text(x+1, l.y+float64(i)*lineHeight, n)
		}
		x += widths[0]
		for i, v := range []string{r.Quantity, r.Unit} {
			l.pdf.Rect(x, top, widths[i+1], h, "D")
			l.pdf.Text(x+1, l.y, l.tr(v))
			x += widths[i+1]
		}
		l.y += h
	}
	l.y += 4
}

func (l *layout) timeSummary(doc Document) {
	l.heading("VRIJEME")
	l.setFont("", 9)
	l.text(marginLeft, fmt.Sprintf("Dolazak: %s    Završetak: %s    Ukupno: %s",
		orDash(doc.ArrivalTime), orDash(doc.CompletionTime), orDash(doc.Hours)))
	l.y += lineHeight + 3
}

func (l *layout) travelSummary(doc Document) {
	l.heading("PUT")
	l.setFont("", 9)
	if doc.FieldTrip {
		l.text(marginLeft, fmt.Sprintf("Izlazak na teren: Da    Udaljenost: %s km", orDash(doc.Distance)))
	} else {
		l.text(marginLeft, "Izlazak na teren: Ne")
	}
	l.y += lineHeight + 3
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (l *layout) signatures(tech, cust Signature, images []*loadedImage) {
	meta := func(s Signature) []string {
		var out []string
		if s.SignerName != "" {
			out = append(out, s.SignerName)
		}
		if s.Timestamp != "" {
			out = append(out, "Vrijeme: "+s.Timestamp)
		}
		if s.Location != "" {
			out = append(out, "Lokacija: "+s.Location)
		}
		if s.Address != "" {
			out = append(out, "Adresa: "+s.Address)
		}
		return out
	}
	l.setFont("", 8)
	techLines, custLines := meta(tech), meta(cust)
	var wrappedT, wrappedC []string
	for _, s := range techLines {
		wrappedT = append(wrappedT, l.wrap(s, columnWidth)...)
	}
	for _, s := range custLines {
		wrappedC = append(wrappedC, l.wrap(s, columnWidth)...)
	}
	rows := max(len(wrappedT), len(wrappedC))
	l.ensure(8 + signatureBox + float64(rows)*4 + 4)

	l.setFont("B", 9)
	top := l.y
	for i, s := range []Signature{tech, cust} {
		x := marginLeft + float64(i)*(columnWidth+columnGap)
		l.pdf.Text(x, top, l.tr(s.Label))
		boxY := top + 2
		l.pdf.SetLineWidth(0.2)
		l.pdf.Rect(x, boxY, columnWidth, signatureBox, "D")
		if i < len(images) && images[i] != nil {
			l.placeImage(images[i], x, boxY, columnWidth, signatureBox)
		}
	}

	l.setFont("", 8)
	for i, lines := range [][]string{wrappedT, wrappedC} {
		x := marginLeft + float64(i)*(columnWidth+columnGap)
		for j, s := range lines {
			l.pdf.Text(x, top+signatureBox+6+float64(j)*4, s)
		}
	}
	l.y = top + signatureBox + 6 + float64(rows)*4 + 4
}

// placeImage fits img inside the box keeping its aspect ratio.
func (l *layout) placeImage(img *loadedImage, x, y, w, h float64) {
	l.seq++
	name := fmt.Sprintf("sig%d", l.seq)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	l.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))

	pad := 1.0
	bw, bh := w-2*pad, h-2*pad
	iw, ih := float64(img.size.X), float64(img.size.Y)
	scale := min(bw/iw, bh/ih)
	dw, dh := iw*scale, ih*scale
	l.pdf.ImageOptions(name, x+pad+(bw-dw)/2, y+pad+(bh-dh)/2, dw, dh, false, opts, 0, "")
}
