package pdfexport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unavailable")
}

func sampleDocument() Document {
	return Document{
		OrderNumber: "RN-20240115-042",
		Date:        "2024-01-15",
		Company:     Company{Name: "Servis d.o.o.", Address: "Ilica 1, Zagreb", OIB: "12345678901"},
		Client: Party{
			CompanyName:    "Klijent d.o.o.",
			CompanyAddress: "Vukovarska 5, Split",
			OIB:            "98765432109",
			ContactName:    "Ivan Horvat",
			Mobile:         "0911234567",
			Email:          "ivan@example.com",
		},
		Sections: []Section{
			TextSection{Title: "OPIS KVARA", Text: "• Ne radi grijanje\n• Curi voda"},
			ItemSection{Title: "IZVRŠENI RADOVI", Items: []string{"Zamijenjen ventil", ""}},
			ItemSection{Title: "KOMENTAR TEHNIČARA", Items: []string{"", "  "}, SkipWhenEmpty: true},
		},
		Materials: []MaterialRow{
			{Name: "Ventil", Quantity: "2", Unit: "kom"},
			{Name: "", Quantity: "1", Unit: "m"},
		},
		ArrivalTime:    "09:00",
		CompletionTime: "13:00",
		Hours:          "4h00min",
		FieldTrip:      true,
		Distance:       "12.5",
		TechnicianSignature: Signature{
			Label:      "Tehničar",
			SignerName: "Marko Marić",
		},
		CustomerSignature: Signature{
			Label:      "Korisnik",
			SignerName: "Ana Đurić",
			Timestamp:  "15.01.2024. 13:05:00",
			Location:   "45.81, 15.97",
			Address:    "Ilica 1, Zagreb, Hrvatska",
		},
	}
}

func newTestRenderer(loader ImageLoader) *Renderer {
	return NewRenderer(Options{
		Loader: loader,
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Now:    func() time.Time { return time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC) },
	})
}

func TestRender_WithoutImages(t *testing.T) {
	out, err := newTestRenderer(nil).Render(context.Background(), sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRender_WithCustomerPanelAndImages(t *testing.T) {
	doc := sampleDocument()
	doc.Customer = &Party{CompanyName: "Korisnik j.d.o.o.", ContactName: "Petra Kovač"}
	doc.TechnicianSignature.Image = pngDataURL(t, 400, 150)
	doc.CustomerSignature.Image = pngDataURL(t, 2400, 600)

	out, err := newTestRenderer(Loader{}).Render(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Contains(t, string(out), "/Subtype /Image")
}

func TestRender_UnloadableImagesDoNotAbort(t *testing.T) {
	doc := sampleDocument()
	doc.TechnicianSignature.Image = "signatures/missing.png"
	doc.CustomerSignature.Image = "data:image/png;base64,bm90IGFuIGltYWdl"

	var logs bytes.Buffer
	r := NewRenderer(Options{
		Loader: Loader{Store: failingStore{}},
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})
	out, err := r.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.NotContains(t, string(out), "/Subtype /Image")
	assert.Contains(t, logs.String(), "bucket unavailable")
	assert.Contains(t, logs.String(), "not decodable")
}

func TestRender_LongContentBreaksPages(t *testing.T) {
	doc := sampleDocument()
	var items []string
	for i := 0; i < 80; i++ {
		items = append(items, strings.Repeat("Dugačak opis izvršenog rada ", 6))
	}
	doc.Sections = []Section{ItemSection{Title: "IZVRŠENI RADOVI", Items: items}}

	out, err := newTestRenderer(nil).Render(context.Background(), doc)
	require.NoError(t, err)
	// "/Type /Page" also matches the "/Type /Pages" root.
	assert.Greater(t, bytes.Count(out, []byte("/Type /Page")), 3)
}

// uncompressed renders doc without stream compression so text operators can
// be searched in the output.
func uncompressed(t *testing.T, doc Document) string {
	t.Helper()
	l := newTestRenderer(nil).layoutDocument(doc, make([]*loadedImage, 2))
	l.pdf.SetCompression(false)
	var buf bytes.Buffer
	require.NoError(t, l.pdf.Output(&buf))
	return buf.String()
}

func textOp(s string) string {
	return "(" + transliteration.Replace(s) + ") Tj"
}

func TestRender_SectionOrderAndOptionalSections(t *testing.T) {
	doc := sampleDocument()
	doc.Sections = []Section{
		TextSection{Title: "OPIS KVARA", Text: "• Ne radi grijanje"},
		TextSection{Title: "ZATEČENO STANJE"},
		ItemSection{Title: "IZVRSENI RADOVI", Items: []string{"", " "}},
		TextSection{Title: "KOMENTAR TEHNIČARA", Text: "  ", SkipWhenEmpty: true},
	}
	out := uncompressed(t, doc)

	headings := []string{"OPIS KVARA", "ZATEČENO STANJE", "IZVRSENI RADOVI"}
	last := -1
	for _, h := range headings {
		idx := strings.Index(out, textOp(h))
		require.GreaterOrEqual(t, idx, 0, "heading %q missing", h)
		assert.Greater(t, idx, last, "heading %q out of order", h)
		last = idx
	}
	assert.NotContains(t, out, textOp("KOMENTAR TEHNIČARA"))
	assert.Contains(t, out, textOp("Ne radi grijanje"))
	// both empty mandatory sections get a placeholder line
	assert.GreaterOrEqual(t, strings.Count(out, textOp("-")), 2)
}

func TestRender_NonBlankCommentIsPrintedLast(t *testing.T) {
	doc := sampleDocument()
	doc.Sections = []Section{
		TextSection{Title: "OPIS KVARA", Text: "a"},
		TextSection{Title: "KOMENTAR TEHNIČARA", Text: "• Provjeriti za tjedan dana", SkipWhenEmpty: true},
	}
	out := uncompressed(t, doc)

	opis := strings.Index(out, textOp("OPIS KVARA"))
	comment := strings.Index(out, textOp("KOMENTAR TEHNIČARA"))
	require.GreaterOrEqual(t, opis, 0)
	assert.Greater(t, comment, opis)
	assert.Contains(t, out, textOp("Provjeriti za tjedan dana"))
}

func TestSection_Optional(t *testing.T) {
	assert.False(t, TextSection{Title: "OPIS KVARA"}.Optional())
	assert.True(t, ItemSection{Title: "KOMENTAR TEHNIČARA", SkipWhenEmpty: true}.Optional())
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRenderer(nil).Render(ctx, sampleDocument())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Radni_nalog_RN-20240115-042.pdf", Filename("RN-20240115-042"))
	assert.Equal(t, "Radni_nalog_RN-2024-15-3.pdf", Filename("RN/2024/15-3"))
}

func TestSections_Lines(t *testing.T) {
	assert.Equal(t, []string{"Ne radi grijanje", "Curi voda"},
		TextSection{Text: "• Ne radi grijanje\r\n\n•   Curi voda  "}.Lines())
	assert.Empty(t, TextSection{}.Lines())
	assert.Equal(t, []string{"a", "b"}, ItemSection{Items: []string{" a", "", "b "}}.Lines())
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "15.01.2024.", displayDate("2024-01-15"))
	assert.Equal(t, "sutra", displayDate("sutra"))
}
