package handlers

import (
	"errors"
	"net/http"
	"strings"

	"p9e.in/workorders/pkg/signature"
)

type captureReq struct {
	Image      string              `json:"image"`
	SignerName string              `json:"signerName"`
	Position   *signature.Position `json:"position"`
}

type captureResp struct {
	*signature.Result
	SignerName string `json:"signerName"`
}

// CaptureSignature stamps a customer signature with the time, the position
// the browser reported and, when geocoding is enabled, the street address.
// A missing position never fails the request; it comes back as a warning.
func (h *Handler) CaptureSignature(w http.ResponseWriter, r *http.Request) {
	var req captureReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var locator signature.Locator
	if req.Position != nil {
		locator = signature.ClientLocator{Position: *req.Position, Now: h.now}
	}
	capture := signature.NewCapture(locator, h.geocoder,
		signature.WithClock(h.now),
		signature.WithLogger(h.log.With("component", "signature")))
	if strings.TrimSpace(req.Image) != "" {
		capture.Stroke()
	}

	res, err := capture.Save(r.Context(), req.Image)
	if errors.Is(err, signature.ErrNothingDrawn) || errors.Is(err, signature.ErrEmptyImage) {
		writeError(w, http.StatusBadRequest, "signature is empty")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ref, err := h.persistImage(r.Context(), "signatures/customers", res.Image)
	if err != nil {
		h.imageFailed(w, r, err)
		return
	}
	res.Image = ref

	outcome := "unavailable"
	switch {
	case res.Metadata.Address != "":
		outcome = "geocoded"
	case res.Metadata.Coordinates != nil:
		outcome = "located"
	}
	h.metrics.SignatureCaptured(outcome)

	writeJSON(w, http.StatusOK, captureResp{Result: res, SignerName: strings.TrimSpace(req.SignerName)})
}
