package handlers

import (
	"errors"
	"net/http"

	"p9e.in/workorders/repository"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSettings writes the given keys; keys not sent are left alone.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.settings.Set(r.Context(), values); err != nil {
		if errors.Is(err, repository.ErrUnknownSetting) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, r, err)
		return
	}
	h.GetSettings(w, r)
}
