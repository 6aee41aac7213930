package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"p9e.in/workorders/models"
	"p9e.in/workorders/pkg/workorder"
	"p9e.in/workorders/repository"
	"p9e.in/workorders/utils"
)

// resource serves list/get/create/update/delete for a reference entity.
type resource[T any] struct {
	h     *Handler
	repo  *repository.CRUD[T]
	setID func(*T, uuid.UUID)
	check func(*T) error
	// present fills derived fields before a row is written out; may be nil.
	present func(*T)
}

func (res resource[T]) out(row *T) *T {
	if res.present != nil {
		res.present(row)
	}
	return row
}

func (res resource[T]) List(w http.ResponseWriter, r *http.Request) {
	rows, total, err := res.repo.List(r.Context(), pageFrom(r))
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	for i := range rows {
		res.out(&rows[i])
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Items: rows, Total: total})
}

func (res resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	row, err := res.repo.Get(r.Context(), id)
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.out(row))
}

func (res resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var row T
	if err := decodeJSON(r, &row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res.setID(&row, uuid.New())
	if err := res.check(&row); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := res.repo.Create(r.Context(), &row); err != nil {
		res.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.out(&row))
}

func (res resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	row, err := res.repo.Get(r.Context(), id)
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	// decode over the stored row so omitted fields are kept
	if err := decodeJSON(r, row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res.setID(row, id)
	if err := res.check(row); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := res.repo.Update(r.Context(), row); err != nil {
		res.h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.out(row))
}

func (res resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := res.repo.Delete(r.Context(), id); err != nil {
		res.h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Vehicles is the admin vehicle resource.
func (h *Handler) Vehicles() resource[models.Vehicle] {
	return resource[models.Vehicle]{
		h:     h,
		repo:  h.vehicles,
		setID: func(v *models.Vehicle, id uuid.UUID) { v.ID = id },
		check: checkVehicle,
	}
}

func checkVehicle(v *models.Vehicle) error {
	v.Registration = strings.ToUpper(strings.TrimSpace(v.Registration))
	if v.Registration == "" {
		return errors.New("registration is required")
	}
	if v.Year != 0 && (v.Year < 1950 || v.Year > 2100) {
		return fmt.Errorf("invalid year %d", v.Year)
	}
	return nil
}

// Locations is the admin location resource.
func (h *Handler) Locations() resource[models.Location] {
	return resource[models.Location]{
		h:       h,
		repo:    h.locations,
		setID:   func(l *models.Location, id uuid.UUID) { l.ID = id },
		check:   checkLocation,
		present: presentLocation,
	}
}

// checkLocation validates l. A full "street, city, country" address, when
// given, replaces the separate address fields.
func checkLocation(l *models.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return errors.New("name is required")
	}
	if full := strings.TrimSpace(l.Address); full != "" {
		addr := workorder.ParseAddress(full)
		l.Street, l.City, l.Country = addr.Street, addr.City, addr.Country
	}
	l.Address = ""
	if (l.Latitude == nil) != (l.Longitude == nil) {
		return errors.New("latitude and longitude must be set together")
	}
	if l.Latitude != nil {
		return utils.ValidateCoordinate(*l.Latitude, *l.Longitude)
	}
	return nil
}

func presentLocation(l *models.Location) {
	l.Address = workorder.FormatAddress(l.Street, l.City, l.Country)
}

type nearbyLocation struct {
	models.Location
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// ListLocations lists locations; with ?near=lat,lon they come back nearest
// first, locations without coordinates last.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	near := r.URL.Query().Get("near")
	if near == "" {
		h.Locations().List(w, r)
		return
	}
	origin, err := parseNear(near)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, total, err := h.locations.List(r.Context(), pageFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var (
		located []int
		points  []orb.Point
		out     = make([]nearbyLocation, 0, len(rows))
		rest    []nearbyLocation
	)
	for i := range rows {
		presentLocation(&rows[i])
		if p, ok := rows[i].Point(); ok {
			located = append(located, i)
			points = append(points, p)
			continue
		}
		rest = append(rest, nearbyLocation{Location: rows[i]})
	}
	for _, k := range utils.SortByDistance(origin, points) {
		d := utils.DistanceKm(origin, points[k])
		out = append(out, nearbyLocation{Location: rows[located[k]], DistanceKm: &d})
	}
	out = append(out, rest...)
	writeJSON(w, http.StatusOK, listResponse[nearbyLocation]{Items: out, Total: total})
}

func parseNear(s string) (orb.Point, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, errors.New("near must be lat,lon")
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil {
		return orb.Point{}, errors.New("near must be lat,lon")
	}
	if err := utils.ValidateCoordinate(lat, lon); err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}
