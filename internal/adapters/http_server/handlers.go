package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"hotel_connect/internal/app"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/registry"
)

// maxImageBytes bounds an uploaded identity document scan.
const maxImageBytes = 10 << 20

type Handlers struct {
	Configs   *app.ConfigService
	Factories *app.Factories
	Manager   *app.Manager
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/integrations/health", h.health)
		r.Get("/integrations/providers", h.providers)

		r.Route("/hotels/{hotelID}", func(r chi.Router) {
			r.Get("/integrations/{domain}", h.getConfig)
			r.Patch("/integrations/{domain}", h.updateConfig)
			r.Delete("/integrations/{domain}", h.resetConfig)

			r.Get("/arrivals", h.arrivals)
			r.Get("/departures", h.departures)
			r.Get("/reservations/{confirmation}", h.reservation)
		})

		r.Post("/ocr/extract", h.extractID)
		r.Post("/concierge/messages", h.conciergeMessage)
	})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func hotelID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "hotelID"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "invalid_hotel_id", "Invalid ID", "hotelID must be a positive number")
		return 0, false
	}
	return id, true
}

func pathDomain(w http.ResponseWriter, r *http.Request) (domain.Domain, bool) {
	d, ok := domain.ParseDomain(chi.URLParam(r, "domain"))
	if !ok {
		writeProblem(w, http.StatusNotFound, "unknown_domain", "Not Found", "no such integration domain")
		return "", false
	}
	return d, true
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Manager.HealthCheck())
}

type providerInfo struct {
	Default   string                    `json:"default"`
	Providers []string                  `json:"providers"`
	Templates map[string]map[string]any `json:"templates"`
}

func (h *Handlers) providers(w http.ResponseWriter, _ *http.Request) {
	out := make(map[domain.Domain]providerInfo, len(domain.ConfigurableDomains))
	for _, d := range domain.ConfigurableDomains {
		info := providerInfo{Default: registry.Default(d), Providers: registry.Providers(d), Templates: map[string]map[string]any{}}
		for _, id := range info.Providers {
			if t, ok := registry.Template(d, id); ok {
				info.Templates[id] = t
			}
		}
		out[d] = info
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	d, ok := pathDomain(w, r)
	if !ok {
		return
	}
	pc, err := h.Configs.Get(r.Context(), id, d)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(pc)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getConfig body")
	}
}

func (h *Handlers) updateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	d, ok := pathDomain(w, r)
	if !ok {
		return
	}
	var u domain.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			writeProblem(w, http.StatusBadRequest, "invalid_config", "Invalid configuration", "config and configPatch must be JSON objects")
			return
		}
		writeProblem(w, http.StatusBadRequest, "invalid_body", "Bad Request", "body must be a JSON object")
		return
	}
	pc, err := h.Configs.Update(r.Context(), id, d, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func (h *Handlers) resetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	d, ok := pathDomain(w, r)
	if !ok {
		return
	}
	pc, err := h.Configs.Reset(r.Context(), id, d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return time.Now().UTC().Format(time.DateOnly), true
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_date", "Invalid date", "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func (h *Handlers) arrivals(w http.ResponseWriter, r *http.Request) {
	h.listByDate(w, r, false)
}

func (h *Handlers) departures(w http.ResponseWriter, r *http.Request) {
	h.listByDate(w, r, true)
}

func (h *Handlers) listByDate(w http.ResponseWriter, r *http.Request, departures bool) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	c, err := h.Factories.PMS(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	var out []domain.Reservation
	if departures {
		out, err = c.GetDepartures(r.Context(), date)
	} else {
		out, err = c.GetArrivals(r.Context(), date)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) reservation(w http.ResponseWriter, r *http.Request) {
	id, ok := hotelID(w, r)
	if !ok {
		return
	}
	c, err := h.Factories.PMS(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := c.GetReservation(r.Context(), chi.URLParam(r, "confirmation"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type extractResponse struct {
	Data       domain.ExtractedID  `json:"data"`
	Validation domain.IDValidation `json:"validation"`
}

// extractID takes the raw image as the request body.
func (h *Handlers) extractID(w http.ResponseWriter, r *http.Request) {
	svc, err := h.Manager.OCR(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		writeProblem(w, http.StatusRequestEntityTooLarge, "image_too_large", "Payload Too Large", err.Error())
		return
	}
	data, err := svc.ExtractIDData(r.Context(), image, r.URL.Query().Get("documentType"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Data: data, Validation: svc.ValidateIDData(data)})
}

type messageRequest struct {
	Message string            `json:"message"`
	History []domain.ChatTurn `json:"history"`
	Guest   *domain.GuestInfo `json:"guest"`
}

func (h *Handlers) conciergeMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "Bad Request", "body must be a JSON object")
		return
	}
	a, err := h.Manager.AIConcierge(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	reply, err := a.ProcessMessage(r.Context(), req.Message, req.History, req.Guest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
