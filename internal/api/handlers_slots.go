package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightsmile/clinic-scheduling/internal/schedule"
)

func listSlotsHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter schedule.Filter
		var fields []FieldError

		q := r.URL.Query()
		if raw := q.Get("dentist_id"); raw != "" {
			id := parseUUIDField(raw, "dentist_id", &fields)
			filter.DentistID = &id
		}
		if raw := q.Get("specialty_id"); raw != "" {
			id := parseUUIDField(raw, "specialty_id", &fields)
			filter.SpecialtyID = &id
		}
		if raw := q.Get("until"); raw != "" {
			day, ok := parseDateField(raw, "until", &fields)
			if ok {
				until := day.Add(24 * time.Hour)
				filter.Until = &until
			}
		}
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		slots, err := svc.FindFuture(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, newSlotResponse(&slots[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createSlotHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in, fields := req.validate()
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		slot, err := svc.Create(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newSlotResponse(slot))
	}
}

func updateSlotHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
			return
		}

		var req UpdateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in, fields := req.validate()
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		slot, err := svc.Update(r.Context(), id, in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSlotResponse(slot))
	}
}

func deactivateSlotHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
			return
		}

		slot, err := svc.Deactivate(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSlotResponse(slot))
	}
}
