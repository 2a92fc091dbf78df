package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func listSpecialtiesHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialties, err := svc.ListSpecialties(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]SpecialtyResponse, 0, len(specialties))
		for i := range specialties {
			resp = append(resp, newSpecialtyResponse(&specialties[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createSpecialtyHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSpecialtyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeFieldErrors(w, []FieldError{{Field: "name", Message: "name is required"}})
			return
		}

		sp, err := svc.CreateSpecialty(r.Context(), req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newSpecialtyResponse(sp))
	}
}

func deactivateSpecialtyHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_specialty_id", "id must be a valid UUID")
			return
		}

		sp, err := svc.DeactivateSpecialty(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSpecialtyResponse(sp))
	}
}

func listServiceTypesHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var specialtyID *uuid.UUID
		if raw := r.URL.Query().Get("specialty_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeFieldErrors(w, []FieldError{{Field: "specialty_id", Message: "specialty_id must be a valid UUID"}})
				return
			}
			specialtyID = &id
		}

		types, err := svc.ListServiceTypes(r.Context(), specialtyID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]ServiceTypeResponse, 0, len(types))
		for i := range types {
			resp = append(resp, newServiceTypeResponse(&types[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createServiceTypeHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateServiceTypeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		specialtyID, fields := req.validate()
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		st, err := svc.CreateServiceType(r.Context(), specialtyID, req.Name, req.DurationMinutes)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newServiceTypeResponse(st))
	}
}

func deactivateServiceTypeHandler(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_type_id", "id must be a valid UUID")
			return
		}

		st, err := svc.DeactivateServiceType(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newServiceTypeResponse(st))
	}
}
