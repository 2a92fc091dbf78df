package api

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightsmile/clinic-scheduling/internal/booking"
	"github.com/brightsmile/clinic-scheduling/internal/catalog"
	"github.com/brightsmile/clinic-scheduling/internal/schedule"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// --- requests ---

type CreateSlotRequest struct {
	DentistID   string `json:"dentist_id"`
	SpecialtyID string `json:"specialty_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func (r CreateSlotRequest) validate() (schedule.CreateSlotInput, []FieldError) {
	var fields []FieldError
	var in schedule.CreateSlotInput

	in.DentistID = parseUUIDField(r.DentistID, "dentist_id", &fields)
	in.SpecialtyID = parseUUIDField(r.SpecialtyID, "specialty_id", &fields)

	day, ok := parseDateField(r.Date, "date", &fields)
	start, startOK := parseTimeField(r.StartTime, "start_time", &fields)
	end, endOK := parseTimeField(r.EndTime, "end_time", &fields)
	if ok && startOK && endOK {
		in.StartsAt = combine(day, start)
		in.EndsAt = combine(day, end)
	}

	return in, fields
}

type UpdateSlotRequest struct {
	DentistID   *string `json:"dentist_id"`
	SpecialtyID *string `json:"specialty_id"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
}

func (r UpdateSlotRequest) validate() (schedule.UpdateSlotInput, []FieldError) {
	var fields []FieldError
	var in schedule.UpdateSlotInput

	if r.DentistID != nil {
		id := parseUUIDField(*r.DentistID, "dentist_id", &fields)
		in.DentistID = &id
	}
	if r.SpecialtyID != nil {
		id := parseUUIDField(*r.SpecialtyID, "specialty_id", &fields)
		in.SpecialtyID = &id
	}

	// The interval is stored as absolute timestamps; moving part of the
	// date/start/end triple would need the stored values to rebuild the rest.
	switch {
	case r.Date == nil && r.StartTime == nil && r.EndTime == nil:
	case r.Date != nil && r.StartTime != nil && r.EndTime != nil:
		day, ok := parseDateField(*r.Date, "date", &fields)
		start, startOK := parseTimeField(*r.StartTime, "start_time", &fields)
		end, endOK := parseTimeField(*r.EndTime, "end_time", &fields)
		if ok && startOK && endOK {
			startsAt := combine(day, start)
			endsAt := combine(day, end)
			in.StartsAt = &startsAt
			in.EndsAt = &endsAt
		}
	default:
		fields = append(fields, FieldError{
			Field:   "date",
			Message: "date, start_time and end_time must be updated together",
		})
	}

	return in, fields
}

type GuestBookingRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AvailabilityID string `json:"availability_id"`
	ServiceTypeID  string `json:"service_type_id"`
	Notes          string `json:"notes"`
}

func (r GuestBookingRequest) validate() (booking.CreateBookingInput, []FieldError) {
	var fields []FieldError

	name := strings.TrimSpace(r.Name)
	if name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		fields = append(fields, FieldError{Field: "email", Message: "email is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, FieldError{Field: "email", Message: "email is not a valid address"})
	}

	in := booking.CreateBookingInput{
		SlotID:        parseUUIDField(r.AvailabilityID, "availability_id", &fields),
		ServiceTypeID: parseUUIDField(r.ServiceTypeID, "service_type_id", &fields),
		Notes:         strings.TrimSpace(r.Notes),
		Guest: &booking.GuestDetails{
			Name:  name,
			Email: email,
			Phone: strings.TrimSpace(r.Phone),
		},
	}
	return in, fields
}

type BookingRequest struct {
	AvailabilityID string `json:"availability_id"`
	ServiceTypeID  string `json:"service_type_id"`
	Notes          string `json:"notes"`

	// Optional; when present it must match the bearer identity.
	UserID string `json:"user_id"`
}

func (r BookingRequest) validate() (booking.CreateBookingInput, []FieldError) {
	var fields []FieldError
	in := booking.CreateBookingInput{
		SlotID:        parseUUIDField(r.AvailabilityID, "availability_id", &fields),
		ServiceTypeID: parseUUIDField(r.ServiceTypeID, "service_type_id", &fields),
		Notes:         strings.TrimSpace(r.Notes),
	}
	return in, fields
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type CreateSpecialtyRequest struct {
	Name string `json:"name"`
}

type CreateServiceTypeRequest struct {
	SpecialtyID     string `json:"specialty_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (r CreateServiceTypeRequest) validate() (uuid.UUID, []FieldError) {
	var fields []FieldError
	id := parseUUIDField(r.SpecialtyID, "specialty_id", &fields)
	if strings.TrimSpace(r.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	if r.DurationMinutes <= 0 {
		fields = append(fields, FieldError{Field: "duration_minutes", Message: "duration_minutes must be positive"})
	}
	return id, fields
}

// --- responses ---

type SlotResponse struct {
	ID          uuid.UUID `json:"id"`
	DentistID   uuid.UUID `json:"dentist_id"`
	SpecialtyID uuid.UUID `json:"specialty_id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Active      bool      `json:"active"`
}

func newSlotResponse(s *schedule.Slot) SlotResponse {
	starts := s.StartsAt.UTC()
	ends := s.EndsAt.UTC()
	return SlotResponse{
		ID:          s.ID,
		DentistID:   s.DentistID,
		SpecialtyID: s.SpecialtyID,
		Date:        starts.Format(dateLayout),
		StartTime:   starts.Format(timeLayout),
		EndTime:     ends.Format(timeLayout),
		StartsAt:    starts,
		EndsAt:      ends,
		Active:      s.Active,
	}
}

type ServiceTypeResponse struct {
	ID              uuid.UUID `json:"id"`
	SpecialtyID     uuid.UUID `json:"specialty_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Active          bool      `json:"active"`
}

func newServiceTypeResponse(st *catalog.ServiceType) ServiceTypeResponse {
	return ServiceTypeResponse{
		ID:              st.ID,
		SpecialtyID:     st.SpecialtyID,
		Name:            st.Name,
		DurationMinutes: st.DurationMinutes,
		Active:          st.Active,
	}
}

type SpecialtyResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Active bool      `json:"active"`
}

func newSpecialtyResponse(sp *catalog.Specialty) SpecialtyResponse {
	return SpecialtyResponse{ID: sp.ID, Name: sp.Name, Active: sp.Active}
}

type PatientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
	Guest bool      `json:"guest"`
}

type AppointmentResponse struct {
	ID           uuid.UUID            `json:"id"`
	Status       string               `json:"status"`
	Notes        string               `json:"notes,omitempty"`
	Patient      PatientResponse      `json:"patient"`
	Availability *SlotResponse        `json:"availability,omitempty"`
	ServiceType  *ServiceTypeResponse `json:"service_type,omitempty"`
	Dentist      string               `json:"dentist,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func newAppointmentResponse(d *booking.AppointmentDetail) AppointmentResponse {
	resp := AppointmentResponse{
		ID:     d.ID,
		Status: string(d.Status),
		Notes:  d.Notes,
		Patient: PatientResponse{
			ID:    d.Patient.ID,
			Name:  d.Patient.Name,
			Email: d.Patient.Email,
			Phone: d.Patient.Phone,
			Guest: d.Patient.Guest,
		},
		Dentist:   d.DentistName,
		CreatedAt: d.CreatedAt,
	}
	if d.Slot != nil {
		slot := newSlotResponse(d.Slot)
		resp.Availability = &slot
	}
	if d.ServiceType != nil {
		st := newServiceTypeResponse(d.ServiceType)
		resp.ServiceType = &st
	}
	return resp
}

// --- field parsers ---

func parseUUIDField(raw, field string, fields *[]FieldError) uuid.UUID {
	if strings.TrimSpace(raw) == "" {
		*fields = append(*fields, FieldError{Field: field, Message: field + " is required"})
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: field, Message: field + " must be a valid UUID"})
		return uuid.Nil
	}
	return id
}

func parseDateField(raw, field string, fields *[]FieldError) (time.Time, bool) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: field, Message: field + " must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func parseTimeField(raw, field string, fields *[]FieldError) (time.Time, bool) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: field, Message: field + " must be HH:MM"})
		return time.Time{}, false
	}
	return t, true
}

func combine(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), 0, 0, time.UTC)
}
