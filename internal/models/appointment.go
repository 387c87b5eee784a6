package models

import (
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentNoShow    AppointmentStatus = "No-Show"
)

// DefaultAppointmentDuration is used when a draft leaves duration unset
const DefaultAppointmentDuration = 30

// Terminal reports whether no further status change is allowed
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled || s == AppointmentNoShow
}

// CanTransition reports whether from may move to to.
// Only Scheduled appointments can change, and only to a terminal status.
func CanTransition(from, to AppointmentStatus) bool {
	return from == AppointmentScheduled && to.Terminal()
}

// Appointment is a scheduled visit
type Appointment struct {
	ID              string            `json:"id"`
	PatientID       string            `json:"patient_id"`
	PatientName     string            `json:"patient_name,omitempty"`
	DoctorID        string            `json:"doctor_id"`
	AppointmentDate string            `json:"appointment_date"`
	AppointmentTime string            `json:"appointment_time"`
	Duration        int               `json:"duration"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	ReminderSent    bool              `json:"reminder_sent"`
	CreatedAt       Timestamp         `json:"created_at"`
	UpdatedAt       Timestamp         `json:"updated_at"`
}

// Day returns the YYYY-MM-DD part of the appointment date
func (a *Appointment) Day() string {
	if len(a.AppointmentDate) >= 10 {
		return a.AppointmentDate[:10]
	}
	return a.AppointmentDate
}

// StartsAt combines the date and the HH:MM time in loc
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Day()+" "+strings.TrimSpace(a.AppointmentTime), loc)
}

// AppointmentDraft is the body for creating an appointment
type AppointmentDraft struct {
	PatientID       string            `json:"patient_id" validate:"required"`
	DoctorID        string            `json:"doctor_id,omitempty"`
	AppointmentDate string            `json:"appointment_date" validate:"required,isodate"`
	AppointmentTime string            `json:"appointment_time" validate:"required,clock"`
	Duration        int               `json:"duration" validate:"gte=0,lte=480"`
	Reason          string            `json:"reason" validate:"required"`
	Status          AppointmentStatus `json:"status,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// Validate checks the draft before it is sent
func (d *AppointmentDraft) Validate() error {
	return validateStruct(d)
}

// ApplyDefaults fills the duration and initial status
func (d *AppointmentDraft) ApplyDefaults(defaultMinutes int) {
	if d.Duration == 0 {
		if defaultMinutes <= 0 {
			defaultMinutes = DefaultAppointmentDuration
		}
		d.Duration = defaultMinutes
	}
	if d.Status == "" {
		d.Status = AppointmentScheduled
	}
}

// AppointmentUpdate is a partial update; nil fields are left unchanged
type AppointmentUpdate struct {
	AppointmentDate *string            `json:"appointment_date,omitempty"`
	AppointmentTime *string            `json:"appointment_time,omitempty"`
	Duration        *int               `json:"duration,omitempty"`
	Reason          *string            `json:"reason,omitempty"`
	Status          *AppointmentStatus `json:"status,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	ReminderSent    *bool              `json:"reminder_sent,omitempty"`
}
