package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{AppointmentScheduled, AppointmentCompleted, true},
		{AppointmentScheduled, AppointmentCancelled, true},
		{AppointmentScheduled, AppointmentNoShow, true},
		{AppointmentScheduled, AppointmentScheduled, false},
		{AppointmentCompleted, AppointmentScheduled, false},
		{AppointmentCancelled, AppointmentCompleted, false},
		{AppointmentNoShow, AppointmentCancelled, false},
		{AppointmentScheduled, "Rescheduled", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAppointmentDraft_Defaults(t *testing.T) {
	d := AppointmentDraft{PatientID: "p1", AppointmentDate: "2024-05-01", AppointmentTime: "09:30", Reason: "Checkup"}
	d.ApplyDefaults(0)

	if d.Duration != DefaultAppointmentDuration {
		t.Errorf("Duration = %d, want 30", d.Duration)
	}
	if d.Status != AppointmentScheduled {
		t.Errorf("Status = %s, want Scheduled", d.Status)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestAppointmentDraft_ValidateTime(t *testing.T) {
	d := AppointmentDraft{PatientID: "p1", AppointmentDate: "2024-05-01", AppointmentTime: "9.30", Reason: "Checkup"}
	if err := d.Validate(); err == nil {
		t.Error("Validate() should reject a malformed time")
	}
	d.AppointmentTime = "24:00"
	if err := d.Validate(); err == nil {
		t.Error("Validate() should reject 24:00")
	}
}

func TestAppointment_StartsAt(t *testing.T) {
	a := Appointment{AppointmentDate: "2024-05-01T00:00:00", AppointmentTime: "14:15"}
	got, err := a.StartsAt(time.UTC)
	if err != nil {
		t.Fatalf("StartsAt() error = %v", err)
	}
	want := time.Date(2024, 5, 1, 14, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartsAt() = %v, want %v", got, want)
	}
	if a.Day() != "2024-05-01" {
		t.Errorf("Day() = %s, want 2024-05-01", a.Day())
	}
}
