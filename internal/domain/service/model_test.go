package service_test

import (
	"testing"
	"time"

	"shepherd/internal/domain/service"
)

// TestService_Validate tests validation of Service.
func TestService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		svc     service.Service
		wantErr error
	}{
		{"valid", service.Service{ID: "sunday-am", Name: "Sunday First Service", Day: service.Sunday, StartTime: "08:00"}, nil},
		{"uppercase id", service.Service{ID: "Sunday", Name: "x", Day: service.Sunday, StartTime: "08:00"}, service.ErrInvalidID},
		{"empty name", service.Service{ID: "midweek", Name: " ", Day: service.Wednesday, StartTime: "18:30"}, service.ErrEmptyName},
		{"bad day", service.Service{ID: "midweek", Name: "Midweek", Day: "wed", StartTime: "18:30"}, service.ErrInvalidDay},
		{"bad time", service.Service{ID: "midweek", Name: "Midweek", Day: service.Wednesday, StartTime: "6pm"}, service.ErrInvalidStartTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.svc.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestService_RunsOn matches the weekday case-insensitively.
func TestService_RunsOn(t *testing.T) {
	s := service.Service{Day: service.Sunday}
	if !s.RunsOn(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Error("2024-06-02 is a Sunday")
	}
	if s.RunsOn(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Error("2024-06-03 is a Monday")
	}
}
