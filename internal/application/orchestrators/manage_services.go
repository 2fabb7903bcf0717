package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/service"
)

// ErrServiceInUse is returned when deleting a service that has attendance.
var ErrServiceInUse = errors.New("service has recorded attendance and cannot be deleted")

// ServiceWriter is the service store surface used by admin flows.
type ServiceWriter interface {
	GetByID(ctx context.Context, id string) (service.Service, error)
	Save(ctx context.Context, s service.Service) error
	Delete(ctx context.Context, id string) error
}

// ServiceAttendanceCounter reports how much attendance references a service.
type ServiceAttendanceCounter interface {
	CountForService(ctx context.Context, serviceID string) (int, error)
}

// SaveServiceInput defines a weekly service. ID is the slug and is
// immutable once created.
type SaveServiceInput struct {
	ID        string
	Name      string
	Day       string
	StartTime string
}

// SaveServiceDeps holds dependencies for SaveService.
type SaveServiceDeps struct {
	ServiceStore ServiceWriter
	Clock        Clock
}

// ExecuteSaveService creates the service when its slug is new and updates it otherwise.
// POST: service persisted with a lower-case day
func ExecuteSaveService(ctx context.Context, in SaveServiceInput, deps SaveServiceDeps) (service.Service, error) {
	id := strings.TrimSpace(in.ID)
	s, err := deps.ServiceStore.GetByID(ctx, id)
	created := false
	switch {
	case errors.Is(err, service.ErrNotFound):
		s = service.Service{ID: id, CreatedAt: deps.Clock.now()}
		created = true
	case err != nil:
		return service.Service{}, fmt.Errorf("load service: %w", err)
	}
	s.Name = strings.TrimSpace(in.Name)
	s.Day = strings.ToLower(strings.TrimSpace(in.Day))
	s.StartTime = strings.TrimSpace(in.StartTime)
	if err := s.Validate(); err != nil {
		return service.Service{}, invalid(err)
	}
	if err := deps.ServiceStore.Save(ctx, s); err != nil {
		return service.Service{}, err
	}
	slog.Info("service_event", "event", "service_saved", "service_id", s.ID, "created", created)
	return s, nil
}

// DeleteServiceDeps holds dependencies for DeleteService.
type DeleteServiceDeps struct {
	ServiceStore    ServiceWriter
	AttendanceStore ServiceAttendanceCounter
}

// ExecuteDeleteService removes a service with no attendance history.
// POST: a service with attendance is left untouched and CONFLICT is returned
func ExecuteDeleteService(ctx context.Context, id string, deps DeleteServiceDeps) error {
	if _, err := deps.ServiceStore.GetByID(ctx, id); err != nil {
		return lookupFailed(err, service.ErrNotFound, "service")
	}
	n, err := deps.AttendanceStore.CountForService(ctx, id)
	if err != nil {
		return fmt.Errorf("count service attendance: %w", err)
	}
	if n > 0 {
		return checkin.Wrap(checkin.CodeConflict, ErrServiceInUse.Error(), ErrServiceInUse)
	}
	if err := deps.ServiceStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	slog.Info("service_event", "event", "service_deleted", "service_id", id)
	return nil
}
