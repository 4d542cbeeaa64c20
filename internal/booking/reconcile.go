package booking

import (
	"context"
	"fmt"
	"log"

	"github.com/clinicgrid/hospital-booking/internal/availability"
)

// ReconcileSlots sweeps every availability template and frees booked slots
// that no booking row accounts for. Such orphans can appear after a crash
// between the slot flip and the durable write, or after reference data
// changes strand an old booking. Returns the number of slots freed.
func (s *Service) ReconcileSlots(ctx context.Context) (int, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list bookings: %w", err)
	}

	// Expected booked slots per availability id, keyed by day|start|end.
	// The day comes from the stored date, not the cached column.
	expected := make(map[string]map[string]struct{})
	for _, a := range rows {
		doctor, err := s.dir.DoctorByID(a.DoctorID)
		if err != nil {
			log.Printf("reconcile: booking %d references unknown doctor %s", a.ID, a.DoctorID)
			continue
		}

		day := a.Day
		if derived, err := DayOfWeek(a.Date); err == nil {
			day = derived
		}

		set, ok := expected[doctor.AvailabilityID]
		if !ok {
			set = make(map[string]struct{})
			expected[doctor.AvailabilityID] = set
		}
		set[slotKey(day, a.StartTime, a.EndTime)] = struct{}{}
	}

	freed := 0
	for _, availabilityID := range s.templateIDs() {
		n, err := s.reconcileTemplate(ctx, availabilityID, expected[availabilityID])
		if err != nil {
			log.Printf("reconcile template %s: %v", availabilityID, err)
			continue
		}
		freed += n
	}

	return freed, nil
}

func (s *Service) reconcileTemplate(ctx context.Context, availabilityID string, expected map[string]struct{}) (int, error) {
	freed := 0

	err := s.locker.WithTemplateLock(ctx, availabilityID, func(context.Context) error {
		grid, err := s.slots.Grid(availabilityID)
		if err != nil {
			return err
		}

		for day, daySlots := range grid {
			for _, slot := range daySlots {
				if slot.Status != availability.StatusBooked {
					continue
				}
				if _, ok := expected[slotKey(day, slot.StartTime, slot.EndTime)]; ok {
					continue
				}

				if err := s.slots.Release(availabilityID, day, slot.StartTime, slot.EndTime); err != nil {
					log.Printf("reconcile: free orphan slot %s %s %s-%s: %v", availabilityID, day, slot.StartTime, slot.EndTime, err)
					continue
				}
				log.Printf("reconcile: freed orphan slot %s %s %s-%s", availabilityID, day, slot.StartTime, slot.EndTime)
				freed++
			}
		}
		return nil
	})

	return freed, err
}

// templateIDs collects the distinct availability ids referenced by the
// doctor directory.
func (s *Service) templateIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, d := range s.dir.Doctors("", "") {
		if _, ok := seen[d.AvailabilityID]; ok {
			continue
		}
		seen[d.AvailabilityID] = struct{}{}
		ids = append(ids, d.AvailabilityID)
	}
	return ids
}

func slotKey(day, startTime, endTime string) string {
	return day + "|" + startTime + "|" + endTime
}
