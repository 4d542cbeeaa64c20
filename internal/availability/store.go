package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

var (
	ErrTemplateNotFound = errors.New("availability template not found")
	ErrSlotNotFound     = errors.New("no weekly slot at that day and time")
	ErrSlotBooked       = errors.New("slot already booked")
)

// Store is the availability ledger: weekly slot grids keyed by availability
// id, with atomic check-then-flip operations. Implementations persist every
// status change before reporting success.
type Store interface {
	Grid(availabilityID string) (WeekGrid, error)

	// TryBook flips the slot to booked. Fails with ErrSlotBooked without
	// mutating anything if the slot is already taken.
	TryBook(availabilityID, day, startTime, endTime string) error

	// Release flips the slot back to available. Releasing an already free
	// slot is a no-op.
	Release(availabilityID, day, startTime, endTime string) error
}

// FileStore keeps all grids in memory and rewrites the whole backing JSON
// file after every mutation. A single mutex serializes mutations; the Redis
// template lock serializes them across processes.
type FileStore struct {
	path string

	mu    sync.Mutex
	grids map[string]WeekGrid
}

// NewFileStore loads the template file and rejects duplicate (start,end)
// pairs within a day, since slot identity is positional and the resolver
// returns the first match.
func NewFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read availability file: %w", err)
	}

	grids := make(map[string]WeekGrid)
	if err := json.Unmarshal(data, &grids); err != nil {
		return nil, fmt.Errorf("parse availability file: %w", err)
	}

	for id, grid := range grids {
		for day, slots := range grid {
			seen := make(map[string]struct{}, len(slots))
			for _, slot := range slots {
				key := slot.StartTime + "-" + slot.EndTime
				if _, dup := seen[key]; dup {
					return nil, fmt.Errorf("template %s: duplicate slot %s on %s", id, key, day)
				}
				seen[key] = struct{}{}
			}
		}
	}

	return &FileStore{path: path, grids: grids}, nil
}

func (s *FileStore) Grid(availabilityID string) (WeekGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, ok := s.grids[availabilityID]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return grid.Clone(), nil
}

func (s *FileStore) TryBook(availabilityID, day, startTime, endTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slotLocked(availabilityID, day, startTime, endTime)
	if err != nil {
		return err
	}
	if slot.Status == StatusBooked {
		return ErrSlotBooked
	}

	slot.Status = StatusBooked
	if err := s.persistLocked(); err != nil {
		slot.Status = StatusAvailable
		return err
	}
	return nil
}

func (s *FileStore) Release(availabilityID, day, startTime, endTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slotLocked(availabilityID, day, startTime, endTime)
	if err != nil {
		return err
	}
	if slot.Status == StatusAvailable {
		return nil
	}

	slot.Status = StatusAvailable
	if err := s.persistLocked(); err != nil {
		slot.Status = StatusBooked
		return err
	}
	return nil
}

// slotLocked resolves a slot in place. First match wins, matching the
// (day, start, end) identity rule.
func (s *FileStore) slotLocked(availabilityID, day, startTime, endTime string) (*Slot, error) {
	grid, ok := s.grids[availabilityID]
	if !ok {
		return nil, ErrTemplateNotFound
	}

	slots, ok := grid[day]
	if !ok {
		return nil, ErrSlotNotFound
	}

	for i := range slots {
		if slots[i].StartTime == startTime && slots[i].EndTime == endTime {
			return &slots[i], nil
		}
	}
	return nil, ErrSlotNotFound
}

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.grids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write availability file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace availability file: %w", err)
	}
	return nil
}
