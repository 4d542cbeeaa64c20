package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// Store holds the static hospital directory: hospitals with their branches,
// specializations and doctors. Loaded once at startup, read-only afterwards.
type Store struct {
	hospitals       []Hospital
	specializations []Specialization
	doctors         []Doctor
	doctorByID      map[string]*Doctor
	specByID        map[string]*Specialization
}

func New(hospitals []Hospital, specializations []Specialization, doctors []Doctor) *Store {
	s := &Store{
		hospitals:       hospitals,
		specializations: specializations,
		doctors:         doctors,
		doctorByID:      make(map[string]*Doctor, len(doctors)),
		specByID:        make(map[string]*Specialization, len(specializations)),
	}
	for i := range s.doctors {
		s.doctorByID[s.doctors[i].ID] = &s.doctors[i]
	}
	for i := range s.specializations {
		s.specByID[s.specializations[i].ID] = &s.specializations[i]
	}
	return s
}

// Load reads hospitals.json, specializations.json and doctors.json from dir.
func Load(dir string) (*Store, error) {
	var hospitals []Hospital
	if err := readJSON(filepath.Join(dir, "hospitals.json"), &hospitals); err != nil {
		return nil, err
	}

	var specializations []Specialization
	if err := readJSON(filepath.Join(dir, "specializations.json"), &specializations); err != nil {
		return nil, err
	}

	var doctors []Doctor
	if err := readJSON(filepath.Join(dir, "doctors.json"), &doctors); err != nil {
		return nil, err
	}

	return New(hospitals, specializations, doctors), nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Hospitals filters by city (case-insensitive exact match) and by
// specialization id. A specialization filter narrows each hospital's branch
// list to branches offering it; hospitals left with no branches are dropped.
func (s *Store) Hospitals(city, specializationID string) []Hospital {
	result := make([]Hospital, 0, len(s.hospitals))

	for _, h := range s.hospitals {
		if city != "" && !strings.EqualFold(h.City, city) {
			continue
		}

		if specializationID == "" {
			result = append(result, h)
			continue
		}

		var branches []Branch
		for _, b := range h.Branches {
			for _, id := range b.SpecializationIDs {
				if id == specializationID {
					branches = append(branches, b)
					break
				}
			}
		}
		if len(branches) == 0 {
			continue
		}

		filtered := h
		filtered.Branches = branches
		result = append(result, filtered)
	}

	return result
}

func (s *Store) Specializations() []Specialization {
	return s.specializations
}

// Doctors filters by branch id and/or specialization id; empty filters match all.
func (s *Store) Doctors(branchID, specializationID string) []Doctor {
	result := make([]Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		if branchID != "" && d.BranchID != branchID {
			continue
		}
		if specializationID != "" && d.SpecializationID != specializationID {
			continue
		}
		result = append(result, d)
	}
	return result
}

func (s *Store) DoctorByID(id string) (*Doctor, error) {
	d, ok := s.doctorByID[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

// SpecializationName resolves a specialization id to its display name,
// falling back to the id itself when unknown.
func (s *Store) SpecializationName(id string) string {
	if sp, ok := s.specByID[id]; ok {
		return sp.Name
	}
	return id
}

// BranchName resolves a branch id across all hospitals.
func (s *Store) BranchName(id string) string {
	for _, h := range s.hospitals {
		for _, b := range h.Branches {
			if b.ID == id {
				return b.Name
			}
		}
	}
	return id
}
