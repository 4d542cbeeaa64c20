package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/clinicgrid/hospital-booking/internal/availability"
	"github.com/clinicgrid/hospital-booking/internal/db"
	"github.com/clinicgrid/hospital-booking/internal/directory"
)

// seed generates the reference-data JSON files the api-server loads at
// startup: hospitals, specializations, doctors and one availability grid
// per doctor group. With POSTGRES_DSN set it also empties the bookings
// table so the slot grids and the booking ledger start out consistent.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	specializations := seedSpecializations()
	hospitals := seedHospitals(specializations)
	doctors, grids := seedDoctors(hospitals, specializations)

	writeJSON(filepath.Join(dataDir, "specializations.json"), specializations)
	writeJSON(filepath.Join(dataDir, "hospitals.json"), hospitals)
	writeJSON(filepath.Join(dataDir, "doctors.json"), doctors)
	writeJSON(filepath.Join(dataDir, "availability.json"), grids)

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		resetBookings(dsn)
	} else {
		log.Println("POSTGRES_DSN not set, skipping bookings reset")
	}

	log.Println("seed complete")
}

func seedSpecializations() []directory.Specialization {
	names := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	specs := make([]directory.Specialization, 0, len(names))
	for i, name := range names {
		specs = append(specs, directory.Specialization{
			ID:   fmt.Sprintf("spec-%02d", i+1),
			Name: name,
		})
	}
	return specs
}

func seedHospitals(specs []directory.Specialization) []directory.Hospital {
	const hospitalCount = 8

	hospitals := make([]directory.Hospital, 0, hospitalCount)
	for i := 0; i < hospitalCount; i++ {
		branchCount := gofakeit.Number(1, 3)
		branches := make([]directory.Branch, 0, branchCount)
		for j := 0; j < branchCount; j++ {
			specCount := gofakeit.Number(2, 5)
			ids := make([]string, 0, specCount)
			seen := make(map[string]struct{}, specCount)
			for len(ids) < specCount {
				id := specs[gofakeit.Number(0, len(specs)-1)].ID
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
			branches = append(branches, directory.Branch{
				ID:                fmt.Sprintf("branch-%02d-%d", i+1, j+1),
				Name:              gofakeit.Street(),
				SpecializationIDs: ids,
			})
		}

		hospitals = append(hospitals, directory.Hospital{
			ID:       fmt.Sprintf("hosp-%02d", i+1),
			Name:     gofakeit.LastName() + " Hospital",
			City:     gofakeit.City(),
			Branches: branches,
		})
	}

	log.Printf("seeded %d hospitals", len(hospitals))
	return hospitals
}

func seedDoctors(hospitals []directory.Hospital, specs []directory.Specialization) ([]directory.Doctor, map[string]availability.WeekGrid) {
	const doctorsPerBranch = 4

	var doctors []directory.Doctor
	grids := make(map[string]availability.WeekGrid)

	n := 0
	for _, h := range hospitals {
		for _, b := range h.Branches {
			for i := 0; i < doctorsPerBranch; i++ {
				n++
				availabilityID := fmt.Sprintf("avail-%03d", n)
				doctors = append(doctors, directory.Doctor{
					ID:               fmt.Sprintf("doc-%03d", n),
					Name:             "Dr. " + gofakeit.Name(),
					SpecializationID: b.SpecializationIDs[gofakeit.Number(0, len(b.SpecializationIDs)-1)],
					BranchID:         b.ID,
					AvailabilityID:   availabilityID,
				})
				grids[availabilityID] = weekGrid()
			}
		}
	}

	log.Printf("seeded %d doctors with %d availability templates", len(doctors), len(grids))
	return doctors, grids
}

// weekGrid builds hourly slots on weekdays, mornings only on Saturday,
// nothing on Sunday.
func weekGrid() availability.WeekGrid {
	grid := availability.WeekGrid{}
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	for _, day := range weekdays {
		grid[day] = hourlySlots(9, 17)
	}
	grid["Saturday"] = hourlySlots(9, 12)

	return grid
}

func hourlySlots(fromHour, toHour int) []availability.Slot {
	slots := make([]availability.Slot, 0, toHour-fromHour)
	for h := fromHour; h < toHour; h++ {
		slots = append(slots, availability.Slot{
			StartTime: fmt.Sprintf("%02d:00", h),
			EndTime:   fmt.Sprintf("%02d:00", h+1),
			Status:    availability.StatusAvailable,
		})
	}
	return slots
}

func writeJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
	log.Printf("wrote %s", path)
}

func resetBookings(dsn string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `TRUNCATE bookings RESTART IDENTITY`); err != nil {
		log.Fatalf("truncate bookings: %v", err)
	}
	log.Println("bookings table reset")
}
