package directory

// Branch is one site of a hospital. It carries the specializations it
// offers so hospital filtering can narrow by specialization id.
type Branch struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	SpecializationIDs []string `json:"specializationIds"`
}

type Hospital struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	City     string   `json:"city"`
	Branches []Branch `json:"branches"`
}

type Specialization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Doctor is immutable reference data. AvailabilityID points at the weekly
// slot template; several doctors may share one template.
type Doctor struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	SpecializationID string `json:"specializationId"`
	BranchID         string `json:"branchId"`
	AvailabilityID   string `json:"availabilityId"`
}
