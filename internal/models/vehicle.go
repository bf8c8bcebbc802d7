package models

// Vehicle is a fleet vehicle assigned to a worker.
type Vehicle struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	PlateNumber    string `json:"plate_number"`
	AssignedUserID int    `json:"assigned_user_id"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// VehicleLog is a monthly usage record for one vehicle.
type VehicleLog struct {
	ID              int     `json:"id"`
	VehicleID       int     `json:"vehicle_id"`
	Month           string  `json:"month"`
	Kilometers      float64 `json:"kilometers"`
	FuelLiters      float64 `json:"fuel_liters"`
	MaintenanceCost float64 `json:"maintenance_cost"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}
