package web

import "github.com/ayush/mining-tracker/internal/models"

// FormPage feeds the login and register templates. Form holds the
// submitted values so a failed submit re-renders with them filled in.
type FormPage struct {
	Flash *Flash
	Form  map[string]string
}

// DashboardPage feeds the dashboard template.
type DashboardPage struct {
	Flash    *Flash
	Username string
	Records  []models.MiningRecord
}
