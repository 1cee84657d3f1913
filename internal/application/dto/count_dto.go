package dto

import "time"

// CountLine línea de la planilla de conteo.
type CountLine struct {
	PartID   string `json:"part_id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Quantity int    `json:"quantity"`
}

// StartCountResponse sesión de conteo iniciada con la foto de cantidades.
type StartCountResponse struct {
	SessionID string      `json:"session_id"`
	StartedAt time.Time   `json:"started_at"`
	Lines     []CountLine `json:"lines"`
}

// FinishCountRequest cantidades contadas por pieza. Las piezas ausentes no cambian.
type FinishCountRequest struct {
	Counts map[string]int `json:"counts" validate:"required"`
}

// FinishCountResponse resultado de la conciliación.
type FinishCountResponse struct {
	SessionID    string       `json:"session_id"`
	NoDivergence bool         `json:"no_divergence"`
	Applied      []ItemResult `json:"applied"`
	Failed       []ItemResult `json:"failed"`
	Drifted      []string     `json:"drifted,omitempty"` // piezas que cambiaron desde el inicio del conteo
}
