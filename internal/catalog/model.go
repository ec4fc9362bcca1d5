package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a purchasable consulting service from the catalog.
type Service struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description,omitempty"`
	FullDescription  string          `json:"full_description,omitempty"`
	Category         string          `json:"category"`
	Price            decimal.Decimal `json:"price"`
	Currency         string          `json:"currency"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	PriceIncludesVAT bool            `json:"price_includes_vat"`
	IsActive         bool            `json:"is_active"`
	Deliverables     []string        `json:"deliverables"`
	Overview         string          `json:"overview,omitempty"`
	OverviewPoints   []string        `json:"overview_points"`
	Steps            []string        `json:"steps"`
	Requirements     []string        `json:"requirements"`
	UDCode           *int            `json:"ud_code"`
	StartTime        *string         `json:"start_time"`
	FinishTime       *string         `json:"finish_time"`
	ImageURL         *string         `json:"image_url"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// UDCode is an internal classification code attachable to services.
type UDCode struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertServiceRequest is the admin payload for creating or updating a service.
type UpsertServiceRequest struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Description      string   `json:"description"`
	FullDescription  string   `json:"full_description"`
	Category         string   `json:"category"`
	Price            string   `json:"price"`
	Currency         string   `json:"currency"`
	VATRate          string   `json:"vat_rate"`
	PriceIncludesVAT bool     `json:"price_includes_vat"`
	IsActive         bool     `json:"is_active"`
	Deliverables     []string `json:"deliverables"`
	Overview         string   `json:"overview"`
	OverviewPoints   []string `json:"overview_points"`
	Steps            []string `json:"steps"`
	Requirements     []string `json:"requirements"`
	UDCode           *int     `json:"ud_code"`
	StartTime        *string  `json:"start_time"`
	FinishTime       *string  `json:"finish_time"`
	ImageURL         *string  `json:"image_url"`
}
