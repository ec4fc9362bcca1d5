// Package catalog provides the repository interface and PostgreSQL
// implementation for the services catalog and UD codes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sklep-tm/storefront/internal/db"
)

var (
	ErrNotFound = errors.New("service not found")
)

type Repository interface {
	ListActive(ctx context.Context) ([]Service, error)
	GetByID(ctx context.Context, id string) (*Service, error)
	Create(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id string) (bool, error)
	CreateUDCode(ctx context.Context, name string) (*UDCode, error)
	ListUDCodes(ctx context.Context) ([]UDCode, error)
}

type PGRepo struct{ db db.Querier }

func NewPGRepo(q db.Querier) *PGRepo { return &PGRepo{db: q} }

const serviceColumns = `
	id, name, slug, description, full_description, category,
	price::text, currency, vat_rate::text, price_includes_vat, is_active,
	deliverables, overview, overview_points, steps, requirements,
	ud_code, start_time, finish_time, image_url, created_at, updated_at`

func scanService(row interface{ Scan(dest ...any) error }) (*Service, error) {
	var (
		s          Service
		price, vat string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Slug, &s.Description, &s.FullDescription, &s.Category,
		&price, &s.Currency, &vat, &s.PriceIncludesVAT, &s.IsActive,
		&s.Deliverables, &s.Overview, &s.OverviewPoints, &s.Steps, &s.Requirements,
		&s.UDCode, &s.StartTime, &s.FinishTime, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	if s.VATRate, err = decimal.NewFromString(vat); err != nil {
		return nil, fmt.Errorf("parse vat_rate: %w", err)
	}
	return &s, nil
}

func (r *PGRepo) ListActive(ctx context.Context) ([]Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services WHERE is_active = TRUE
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s, err := scanService(r.db.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services WHERE id=$1
	`, id))
	if err != nil {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *PGRepo) Create(ctx context.Context, s *Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO services (
			id, name, slug, description, full_description, category,
			price, currency, vat_rate, price_includes_vat, is_active,
			deliverables, overview, overview_points, steps, requirements,
			ud_code, start_time, finish_time, image_url, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,NOW(),NOW())
	`, s.ID, s.Name, s.Slug, s.Description, s.FullDescription, s.Category,
		s.Price.String(), s.Currency, s.VATRate.String(), s.PriceIncludesVAT, s.IsActive,
		s.Deliverables, s.Overview, s.OverviewPoints, s.Steps, s.Requirements,
		s.UDCode, s.StartTime, s.FinishTime, s.ImageURL)
	return err
}

func (r *PGRepo) Update(ctx context.Context, s *Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE services SET
			name=$2, slug=$3, description=$4, full_description=$5, category=$6,
			price=$7, currency=$8, vat_rate=$9, price_includes_vat=$10, is_active=$11,
			deliverables=$12, overview=$13, overview_points=$14, steps=$15, requirements=$16,
			ud_code=$17, start_time=$18, finish_time=$19, image_url=$20, updated_at=NOW()
		WHERE id=$1
	`, s.ID, s.Name, s.Slug, s.Description, s.FullDescription, s.Category,
		s.Price.String(), s.Currency, s.VATRate.String(), s.PriceIncludesVAT, s.IsActive,
		s.Deliverables, s.Overview, s.OverviewPoints, s.Steps, s.Requirements,
		s.UDCode, s.StartTime, s.FinishTime, s.ImageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepo) CreateUDCode(ctx context.Context, name string) (*UDCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	var c UDCode
	err := r.db.QueryRow(ctx, `
		INSERT INTO ud_codes (name) VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) ListUDCodes(ctx context.Context) ([]UDCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM ud_codes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UDCode
	for rows.Next() {
		var c UDCode
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
