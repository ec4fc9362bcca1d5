// Package customer provides the repository for billing profiles
// (customers + addresses) and the admin-user lookup.
package customer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sklep-tm/storefront/internal/db"
)

var ErrNotFound = errors.New("customer not found")

type Repository interface {
	CreateAddress(ctx context.Context, a *Address) error
	FindByUserEmail(ctx context.Context, userID, email string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	SetStripeCustomerID(ctx context.Context, customerID, stripeCustomerID string) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, userID, email string, c *Customer, a *Address) error
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type PGRepo struct{ db db.Querier }

func NewPGRepo(q db.Querier) *PGRepo { return &PGRepo{db: q} }

const customerColumns = `
	id, user_id, email, company_name, nip, regon, krs,
	contact_first_name, contact_last_name, contact_phone, contact_position,
	address_id, stripe_customer_id, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.UserID, &c.Email, &c.CompanyName, &c.NIP, &c.REGON, &c.KRS,
		&c.ContactFirstName, &c.ContactLastName, &c.ContactPhone, &c.ContactPosition,
		&c.AddressID, &c.StripeCustomerID, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) CreateAddress(ctx context.Context, a *Address) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Country == "" {
		a.Country = "PL"
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO addresses (id, street, city, postal_code, country)
		VALUES ($1,$2,$3,$4,$5)
	`, a.ID, a.Street, a.City, a.PostalCode, a.Country)
	return err
}

func (r *PGRepo) FindByUserEmail(ctx context.Context, userID, email string) (*Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c, err := scanCustomer(r.db.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers WHERE user_id=$1 AND email=$2
		LIMIT 1
	`, userID, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PGRepo) Create(ctx context.Context, c *Customer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO customers (
			id, user_id, email, company_name, nip, regon, krs,
			contact_first_name, contact_last_name, contact_phone, contact_position, address_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at
	`, c.ID, c.UserID, c.Email, c.CompanyName, c.NIP, c.REGON, c.KRS,
		c.ContactFirstName, c.ContactLastName, c.ContactPhone, c.ContactPosition, c.AddressID,
	).Scan(&c.CreatedAt)
}

func (r *PGRepo) SetStripeCustomerID(ctx context.Context, customerID, stripeCustomerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE customers SET stripe_customer_id=$2 WHERE id=$1
	`, customerID, stripeCustomerID)
	return err
}

func (r *PGRepo) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c, err := scanCustomer(r.db.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers WHERE user_id=$1
		ORDER BY created_at LIMIT 1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p := &Profile{Customer: *c}
	if c.AddressID != nil {
		var a Address
		err := r.db.QueryRow(ctx, `
			SELECT id, street, city, postal_code, country
			FROM addresses WHERE id=$1
		`, *c.AddressID).Scan(&a.ID, &a.Street, &a.City, &a.PostalCode, &a.Country)
		if err == nil {
			p.Address = &a
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}
	return p, nil
}

// UpsertProfile updates the existing customer+address for (userID,
// email) or creates both when absent.
func (r *PGRepo) UpsertProfile(ctx context.Context, userID, email string, c *Customer, a *Address) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	existing, err := r.FindByUserEmail(ctx, userID, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing == nil {
		if err := r.CreateAddress(ctx, a); err != nil {
			return err
		}
		c.UserID = userID
		c.Email = email
		c.AddressID = &a.ID
		return r.Create(ctx, c)
	}

	if existing.AddressID != nil {
		a.ID = *existing.AddressID
		if _, err := r.db.Exec(ctx, `
			UPDATE addresses SET street=$2, city=$3, postal_code=$4, country=$5 WHERE id=$1
		`, a.ID, a.Street, a.City, a.PostalCode, a.Country); err != nil {
			return err
		}
	} else {
		if err := r.CreateAddress(ctx, a); err != nil {
			return err
		}
	}

	_, err = r.db.Exec(ctx, `
		UPDATE customers SET
			company_name=$2, nip=$3, regon=$4, krs=$5,
			contact_first_name=$6, contact_last_name=$7, contact_phone=$8, contact_position=$9,
			address_id=$10
		WHERE id=$1
	`, existing.ID, c.CompanyName, c.NIP, c.REGON, c.KRS,
		c.ContactFirstName, c.ContactLastName, c.ContactPhone, c.ContactPosition, a.ID)
	return err
}

func (r *PGRepo) IsAdmin(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM admin_users WHERE user_id=$1`, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
