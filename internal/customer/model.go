package customer

import "time"

// Address is a billing address row.
type Address struct {
	ID         string `json:"id"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Customer is a company billing profile. At most one row exists per
// (user_id, email) pair; it is reused across orders.
type Customer struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	CompanyName      string    `json:"company_name"`
	NIP              string    `json:"nip"`
	REGON            *string   `json:"regon,omitempty"`
	KRS              *string   `json:"krs,omitempty"`
	ContactFirstName string    `json:"contact_first_name"`
	ContactLastName  string    `json:"contact_last_name"`
	ContactPhone     string    `json:"contact_phone"`
	ContactPosition  *string   `json:"contact_position,omitempty"`
	AddressID        *string   `json:"address_id,omitempty"`
	StripeCustomerID *string   `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ContactName joins the contact person's first and last name.
func (c *Customer) ContactName() string {
	return c.ContactFirstName + " " + c.ContactLastName
}

// Profile is the customer joined with its address, as shown on the
// checkout form and the account panel.
type Profile struct {
	Customer
	Address *Address `json:"address,omitempty"`
}
