// Package types provides core data types for fetchbench.
package types

// Customer is the synthetic record under benchmark.
type Customer struct {
	// ID is assigned by the backing store on insert
	ID int64 `json:"id" db:"id"`

	// FirstName holds a random token generated at seed time
	FirstName string `json:"first_name" db:"first_name"`

	// LastName holds a second, independent random token
	LastName string `json:"last_name" db:"last_name"`
}

// Clone returns a detached copy of the customer.
func (c *Customer) Clone() *Customer {
	cp := *c
	return &cp
}
