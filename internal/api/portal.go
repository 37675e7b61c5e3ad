package api

import (
	"context"
	"net/url"
	"strconv"
)

// PasswordPolicy is the server-enforced policy document, fetched for display
// only. The client never evaluates these rules itself beyond the fixed
// minimum-length gate in the change flow.
type PasswordPolicy struct {
	MinLength        int  `json:"min_length"`
	RequireUpper     bool `json:"require_upper"`
	RequireLower     bool `json:"require_lower"`
	RequireDigit     bool `json:"require_digit"`
	RequireSpecial   bool `json:"require_special"`
	History          int  `json:"history"`
	MaxLoginAttempts int  `json:"max_login_attempts"`
	LockoutMinutes   int  `json:"lockout_minutes"`
}

// Customer is a customer record as the dashboard sees it.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// CustomerPage is one page of search results.
type CustomerPage struct {
	Items []Customer `json:"items"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Total int        `json:"total"`
}

// Policy fetches the password policy document.
func (c *Client) Policy(ctx context.Context) (PasswordPolicy, error) {
	var out PasswordPolicy
	if err := c.get(ctx, "/api/policy", nil, &out); err != nil {
		return PasswordPolicy{}, err
	}
	return out, nil
}

// SearchCustomers runs a paged customer search. Requires an active session.
func (c *Client) SearchCustomers(ctx context.Context, q string, page, size int) (CustomerPage, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var out CustomerPage
	if err := c.get(ctx, "/api/customers/search", query, &out); err != nil {
		return CustomerPage{}, err
	}
	return out, nil
}

// CreateCustomer creates a customer record. Requires an active session.
func (c *Client) CreateCustomer(ctx context.Context, cust Customer) (Customer, error) {
	var out Customer
	err := c.post(ctx, "/api/customers", map[string]string{
		"name":  cust.Name,
		"email": cust.Email,
		"phone": cust.Phone,
		"notes": cust.Notes,
	}, &out)
	if err != nil {
		return Customer{}, err
	}
	return out, nil
}
