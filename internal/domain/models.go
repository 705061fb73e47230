package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary strips the user down to what listing exposes.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Roles}
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

type Franchise struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	AdminIDs  []int64   `json:"admin_ids"`
	Stores    []Store   `json:"stores"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the ownership descriptor used by Authorize.
func (f Franchise) Ref() *FranchiseRef {
	return &FranchiseRef{ID: f.ID, AdminUserIDs: f.AdminIDs}
}

type Store struct {
	ID          int64     `json:"id"`
	FranchiseID int64     `json:"franchise_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s Store) Ref() *StoreRef {
	return &StoreRef{FranchiseID: s.FranchiseID}
}

type MenuItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

type OrderItem struct {
	MenuID      int64   `json:"menu_id"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID          int64       `json:"id"`
	DinerID     int64       `json:"diner_id"`
	FranchiseID int64       `json:"franchise_id"`
	StoreID     int64       `json:"store_id"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (o Order) Ref() *OrderRef {
	return &OrderRef{OwnerUserID: o.DinerID}
}

// Ownership descriptors consumed by Authorize. A nil descriptor means the
// resource could not be found.

type UserRef struct {
	ID int64
}

type OrderRef struct {
	OwnerUserID int64
}

type FranchiseRef struct {
	ID           int64
	AdminUserIDs []int64
}

type StoreRef struct {
	FranchiseID int64
}
