package knowledge

import (
	"context"
	"errors"
)

// Profile is a user record with the school linked at signup, if any.
type Profile struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
}

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type FAQ struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Rule struct {
	ID          int64  `json:"id"`
	Description string `json:"rule"`
}

// Snapshot is the request-scoped aggregate used to ground a single chat
// request. It is fetched fresh per request; staleness window is one request.
type Snapshot struct {
	Profile  Profile
	Products []Product
	FAQs     []FAQ
	Rules    []Rule
}

var (
	// ErrNotFound reports that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable reports that the backing store could not be reached.
	ErrUnavailable = errors.New("knowledge store unavailable")
)

// Store reads and maintains the catalog and referral knowledge base.
// The chat core only reads; the CRUD operations serve the admin API.
type Store interface {
	GetUser(ctx context.Context, userID int64) (Profile, error)
	ListUsers(ctx context.Context) ([]Profile, error)

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListFAQs(ctx context.Context) ([]FAQ, error)
	GetFAQ(ctx context.Context, id int64) (FAQ, error)
	CreateFAQ(ctx context.Context, f FAQ) (FAQ, error)
	UpdateFAQ(ctx context.Context, f FAQ) (FAQ, error)
	DeleteFAQ(ctx context.Context, id int64) error

	ListRules(ctx context.Context) ([]Rule, error)
	CreateRule(ctx context.Context, r Rule) (Rule, error)
	UpdateRule(ctx context.Context, r Rule) (Rule, error)
	DeleteRule(ctx context.Context, id int64) error

	Close() error
}

// TakeSnapshot gathers everything needed to ground one chat request.
func TakeSnapshot(ctx context.Context, s Store, userID int64) (Snapshot, error) {
	profile, err := s.GetUser(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	products, err := s.ListProducts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	faqs, err := s.ListFAQs(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	rules, err := s.ListRules(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Profile: profile, Products: products, FAQs: faqs, Rules: rules}, nil
}
