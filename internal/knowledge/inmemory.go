package knowledge

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore is an in-process knowledge base for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	users    map[int64]Profile
	products map[int64]Product
	faqs     map[int64]FAQ
	rules    map[int64]Rule
	nextID   int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:    make(map[int64]Profile),
		products: make(map[int64]Product),
		faqs:     make(map[int64]FAQ),
		rules:    make(map[int64]Rule),
		nextID:   1,
	}
}

// AddUser seeds a profile. Users have no CRUD surface; the original system
// provisions them out of band.
func (s *InMemoryStore) AddUser(p Profile) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID
		s.nextID++
	}
	s.users[p.ID] = p
	return p
}

func (s *InMemoryStore) GetUser(_ context.Context, userID int64) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[userID]
	if !ok {
		return Profile{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryStore) ListUsers(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]Profile, 0, len(s.users))
	for _, p := range s.users {
		users = append(users, p)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *InMemoryStore) ListProducts(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *InMemoryStore) GetProduct(_ context.Context, id int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryStore) CreateProduct(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.products[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) UpdateProduct(_ context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return Product{}, fmt.Errorf("product %d: %w", p.ID, ErrNotFound)
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	delete(s.products, id)
	return nil
}

func (s *InMemoryStore) ListFAQs(_ context.Context) ([]FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	faqs := make([]FAQ, 0, len(s.faqs))
	for _, f := range s.faqs {
		faqs = append(faqs, f)
	}
	sort.Slice(faqs, func(i, j int) bool { return faqs[i].ID < faqs[j].ID })
	return faqs, nil
}

func (s *InMemoryStore) GetFAQ(_ context.Context, id int64) (FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.faqs[id]
	if !ok {
		return FAQ{}, fmt.Errorf("faq %d: %w", id, ErrNotFound)
	}
	return f, nil
}

func (s *InMemoryStore) CreateFAQ(_ context.Context, f FAQ) (FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.nextID
	s.nextID++
	s.faqs[f.ID] = f
	return f, nil
}

func (s *InMemoryStore) UpdateFAQ(_ context.Context, f FAQ) (FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faqs[f.ID]; !ok {
		return FAQ{}, fmt.Errorf("faq %d: %w", f.ID, ErrNotFound)
	}
	s.faqs[f.ID] = f
	return f, nil
}

func (s *InMemoryStore) DeleteFAQ(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.faqs[id]; !ok {
		return fmt.Errorf("faq %d: %w", id, ErrNotFound)
	}
	delete(s.faqs, id)
	return nil
}

func (s *InMemoryStore) ListRules(_ context.Context) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (s *InMemoryStore) CreateRule(_ context.Context, r Rule) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.rules[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) UpdateRule(_ context.Context, r Rule) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; !ok {
		return Rule{}, fmt.Errorf("rule %d: %w", r.ID, ErrNotFound)
	}
	s.rules[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) DeleteRule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	delete(s.rules, id)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
