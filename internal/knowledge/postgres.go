package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads and maintains the knowledge base in PostgreSQL.
type PostgresStore struct {
	pool    *pgxpool.Pool
	ownPool bool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, ownPool: true}, nil
}

// NewPostgresStoreWithPool wraps an existing pool shared with the history store.
func NewPostgresStoreWithPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if err := initSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			school_id BIGINT REFERENCES schools(id)
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(10,2) NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS referral_faqs (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS referral_rules (
			id BIGSERIAL PRIMARY KEY,
			rule_description TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	var schoolName *string
	err := s.pool.QueryRow(ctx,
		`SELECT u.id, u.name, u.email, sc.name
		 FROM users u LEFT JOIN schools sc ON u.school_id = sc.id
		 WHERE u.id = $1`,
		userID,
	).Scan(&p.ID, &p.Name, &p.Email, &schoolName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("%w: get user: %v", ErrUnavailable, err)
	}
	if schoolName != nil {
		p.SchoolName = *schoolName
	}
	return p, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, sc.name
		 FROM users u LEFT JOIN schools sc ON u.school_id = sc.id
		 ORDER BY u.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var users []Profile
	for rows.Next() {
		var p Profile
		var schoolName *string
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &schoolName); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		if schoolName != nil {
			p.SchoolName = *schoolName
		}
		users = append(users, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate user rows: %v", ErrUnavailable, err)
	}
	return users, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, price FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate product rows: %v", ErrUnavailable, err)
	}
	return products, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, price FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("%w: get product: %v", ErrUnavailable, err)
	}
	return p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, description, price`,
		p.Name, p.Description, p.Price,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price)
	if err != nil {
		return Product{}, fmt.Errorf("%w: create product: %v", ErrUnavailable, err)
	}
	return p, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	err := s.pool.QueryRow(ctx,
		`UPDATE products SET name = $1, description = $2, price = $3
		 WHERE id = $4
		 RETURNING id, name, description, price`,
		p.Name, p.Description, p.Price, p.ID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %d: %w", p.ID, ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("%w: update product: %v", ErrUnavailable, err)
	}
	return p, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete product: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListFAQs(ctx context.Context) ([]FAQ, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, question, answer FROM referral_faqs ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list faqs: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var faqs []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer); err != nil {
			return nil, fmt.Errorf("scan faq row: %w", err)
		}
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate faq rows: %v", ErrUnavailable, err)
	}
	return faqs, nil
}

func (s *PostgresStore) GetFAQ(ctx context.Context, id int64) (FAQ, error) {
	var f FAQ
	err := s.pool.QueryRow(ctx,
		`SELECT id, question, answer FROM referral_faqs WHERE id = $1`, id,
	).Scan(&f.ID, &f.Question, &f.Answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return FAQ{}, fmt.Errorf("faq %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return FAQ{}, fmt.Errorf("%w: get faq: %v", ErrUnavailable, err)
	}
	return f, nil
}

func (s *PostgresStore) CreateFAQ(ctx context.Context, f FAQ) (FAQ, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO referral_faqs (question, answer)
		 VALUES ($1, $2)
		 RETURNING id, question, answer`,
		f.Question, f.Answer,
	).Scan(&f.ID, &f.Question, &f.Answer)
	if err != nil {
		return FAQ{}, fmt.Errorf("%w: create faq: %v", ErrUnavailable, err)
	}
	return f, nil
}

func (s *PostgresStore) UpdateFAQ(ctx context.Context, f FAQ) (FAQ, error) {
	err := s.pool.QueryRow(ctx,
		`UPDATE referral_faqs SET question = $1, answer = $2
		 WHERE id = $3
		 RETURNING id, question, answer`,
		f.Question, f.Answer, f.ID,
	).Scan(&f.ID, &f.Question, &f.Answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return FAQ{}, fmt.Errorf("faq %d: %w", f.ID, ErrNotFound)
	}
	if err != nil {
		return FAQ{}, fmt.Errorf("%w: update faq: %v", ErrUnavailable, err)
	}
	return f, nil
}

func (s *PostgresStore) DeleteFAQ(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM referral_faqs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete faq: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("faq %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rule_description FROM referral_rules ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list rules: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.Description); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rule rows: %v", ErrUnavailable, err)
	}
	return rules, nil
}

func (s *PostgresStore) CreateRule(ctx context.Context, r Rule) (Rule, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO referral_rules (rule_description)
		 VALUES ($1)
		 RETURNING id, rule_description`,
		r.Description,
	).Scan(&r.ID, &r.Description)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: create rule: %v", ErrUnavailable, err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateRule(ctx context.Context, r Rule) (Rule, error) {
	err := s.pool.QueryRow(ctx,
		`UPDATE referral_rules SET rule_description = $1
		 WHERE id = $2
		 RETURNING id, rule_description`,
		r.Description, r.ID,
	).Scan(&r.ID, &r.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, fmt.Errorf("rule %d: %w", r.ID, ErrNotFound)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("%w: update rule: %v", ErrUnavailable, err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteRule(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM referral_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete rule: %v", ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.ownPool {
		s.pool.Close()
	}
	return nil
}
