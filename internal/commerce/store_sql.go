package commerce

import (
	"context"
	"database/sql"
	"errors"
)

type Store interface {
	PutProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)

	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, userID string) ([]Order, error)
	SetOrderStatus(ctx context.Context, id, status, providerRef string) error
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutProduct(ctx context.Context, p Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id,title,description,price_cents,currency,image_url,active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			price_cents=EXCLUDED.price_cents, currency=EXCLUDED.currency,
			image_url=EXCLUDED.image_url, active=EXCLUDED.active`,
		p.ID, p.Title, p.Description, p.PriceCents, p.Currency, p.ImageURL, p.Active)
	return err
}

func (s *SQLStore) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,price_cents,currency,image_url,active FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.Currency, &p.ImageURL, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *SQLStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,description,price_cents,currency,image_url,active FROM products WHERE active=$1 ORDER BY title`, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.Currency, &p.ImageURL, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateOrder(ctx context.Context, o Order) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id,user_id,product_id,amount_cents,currency,status,provider_ref,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.UserID, o.ProductID, o.AmountCents, o.Currency, o.Status, o.ProviderRef, o.CreatedAt)
	return err
}

func (s *SQLStore) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	err := s.db.QueryRowContext(ctx,
		`SELECT id,user_id,product_id,amount_cents,currency,status,provider_ref,created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.ProductID, &o.AmountCents, &o.Currency, &o.Status, &o.ProviderRef, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *SQLStore) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,user_id,product_id,amount_cents,currency,status,provider_ref,created_at
		 FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.AmountCents, &o.Currency, &o.Status, &o.ProviderRef, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetOrderStatus(ctx context.Context, id, status, providerRef string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, provider_ref=$2 WHERE id=$3`, status, providerRef, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
