package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
)

type customerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	customers := []*domain.Customer{}
	err := r.db.SelectContext(ctx, &customers, `SELECT id, name, phone, email, address FROM customers ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query, customer.Name, customer.Phone, customer.Email, customer.Address).
		Scan(&customer.ID)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = :name, phone = :phone, email = :email, address = :address
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("customer %d: %w", customer.ID, repository.ErrNotFound)
	}

	return nil
}

func (r *customerRepository) FindByNameAndContact(ctx context.Context, name, phone, address string) (*domain.Customer, error) {
	query := `
		SELECT id, name, phone, email, address
		FROM customers
		WHERE name = $1 AND (phone = $2 OR address = $3)
		ORDER BY id
		LIMIT 1`

	var customer domain.Customer
	err := r.db.GetContext(ctx, &customer, query, name, phone, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	return &customer, nil
}
