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

const inventoryColumns = `id, item_name, description, quantity, weight_per_piece, total_weight`

type inventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository creates a new PostgreSQL inventory repository
func NewInventoryRepository(db *sqlx.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) List(ctx context.Context) ([]*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory ORDER BY id`

	items := []*domain.InventoryItem{}
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	return items, nil
}

func (r *inventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory (item_name, description, quantity, weight_per_piece, total_weight)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		item.ItemName, item.Description, item.Quantity, item.WeightPerPiece, item.TotalWeight,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	return nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		UPDATE inventory
		SET item_name = :item_name,
			description = :description,
			quantity = :quantity,
			weight_per_piece = :weight_per_piece,
			total_weight = :total_weight
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("inventory item %d: %w", item.ID, repository.ErrNotFound)
	}

	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inventory item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

func (r *inventoryRepository) FindByNameAndWeight(ctx context.Context, name string, weightPerPiece float64) (*domain.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE item_name = $1 AND weight_per_piece = $2 LIMIT 1`

	var item domain.InventoryItem
	err := r.db.GetContext(ctx, &item, query, name, weightPerPiece)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inventory item %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}

	return &item, nil
}

func (r *inventoryRepository) SetQuantity(ctx context.Context, id int64, quantity int, totalWeight float64) error {
	query := `UPDATE inventory SET quantity = $1, total_weight = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, quantity, totalWeight, id)
	if err != nil {
		return fmt.Errorf("failed to update inventory quantity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("inventory item %d: %w", id, repository.ErrNotFound)
	}

	return nil
}

func (r *inventoryRepository) SearchNames(ctx context.Context, query string, limit int) ([]string, error) {
	stmt := `
		SELECT DISTINCT item_name
		FROM inventory
		WHERE item_name ILIKE '%' || $1 || '%'
		ORDER BY item_name
		LIMIT $2`

	names := []string{}
	if err := r.db.SelectContext(ctx, &names, stmt, query, limit); err != nil {
		return nil, fmt.Errorf("failed to search inventory names: %w", err)
	}

	return names, nil
}
