package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Puneet-Vishnoi/order-book/db/postgres/providers"
	"github.com/Puneet-Vishnoi/order-book/models"
)

type CategoryRepository struct {
	DBHelper *providers.DBHelper
}

func NewCategoryRepository(db *providers.DBHelper) *CategoryRepository {
	return &CategoryRepository{DBHelper: db}
}

// CreateCategory saves a category and retrieves its ID
func (r *CategoryRepository) CreateCategory(ctx context.Context, tx *sql.Tx, category *models.Category) error {
	return tx.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`,
		category.Name,
	).Scan(&category.ID)
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, tx *sql.Tx, category *models.Category) error {
	res, err := tx.ExecContext(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, category.Name, category.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("category with ID %d: %w", category.ID, ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category; its orders go with it (ON DELETE CASCADE).
func (r *CategoryRepository) DeleteCategory(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Category, error) {
	var c models.Category
	err := tx.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by ID %d: %w", id, err)
	}
	return &c, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context, tx *sql.Tx) ([]models.Category, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
