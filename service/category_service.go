package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/models"
	"github.com/Puneet-Vishnoi/order-book/repository"
)

// CategoryService manages the market partitions and resolves category ids
// for order placement.
type CategoryService struct {
	Store  repository.Store
	Logger *zap.Logger
}

func NewCategoryService(store repository.Store, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{Store: store, Logger: logger}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		found, err := tx.ListCategories(ctx)
		categories = append(categories, found...)
		return err
	})
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	return categories, nil
}

// GetCategory resolves id to a category, or a wrapped repository.ErrNotFound.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category *models.Category
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		var err error
		category, err = tx.GetCategory(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeErr("get category", err)
	}
	return category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: strings.TrimSpace(name)}
	if category.Name == "" {
		return nil, ErrEmptyName
	}

	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		return tx.InsertCategory(ctx, category)
	})
	if err != nil {
		return nil, storeErr("create category", err)
	}

	s.Logger.Info("category created", zap.Int64("category_id", category.ID), zap.String("name", category.Name))
	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	category := &models.Category{ID: id, Name: strings.TrimSpace(name)}
	if category.Name == "" {
		return nil, ErrEmptyName
	}

	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		return tx.UpdateCategory(ctx, category)
	})
	if err != nil {
		return nil, storeErr("update category", err)
	}
	return category, nil
}

// DeleteCategory removes the category together with its resting orders.
// It reports false when no such category exists.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		if err := tx.LockCategory(ctx, id); err != nil {
			return err
		}
		var err error
		found, err = tx.DeleteCategory(ctx, id)
		return err
	})
	if err != nil {
		return false, storeErr("delete category", err)
	}

	if found {
		s.Logger.Info("category deleted", zap.Int64("category_id", id))
	}
	return found, nil
}
