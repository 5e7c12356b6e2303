package repository

import (
	"errors"
	"fmt"

	"order_scheduler/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	FindStock(productID uint) (int, error)
	AdjustStock(productID uint, delta int) error
	DecrementStockAll(items []models.ScheduleItem) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindStock(productID uint) (int, error) {
	var product models.Product
	err := r.db.Select("stock_qty").First(&product, productID).Error
	if err != nil {
		return 0, err
	}
	return product.StockQty, nil
}

func (r *productRepository) AdjustStock(productID uint, delta int) error {
	return r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_qty", gorm.Expr("stock_qty + ?", delta)).Error
}

// DecrementStockAll takes every line quantity in one transaction. Each
// decrement is guarded by the current stock level; if any line cannot be
// covered the whole transaction rolls back, so inventory is never left
// partially adjusted.
func (r *productRepository) DecrementStockAll(items []models.ScheduleItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_qty >= ?", item.ProductID, item.Quantity).
				Update("stock_qty", gorm.Expr("stock_qty - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
			}
		}
		return nil
	})
}
