package services

import (
	"fmt"

	"gorm.io/gorm"

	"KantinPos/app/models"
)

// ProductService handles the menu: products, categories, variants and stock
type ProductService struct {
	*BaseService
}

// NewProductService creates a new product service
func NewProductService() *ProductService {
	return &ProductService{
		BaseService: NewBaseService(),
	}
}

// GetAllProducts gets all active products with their category and variants
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	if err := s.EnsureDB(); err != nil {
		return nil, err
	}
	var products []models.Product
	err := s.db.Preload("Category").Preload("Variants").
		Where("is_active = ?", true).
		Order("category_id, name").
		Find(&products).Error
	return products, err
}

// GetProductsByCategory gets active products in one category
func (s *ProductService) GetProductsByCategory(categoryID uint) ([]models.Product, error) {
	if err := s.EnsureDB(); err != nil {
		return nil, err
	}
	var products []models.Product
	err := s.db.Preload("Variants").
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("name").
		Find(&products).Error
	return products, err
}

// GetProduct gets a product by ID
func (s *ProductService) GetProduct(id uint) (*models.Product, error) {
	if err := s.EnsureDB(); err != nil {
		return nil, err
	}
	var product models.Product
	err := s.db.Preload("Category").Preload("Variants").First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if product.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	product.IsActive = true
	return s.Create(product)
}

// UpdateProduct updates a product and replaces its variants
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if product.ID == 0 {
		return fmt.Errorf("product ID is required")
	}
	return s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variants").Save(product).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).
			Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range product.Variants {
			product.Variants[i].ID = 0
			product.Variants[i].ProductID = product.ID
		}
		if len(product.Variants) > 0 {
			return tx.Create(&product.Variants).Error
		}
		return nil
	})
}

// DeleteProduct soft deletes a product
func (s *ProductService) DeleteProduct(id uint) error {
	return s.Delete(&models.Product{}, id)
}

// SearchProducts finds active products by name fragment
func (s *ProductService) SearchProducts(query string) ([]models.Product, error) {
	if err := s.EnsureDB(); err != nil {
		return nil, err
	}
	var products []models.Product
	err := s.db.Preload("Variants").
		Where("is_active = ? AND name ILIKE ?", true, "%"+query+"%").
		Limit(20).
		Find(&products).Error
	return products, err
}

// Stock

// AdjustStock applies a manual stock correction and logs the movement
func (s *ProductService) AdjustStock(productID uint, quantity int, reason string, employeeID uint) error {
	return s.WithTransaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return err
		}

		previousStock := product.Stock
		product.Stock += quantity
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		var employee *uint
		if employeeID != 0 {
			employee = &employeeID
		}
		return CreateStockMovement(tx, productID, "adjustment", quantity,
			previousStock, product.Stock, reason, employee)
	})
}

// RestockProduct records an incoming purchase and raises stock
func (s *ProductService) RestockProduct(productID uint, quantity int, reference string, employeeID uint) error {
	if quantity <= 0 {
		return fmt.Errorf("restock quantity must be positive")
	}
	return s.WithTransaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			return err
		}

		previousStock := product.Stock
		product.Stock += quantity
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		var employee *uint
		if employeeID != 0 {
			employee = &employeeID
		}
		return CreateStockMovement(tx, productID, "purchase", quantity,
			previousStock, product.Stock, reference, employee)
	})
}

// GetStockMovements gets the movement history of a product, newest first
func (s *ProductService) GetStockMovements(productID uint) ([]models.StockMovement, error) {
	if err := s.EnsureDB(); err != nil {
		return nil, err
	}
	var movements []models.StockMovement
	err := s.db.Preload("Employee").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(100).
		Find(&movements).Error
	return movements, err
}

// Categories

// GetAllCategories gets all active categories in display order
func (s *ProductService) GetAllCategories() ([]models.Category, error) {
	if err := s.EnsureDB(); err != nil {
		return nil, err
	}
	var categories []models.Category
	err := s.db.Where("is_active = ?", true).
		Order("display_order, name").
		Find(&categories).Error
	return categories, err
}

// CreateCategory creates a new category
func (s *ProductService) CreateCategory(category *models.Category) (*models.Category, error) {
	if category.Name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	if category.Type != "food" && category.Type != "drink" {
		category.Type = "food"
	}
	category.IsActive = true
	if err := s.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory updates a category
func (s *ProductService) UpdateCategory(category *models.Category) (*models.Category, error) {
	if err := s.Save(category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory soft deletes a category if no active product uses it
func (s *ProductService) DeleteCategory(id uint) error {
	if err := s.EnsureDB(); err != nil {
		return err
	}
	var count int64
	s.db.Model(&models.Product{}).
		Where("category_id = ? AND is_active = ?", id, true).
		Count(&count)
	if count > 0 {
		return fmt.Errorf("category has %d active products", count)
	}
	return s.Delete(&models.Category{}, id)
}
