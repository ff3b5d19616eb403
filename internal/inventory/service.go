// Package inventory moves product stock for order placement and cancellation.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
)

// Line is a product and the quantity to move.
type Line struct {
	ProductID uuid.UUID
	Quantity  money.Quantity
}

// MergeLines folds duplicate products together and sorts by product id, the lock order.
func MergeLines(lines []Line) []Line {
	totals := make(map[uuid.UUID]money.Quantity, len(lines))
	for _, line := range lines {
		totals[line.ProductID] = totals[line.ProductID].Add(line.Quantity)
	}
	merged := make([]Line, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged
}

type Service struct{}

func NewService() *Service { return &Service{} }

// Decrement locks every product row in id order and takes the requested quantities.
// The first short product aborts with InsufficientStock; the caller rolls back.
func (s *Service) Decrement(ctx context.Context, tx *gorm.DB, lines []Line) (map[uuid.UUID]models.Product, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	lines = MergeLines(lines)
	products, err := s.lockProducts(ctx, tx, lines)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		product := products[line.ProductID]
		if product.Stock.Cmp(line.Quantity) < 0 {
			return nil, pkgerrors.InsufficientStock(product.ID, product.Name, line.Quantity, product.Stock)
		}
		res := tx.WithContext(ctx).Exec(
			`UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock >= ?`,
			line.Quantity, line.ProductID, line.Quantity,
		)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.InsufficientStock(product.ID, product.Name, line.Quantity, product.Stock)
		}
	}
	return products, nil
}

// Restock returns quantities to stock, in id order.
func (s *Service) Restock(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	for _, line := range MergeLines(lines) {
		if !line.Quantity.IsPositive() {
			continue
		}
		res := tx.WithContext(ctx).Exec(
			`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			line.Quantity, line.ProductID,
		)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock product")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
		}
	}
	return nil
}

func (s *Service) lockProducts(ctx context.Context, tx *gorm.DB, lines []Line) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		ids = append(ids, line.ProductID)
	}

	var rows []models.Product
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
	}

	products := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		products[row.ID] = row
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": id.String()})
		}
	}
	return products, nil
}
