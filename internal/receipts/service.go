// Package receipts issues one receipt per fully paid sale.
package receipts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sequence"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, scope sequence.Scope) (string, error)
}

type ServiceParams struct {
	Repo     *Repository
	Tx       txRunner
	Notifier notifications.Notifier
	Numbers  numberAllocator
	Currency string
	Logger   *logger.Logger
}

type Service struct {
	repo     *Repository
	tx       txRunner
	notifier notifications.Notifier
	numbers  numberAllocator
	currency string
	now      func() time.Time
	logg     *logger.Logger
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("receipts repository required")
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case p.Numbers == nil:
		return nil, fmt.Errorf("number allocator required")
	}
	currency := strings.TrimSpace(p.Currency)
	if currency == "" {
		currency = "KES"
	}
	return &Service{
		repo:     p.Repo,
		tx:       p.Tx,
		notifier: p.Notifier,
		numbers:  p.Numbers,
		currency: currency,
		now:      time.Now,
		logg:     p.Logger,
	}, nil
}

// Generate issues the receipt of a fully paid sale. Calling it again returns the existing
// receipt with created set to false.
func (s *Service) Generate(ctx context.Context, saleID uuid.UUID) (dto *ReceiptDTO, created bool, err error) {
	var receipt *models.Receipt
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := repo.LockSale(ctx, saleID)
		if err != nil {
			if isNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}

		existing, err := repo.FindBySale(ctx, saleID)
		switch {
		case err == nil:
			receipt = existing
			return nil
		case !isNotFound(err):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
		}

		if sale.PaymentStatus != enums.SaleFullyPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not fully paid").WithDetails(map[string]any{
				"sale_number":    sale.SaleNumber,
				"payment_status": sale.PaymentStatus,
			})
		}
		order, err := repo.FindOrder(ctx, sale.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		number, err := s.numbers.Next(ctx, tx, sequence.ScopeReceipt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate receipt number")
		}
		issuedAt := s.now().UTC()
		payload, err := json.Marshal(buildDocument(number, s.currency, issuedAt, sale, order))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode receipt")
		}
		row := &models.Receipt{
			ReceiptNumber: number,
			SaleID:        sale.ID,
			OrderID:       sale.OrderID,
			UserID:        sale.UserID,
			TotalAmount:   sale.TotalAmount,
			TotalPaid:     sale.TotalPaid,
			Payload:       payload,
			IssuedAt:      issuedAt,
		}
		inserted, err := repo.Create(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store receipt")
		}
		if !inserted {
			receipt, err = repo.FindBySale(ctx, saleID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
			}
			return nil
		}
		receipt, created = row, true

		return s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(sale.UserID),
			Category:  enums.NotificationReceipt,
			Title:     "Receipt Ready",
			Body:      fmt.Sprintf("Receipt %s for order %s is ready.", number, order.OrderNumber),
			Data: map[string]any{
				"receipt_id":     row.ID.String(),
				"receipt_number": number,
				"sale_id":        sale.ID.String(),
				"order_id":       order.ID.String(),
			},
			Priority: enums.PriorityLow,
		})
	})
	if err != nil {
		return nil, false, err
	}

	out, err := FromModel(*receipt)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode receipt")
	}
	if created && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"sale_id":        saleID.String(),
			"receipt_number": out.ReceiptNumber,
		})
		s.logg.Info(logCtx, "receipt issued")
	}
	return &out, created, nil
}

func (s *Service) GetBySale(ctx context.Context, saleID uuid.UUID) (*ReceiptDTO, error) {
	receipt, err := s.repo.FindBySale(ctx, saleID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receipt")
	}
	out, err := FromModel(*receipt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode receipt")
	}
	return &out, nil
}
