// Package wallet keeps each customer's store-credit ledger: an append-only chain of
// entries whose latest balance_after is the balance.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/money"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, tx: tx, logg: logg}, nil
}

// Credit appends a credit inside the caller's transaction.
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, entry Entry) (*models.WalletTransaction, error) {
	return s.append(ctx, tx, enums.WalletCredit, entry)
}

// Debit appends a debit inside the caller's transaction. It never lets the balance go negative.
func (s *Service) Debit(ctx context.Context, tx *gorm.DB, entry Entry) (*models.WalletTransaction, error) {
	return s.append(ctx, tx, enums.WalletDebit, entry)
}

func (s *Service) append(ctx context.Context, tx *gorm.DB, direction enums.WalletDirection, entry Entry) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if entry.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet user required")
	}
	if !entry.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet amount must be positive")
	}
	if !entry.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet transaction kind")
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.LockAccount(ctx, entry.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet account")
	}
	balance, err := s.latestBalance(ctx, repo, entry.UserID)
	if err != nil {
		return nil, err
	}

	next := balance.Add(entry.Amount)
	if direction == enums.WalletDebit {
		if entry.Amount.GreaterThan(balance) {
			return nil, pkgerrors.InsufficientFunds(entry.UserID, entry.Amount, balance)
		}
		next = balance.Sub(entry.Amount)
	}

	row := &models.WalletTransaction{
		UserID:       entry.UserID,
		Sequence:     account.LastSequence + 1,
		Direction:    direction,
		Kind:         entry.Kind,
		Amount:       entry.Amount,
		BalanceAfter: next,
		Description:  entry.Description,
		OrderID:      entry.OrderID,
		SaleID:       entry.SaleID,
		PaymentID:    entry.PaymentID,
	}
	if err := repo.Append(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append wallet entry")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":       entry.UserID.String(),
			"direction":     direction,
			"kind":          entry.Kind,
			"amount":        entry.Amount.String(),
			"balance_after": next.String(),
		})
		s.logg.Info(logCtx, "wallet entry appended")
	}
	return row, nil
}

// Balance is the balance_after of the newest entry, zero for an empty wallet.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (money.Amount, error) {
	return s.latestBalance(ctx, s.repo, userID)
}

func (s *Service) latestBalance(ctx context.Context, repo *Repository, userID uuid.UUID) (money.Amount, error) {
	latest, err := repo.Latest(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return money.Zero, nil
	}
	if err != nil {
		return money.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet balance")
	}
	return latest.BalanceAfter, nil
}

// History pages through the wallet newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[TransactionDTO], error) {
	before, _, err := pagination.ParseSequence(params.Cursor)
	if err != nil {
		return pagination.Page[TransactionDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, userID, before, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[TransactionDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet entries")
	}
	rows, more := pagination.Trim(rows, params.Limit)

	page := pagination.Page[TransactionDTO]{Items: make([]TransactionDTO, 0, len(rows))}
	for _, row := range rows {
		page.Items = append(page.Items, FromModel(row))
	}
	if more {
		page.NextCursor = pagination.EncodeSequence(rows[len(rows)-1].Sequence)
	}
	return page, nil
}

// Adjust applies an admin adjustment in its own transaction.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (*models.WalletTransaction, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason required")
	}
	entry := Entry{
		UserID:      input.UserID,
		Amount:      input.Amount,
		Kind:        enums.WalletKindAdjustment,
		Description: "Adjustment: " + reason,
	}

	var row *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		switch input.Direction {
		case enums.WalletCredit:
			row, err = s.Credit(ctx, tx, entry)
		case enums.WalletDebit:
			row, err = s.Debit(ctx, tx, entry)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "invalid wallet direction")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "actor_user_id", input.ActorUserID.String()), "wallet adjusted")
	}
	return row, nil
}
