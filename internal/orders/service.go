// Package orders runs the pickup order state machine: placement, confirmation, staging,
// cancellation and hand-over.
package orders

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/inventory"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/pickup"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sales"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/sequence"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db/models"
	dbtypes "github.com/ErnestKamau/EasyBuy-sub001/pkg/db/types"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/enums"
	pkgerrors "github.com/ErnestKamau/EasyBuy-sub001/pkg/errors"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pagination"
)

// MissedPickupReason is recorded on orders the scheduler cancels.
const MissedPickupReason = "Auto-cancelled due to missed pickup."

const codeAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockKeeper interface {
	Decrement(ctx context.Context, tx *gorm.DB, lines []inventory.Line) (map[uuid.UUID]models.Product, error)
	Restock(ctx context.Context, tx *gorm.DB, lines []inventory.Line) error
}

type slotAllocator interface {
	Resolve(slotID string, date dbtypes.Date) (pickup.Slot, time.Time, error)
	Reserve(ctx context.Context, tx *gorm.DB, slotID string, date dbtypes.Date) error
	Release(ctx context.Context, tx *gorm.DB, slotID string, date dbtypes.Date) error
}

type saleLedger interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, input sales.CreateForOrderInput) (*models.Sale, error)
	CancelForOrder(ctx context.Context, tx *gorm.DB, input sales.CancelForOrderInput) (*sales.CancelOutcome, error)
	FulfillForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) (*models.Sale, error)
	EnsurePaymentPolicy(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, policy sales.PaymentPolicy) (*models.Sale, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Sale, error)
}

type numberAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, scope sequence.Scope) (string, error)
}

// Service defines the order commands, queries and sweep helpers.
type Service interface {
	Place(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	Confirm(ctx context.Context, input ConfirmOrderInput) (*CommandResult, error)
	MarkReady(ctx context.Context, input MarkReadyInput) (*CommandResult, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*CommandResult, error)
	CompletePickup(ctx context.Context, input CompletePickupInput) (*CommandResult, error)

	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	FindByVerificationCode(ctx context.Context, code string) (*OrderDTO, error)
	ListAwaitingPickup(ctx context.Context, date dbtypes.Date) ([]OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)

	ListMissedPickups(ctx context.Context, limit int) ([]models.Order, error)
	AutoCancelMissed(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListReminderDue(ctx context.Context, limit int) ([]models.Order, error)
	SendPickupReminder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Outbox            outboxPublisher
	Notifier          notifications.Notifier
	Inventory         stockKeeper
	Slots             slotAllocator
	Sales             saleLedger
	Numbers           numberAllocator
	AutoCancelGrace   time.Duration
	ReminderLookahead time.Duration
	Logger            *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	notifier  notifications.Notifier
	inventory stockKeeper
	slots     slotAllocator
	sales     saleLedger
	numbers   numberAllocator
	grace     time.Duration
	lookahead time.Duration
	logg      *logger.Logger
	now       func() time.Time
	codes     func() (string, error)
}

// NewService builds the order service with the required dependencies.
func NewService(p ServiceParams) (Service, error) {
	return newService(p)
}

func newService(p ServiceParams) (*service, error) {
	switch {
	case p.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case p.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case p.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case p.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case p.Inventory == nil:
		return nil, fmt.Errorf("inventory required")
	case p.Slots == nil:
		return nil, fmt.Errorf("pickup slots required")
	case p.Sales == nil:
		return nil, fmt.Errorf("sales ledger required")
	case p.Numbers == nil:
		return nil, fmt.Errorf("number allocator required")
	case p.AutoCancelGrace <= 0:
		return nil, fmt.Errorf("auto-cancel grace must be positive")
	case p.ReminderLookahead <= 0:
		return nil, fmt.Errorf("reminder lookahead must be positive")
	}
	return &service{
		repo:      p.Repo,
		tx:        p.Tx,
		outbox:    p.Outbox,
		notifier:  p.Notifier,
		inventory: p.Inventory,
		slots:     p.Slots,
		sales:     p.Sales,
		numbers:   p.Numbers,
		grace:     p.AutoCancelGrace,
		lookahead: p.ReminderLookahead,
		logg:      p.Logger,
		now:       time.Now,
		codes:     verificationCode,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	lines := make([]inventory.Line, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if !item.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	lines = inventory.MergeLines(lines)

	slot, pickupTime, err := s.slots.Resolve(input.SlotID, input.PickupDate)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !pickupTime.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup time must be in the future").WithDetails(map[string]any{
			"slot_id":     slot.ID,
			"pickup_date": input.PickupDate.String(),
		})
	}

	var dto OrderDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		products, err := s.inventory.Decrement(ctx, tx, lines)
		if err != nil {
			return err
		}
		if err := s.slots.Reserve(ctx, tx, slot.ID, input.PickupDate); err != nil {
			return err
		}
		number, err := s.numbers.Next(ctx, tx, sequence.ScopeOrder)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		code, err := s.uniqueCode(ctx, repo)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:                     uuid.New(),
			OrderNumber:            number,
			UserID:                 input.UserID,
			OrderStatus:            enums.OrderStatusPending,
			FulfillmentStatus:      enums.FulfillmentAwaiting,
			PickupSlotID:           slot.ID,
			PickupDate:             input.PickupDate,
			PickupTime:             pickupTime.UTC(),
			PickupVerificationCode: code,
			Notes:                  trimmed(input.Notes),
			CreatedAt:              now,
		}
		for _, line := range lines {
			product := products[line.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.SellPrice,
				UnitCost:    product.CostPrice,
				Subtotal:    product.SellPrice.Mul(line.Quantity),
				CreatedAt:   now,
			})
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		sale, err := s.sales.CreateForOrder(ctx, tx, sales.CreateForOrderInput{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Items:       order.Items,
		})
		if err != nil {
			return err
		}

		if err := s.emitPlaced(ctx, tx, order, sale); err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToAdmins(),
			Category:  enums.NotificationNewOrder,
			Title:     "New Order",
			Body: fmt.Sprintf("Order %s (%s) for pickup %s, %s.",
				order.OrderNumber, sale.TotalAmount.String(), order.PickupDate.String(), slot.Label),
			Data:     orderData(order),
			Priority: enums.PriorityHigh,
		}); err != nil {
			return err
		}
		dto = withSale(*order, sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logOrder(ctx, "order placed", dto.ID, dto.OrderNumber)
	return &dto, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmOrderInput) (*CommandResult, error) {
	return s.transition(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
		switch {
		case order.OrderStatus == enums.OrderStatusCancelled:
			return false, invalidTransition(order, enums.OrderStatusConfirmed)
		case order.OrderStatus == enums.OrderStatusConfirmed:
			return true, nil
		}
		if _, err := s.sales.EnsurePaymentPolicy(ctx, tx, order.ID, sales.PaymentPolicy{AllowDebt: input.AllowDebt, DueInDays: input.DueInDays}); err != nil {
			return false, err
		}
		now := s.now().UTC()
		order.OrderStatus = enums.OrderStatusConfirmed
		order.ConfirmedAt = &now
		if err := repo.SaveOrder(ctx, order); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		if err := s.emitStatus(ctx, tx, enums.EventOrderConfirmed, input.ActorUserID, order, now); err != nil {
			return false, err
		}
		return false, s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(order.UserID),
			Category:  enums.NotificationOrderUpdate,
			Title:     "Order Confirmed",
			Body:      fmt.Sprintf("Your order %s is confirmed for pickup on %s.", order.OrderNumber, order.PickupDate.String()),
			Data:      orderData(order),
		})
	})
}

func (s *service) MarkReady(ctx context.Context, input MarkReadyInput) (*CommandResult, error) {
	return s.transition(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
		switch {
		case order.FulfillmentStatus == enums.FulfillmentReady:
			return true, nil
		case order.OrderStatus != enums.OrderStatusConfirmed || order.FulfillmentStatus != enums.FulfillmentAwaiting:
			return false, invalidTransition(order, enums.FulfillmentReady)
		}
		now := s.now().UTC()
		order.FulfillmentStatus = enums.FulfillmentReady
		order.ReadyAt = &now
		if err := repo.SaveOrder(ctx, order); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		if err := s.emitStatus(ctx, tx, enums.EventOrderReady, input.ActorUserID, order, now); err != nil {
			return false, err
		}
		return false, s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(order.UserID),
			Category:  enums.NotificationOrderUpdate,
			Title:     "Order Ready for Pickup",
			Body:      fmt.Sprintf("Your order %s is ready. Show code %s when you collect it.", order.OrderNumber, order.PickupVerificationCode),
			Data:      orderData(order),
			Priority:  enums.PriorityHigh,
			Channels:  []enums.NotificationChannel{enums.ChannelInApp, enums.ChannelPush},
		})
	})
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*CommandResult, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	if !input.Actor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cancellation actor")
	}
	input.Reason = reason
	result, err := s.transition(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
		switch order.FulfillmentStatus {
		case enums.FulfillmentCancelled:
			return true, nil
		case enums.FulfillmentPickedUp:
			return false, invalidTransition(order, enums.FulfillmentCancelled)
		}
		return false, s.cancelLocked(ctx, tx, repo, order, input)
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadyProcessed {
		s.logOrder(s.withActor(ctx, input.Actor), "order cancelled", result.Order.ID, result.Order.OrderNumber)
	}
	return result, nil
}

// cancelLocked reverses stock, slot and money of a locked order, then closes it.
func (s *service) cancelLocked(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input CancelOrderInput) error {
	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.inventory.Restock(ctx, tx, inventory.MergeLines(lines)); err != nil {
		return err
	}
	if err := s.slots.Release(ctx, tx, order.PickupSlotID, order.PickupDate); err != nil {
		return err
	}
	outcome, err := s.sales.CancelForOrder(ctx, tx, sales.CancelForOrderInput{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Reason:         input.Reason,
		RefundToWallet: input.RefundToWallet,
	})
	if err != nil {
		return err
	}

	now := s.now().UTC()
	reason := input.Reason
	order.OrderStatus = enums.OrderStatusCancelled
	order.FulfillmentStatus = enums.FulfillmentCancelled
	order.CancellationReason = &reason
	order.CancelledAt = &now
	order.Notes = appendNote(order.Notes, "Cancelled: "+reason)
	if outcome.RefundOwed.IsPositive() {
		order.Notes = appendNote(order.Notes, fmt.Sprintf("Refund owed: %s (%s)", outcome.RefundOwed.String(), outcome.Sale.SaleNumber))
	}
	if err := repo.SaveOrder(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}

	if err := s.emitCancelled(ctx, tx, input, order, outcome, now); err != nil {
		return err
	}
	body := fmt.Sprintf("Your order %s was cancelled: %s", order.OrderNumber, reason)
	if outcome.WalletCredit.IsPositive() {
		body += fmt.Sprintf(" %s was refunded to your wallet.", outcome.WalletCredit.String())
	}
	if outcome.RefundOwed.IsPositive() {
		body += fmt.Sprintf(" %s will be refunded to you.", outcome.RefundOwed.String())
	}
	return s.notifier.Notify(ctx, tx, notifications.Request{
		Recipient: notifications.ToUser(order.UserID),
		Category:  enums.NotificationOrderUpdate,
		Title:     "Order Cancelled",
		Body:      body,
		Data:      orderData(order),
		Priority:  enums.PriorityHigh,
	})
}

func (s *service) CompletePickup(ctx context.Context, input CompletePickupInput) (*CommandResult, error) {
	code := strings.TrimSpace(input.Code)
	return s.transition(ctx, input.OrderID, func(tx *gorm.DB, repo Repository, order *models.Order) (bool, error) {
		switch {
		case order.FulfillmentStatus == enums.FulfillmentPickedUp:
			return true, nil
		case order.FulfillmentStatus != enums.FulfillmentReady:
			return false, invalidTransition(order, enums.FulfillmentPickedUp)
		}
		if code != "" && code != order.PickupVerificationCode {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "verification code does not match")
		}
		now := s.now().UTC()
		order.FulfillmentStatus = enums.FulfillmentPickedUp
		order.PickedUpAt = &now
		if err := repo.SaveOrder(ctx, order); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		if _, err := s.sales.FulfillForOrder(ctx, tx, order.ID, now); err != nil {
			return false, err
		}
		if err := s.emitStatus(ctx, tx, enums.EventOrderPickedUp, input.ActorUserID, order, now); err != nil {
			return false, err
		}
		return false, s.notifier.Notify(ctx, tx, notifications.Request{
			Recipient: notifications.ToUser(order.UserID),
			Category:  enums.NotificationOrderUpdate,
			Title:     "Order Picked Up",
			Body:      fmt.Sprintf("Order %s was collected. Thank you for shopping with us!", order.OrderNumber),
			Data:      orderData(order),
			Priority:  enums.PriorityLow,
		})
	})
}

type transitionFunc func(tx *gorm.DB, repo Repository, order *models.Order) (alreadyProcessed bool, err error)

// transition locks the order and runs fn in one transaction.
func (s *service) transition(ctx context.Context, orderID uuid.UUID, fn transitionFunc) (*CommandResult, error) {
	var result CommandResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		done, err := fn(tx, repo, order)
		if err != nil {
			return err
		}
		result = CommandResult{Order: FromModel(*order), AlreadyProcessed: done}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	return s.withSale(ctx, order)
}

func (s *service) FindByVerificationCode(ctx context.Context, code string) (*OrderDTO, error) {
	code = strings.TrimSpace(code)
	if !validCode(code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification code must be 6 digits")
	}
	order, err := s.repo.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "find order by code")
	}
	return s.withSale(ctx, order)
}

func (s *service) ListAwaitingPickup(ctx context.Context, date dbtypes.Date) ([]OrderDTO, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date required")
	}
	rows, err := s.repo.ListByPickupDate(ctx, date, []enums.FulfillmentStatus{enums.FulfillmentAwaiting, enums.FulfillmentReady})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list awaiting pickup")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	rows, more := pagination.Trim(rows, params.Limit)
	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, FromModel(row))
	}
	if more {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) withSale(ctx context.Context, order *models.Order) (*OrderDTO, error) {
	sale, err := s.sales.FindByOrder(ctx, order.ID)
	if err != nil && !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		return nil, err
	}
	dto := withSale(*order, sale)
	return &dto, nil
}

func (s *service) uniqueCode(ctx context.Context, repo Repository) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.codes()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
		}
		taken, err := repo.CodeInUse(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check verification code")
		}
		if !taken {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique verification code")
}

var codeMax = big.NewInt(1_000_000)

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalidTransition(order *models.Order, to fmt.Stringer) error {
	from := string(order.FulfillmentStatus)
	if order.FulfillmentStatus == enums.FulfillmentAwaiting {
		from = string(order.OrderStatus)
	}
	return pkgerrors.InvalidTransition("order", order.ID, from, to.String())
}

func notFoundOr(err error, op string) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func (s *service) withActor(ctx context.Context, actor enums.CancelActor) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithActorRole(ctx, string(actor))
}

func (s *service) logOrder(ctx context.Context, msg string, id uuid.UUID, number string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     id.String(),
		"order_number": number,
	})
	s.logg.Info(logCtx, msg)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func appendNote(notes *string, line string) *string {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return &line
	}
	joined := *notes + "\n" + line
	return &joined
}
