package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/push"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/hyunwoogil/restaurant-order-service/pkg/utils"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Push content for the accept notification. The body can be overridden per
// request by the accepting owner.
const (
	pushTitle         = "임진매운갈비"
	defaultAcceptBody = "조리가 시작되었습니다! 잠시만 기다려 주세요 😊"

	maxErrorDetailLen = 2000
)

// TxRunner is the unit-of-work boundary; *database.DB satisfies it.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, traceID string, req views.CreateOrderRequest) (views.OrderSummary, error)
	GetOrder(ctx context.Context, traceID string, orderID string) (views.OrderDetailResponse, error)
	ListOrders(ctx context.Context, traceID string, customerID *string, status *string, limit int) ([]views.OrderSummary, error)

	Accept(ctx context.Context, traceID string, orderID string, req views.AcceptOrderRequest) (views.TransitionResponse, error)
	Complete(ctx context.Context, traceID string, orderID string, req views.CompleteOrderRequest) (views.TransitionResponse, error)
	Cancel(ctx context.Context, traceID string, orderID string, customerID *string) (views.TransitionResponse, error)
}

type OrderServiceImpl struct {
	logger     *zap.Logger
	db         *database.DB // read path; nil in unit tests (fakes ignore it)
	tx         TxRunner
	pricing    PricingEngine
	orderRepo  repositories.OrderRepository
	notifRepo  repositories.NotificationRepository
	deviceRepo repositories.DeviceRepository
	pusher     push.Sender
	events     EventPublisher
}

func NewOrderService(
	logger *zap.Logger,
	db *database.DB,
	pricing PricingEngine,
	orderRepo repositories.OrderRepository,
	notifRepo repositories.NotificationRepository,
	deviceRepo repositories.DeviceRepository,
	pusher push.Sender,
	events EventPublisher,
) OrderService {
	return &OrderServiceImpl{
		logger:     logger,
		db:         db,
		tx:         db,
		pricing:    pricing,
		orderRepo:  orderRepo,
		notifRepo:  notifRepo,
		deviceRepo: deviceRepo,
		pusher:     pusher,
		events:     events,
	}
}

// CreateOrder prices and persists a cart as one transaction: header, lines,
// option snapshots and the initial PLACED status-log entry commit together or
// not at all.
func (s *OrderServiceImpl) CreateOrder(ctx context.Context, traceID string, req views.CreateOrderRequest) (views.OrderSummary, error) {
	customerID, err := parseOptionalUUID(req.CustomerID, "customerId")
	if err != nil {
		return views.OrderSummary{}, err
	}

	var order models.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		priced, err := s.pricing.PriceOrder(ctx, tx, traceID, req.Items)
		if err != nil {
			return err
		}

		order = models.Order{
			CustomerID:   customerID,
			Status:       pkg.OrderStatusPlaced,
			CustomerNote: req.CustomerNote,
			TotalAmount:  priced.TotalAmount,
		}
		if err = s.orderRepo.Insert(ctx, tx, &order); err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}

		for i := range priced.Lines {
			line := &priced.Lines[i]
			line.Item.OrderID = order.ID
			if err = s.orderRepo.InsertItem(ctx, tx, &line.Item); err != nil {
				return pkg.HandleSQLError(traceID, s.logger, err)
			}
			for j := range line.Options {
				line.Options[j].OrderItemID = line.Item.ID
			}
			if err = s.orderRepo.InsertItemOptions(ctx, tx, line.Options); err != nil {
				return pkg.HandleSQLError(traceID, s.logger, err)
			}
		}

		return s.appendLog(ctx, tx, traceID, order.ID, nil, pkg.OrderStatusPlaced, req.CustomerID)
	})
	if err != nil {
		return views.OrderSummary{}, err
	}

	s.publishEvent(traceID, "order.created", order)
	s.logger.Info("order created",
		zap.String(pkg.TraceId, traceID),
		zap.String("orderId", order.ID.String()),
		zap.Int64("orderNo", order.OrderNo),
		zap.Int64("totalAmount", order.TotalAmount),
	)
	return views.ToOrderSummary(order), nil
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, traceID string, orderID string) (views.OrderDetailResponse, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return views.OrderDetailResponse{}, err
	}

	order, err := s.orderRepo.GetByID(ctx, s.db, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return views.OrderDetailResponse{}, pkg.NewAppError(pkg.ErrNotFoundCode, "order not found", nil)
	}
	if err != nil {
		return views.OrderDetailResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	items, err := s.orderRepo.ListItems(ctx, s.db, id)
	if err != nil {
		return views.OrderDetailResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	itemIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		itemIDs = append(itemIDs, it.ID)
	}
	options, err := s.orderRepo.ListItemOptions(ctx, s.db, itemIDs)
	if err != nil {
		return views.OrderDetailResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	return views.OrderDetailResponse{Order: order, Items: items, ItemOptions: options}, nil
}

func (s *OrderServiceImpl) ListOrders(ctx context.Context, traceID string, customerID *string, status *string, limit int) ([]views.OrderSummary, error) {
	cid, err := parseOptionalUUID(customerID, "customerId")
	if err != nil {
		return nil, err
	}

	var st *pkg.OrderStatus
	if status != nil && *status != "" {
		v := pkg.OrderStatus(*status)
		st = &v
	}

	orders, err := s.orderRepo.ListRecent(ctx, s.db, cid, st, limit)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}

	out := make([]views.OrderSummary, 0, len(orders))
	for _, ord := range orders {
		out = append(out, views.ToOrderSummary(ord))
	}
	return out, nil
}

// Accept transitions PLACED -> ACCEPTED. The transaction commits the status
// write, the log entry and one queued notification; the push attempt happens
// after commit and can never undo the transition. Re-accepting an already
// accepted order is an idempotent no-op.
func (s *OrderServiceImpl) Accept(ctx context.Context, traceID string, orderID string, req views.AcceptOrderRequest) (views.TransitionResponse, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return views.TransitionResponse{}, err
	}

	body := defaultAcceptBody
	if req.Message != nil && *req.Message != "" {
		body = *req.Message
	}
	payload := map[string]string{
		"type":       "order_status",
		"orderId":    orderID,
		"nextStatus": string(pkg.OrderStatusAccepted),
	}

	var (
		order      models.Order
		idempotent bool
		tokens     []string
		notif      models.Notification
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		order, err = s.lockOrder(ctx, tx, traceID, id)
		if err != nil {
			return err
		}

		switch order.Status {
		case pkg.OrderStatusCanceled, pkg.OrderStatusCompleted:
			return pkg.NewAppError(pkg.ErrStatusConflictCode,
				fmt.Sprintf("cannot accept order in status=%s", order.Status), nil)
		case pkg.OrderStatusAccepted:
			// Duplicate accept (client retry): report current state, do not
			// re-log or re-notify.
			idempotent = true
			return nil
		}

		prev := order.Status
		acceptedAt, err := s.orderRepo.MarkAccepted(ctx, tx, id)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		order.Status = pkg.OrderStatusAccepted
		order.AcceptedAt = &acceptedAt

		if err = s.appendLog(ctx, tx, traceID, id, &prev, pkg.OrderStatusAccepted, &req.OwnerID); err != nil {
			return err
		}

		if order.CustomerID != nil {
			tokens, err = s.deviceRepo.ActiveTokens(ctx, tx, *order.CustomerID)
			if err != nil {
				return pkg.HandleSQLError(traceID, s.logger, err)
			}
		}

		notif = models.Notification{
			OrderID: id,
			UserID:  order.CustomerID,
			Channel: pkg.ChannelFCM,
			Title:   pushTitle,
			Body:    body,
			Payload: payload,
		}
		if err = s.notifRepo.Enqueue(ctx, tx, &notif); err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		return nil
	})
	if err != nil {
		return views.TransitionResponse{}, err
	}

	resp := views.TransitionResponse{
		OrderID:    orderID,
		OrderNo:    order.OrderNo,
		Status:     pkg.OrderStatusAccepted,
		AcceptedAt: order.AcceptedAt,
	}
	if idempotent {
		resp.Notified = &views.PushSummary{Skipped: true, Reason: "already accepted"}
		return resp, nil
	}

	s.publishEvent(traceID, "order.accepted", order)

	// Best-effort delivery: the transition above is already committed and
	// must not be affected by anything that happens from here on.
	resp.Notified = s.deliverAcceptPush(ctx, traceID, notif.ID, tokens, pushTitle, body, payload)
	return resp, nil
}

// deliverAcceptPush pushes to the customer's devices and finalizes the
// notification record in a second, independent transaction. All errors are
// swallowed into the summary.
func (s *OrderServiceImpl) deliverAcceptPush(ctx context.Context, traceID string, notifID uuid.UUID, tokens []string, title, body string, payload map[string]string) *views.PushSummary {
	summary := &views.PushSummary{Tokens: len(tokens)}

	if len(tokens) == 0 {
		// Policy: zero reachable devices counts as a delivery failure, not a
		// distinct skipped state.
		s.finalizeNotification(ctx, traceID, notifID, false, pkg.ErrNoActiveDeviceTokens.Error())
		return summary
	}

	result, err := s.pusher.Send(ctx, tokens, title, body, payload)
	if err != nil {
		s.logger.Warn("push send failed",
			zap.String(pkg.TraceId, traceID),
			zap.String("notificationId", notifID.String()),
			zap.Error(err),
		)
		s.finalizeNotification(ctx, traceID, notifID, false, utils.Truncate(err.Error(), maxErrorDetailLen))
		return summary
	}

	summary.Success = result.SuccessCount
	summary.Failure = result.FailureCount

	if result.FailureCount == 0 {
		s.finalizeNotification(ctx, traceID, notifID, true, "")
	} else {
		s.finalizeNotification(ctx, traceID, notifID, false, serializeResults(result))
	}
	return summary
}

// finalizeNotification records the delivery outcome. The record may only move
// out of queued once; losing the CAS means another writer got there first.
func (s *OrderServiceImpl) finalizeNotification(ctx context.Context, traceID string, notifID uuid.UUID, sent bool, errMsg string) {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var updated bool
		var err error
		if sent {
			updated, err = s.notifRepo.MarkSent(ctx, tx, notifID)
		} else {
			updated, err = s.notifRepo.MarkFailed(ctx, tx, notifID, errMsg)
		}
		if err != nil {
			return err
		}
		if !updated {
			s.logger.Warn("notification already finalized",
				zap.String(pkg.TraceId, traceID),
				zap.String("notificationId", notifID.String()),
			)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to record notification outcome",
			zap.String(pkg.TraceId, traceID),
			zap.String("notificationId", notifID.String()),
			zap.Error(err),
		)
	}
}

func (s *OrderServiceImpl) Complete(ctx context.Context, traceID string, orderID string, req views.CompleteOrderRequest) (views.TransitionResponse, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return views.TransitionResponse{}, err
	}

	var order models.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		order, err = s.lockOrder(ctx, tx, traceID, id)
		if err != nil {
			return err
		}

		if order.Status == pkg.OrderStatusCanceled || order.Status == pkg.OrderStatusCompleted {
			return pkg.NewAppError(pkg.ErrStatusConflictCode,
				fmt.Sprintf("cannot complete order in status=%s", order.Status), nil)
		}

		prev := order.Status
		completedAt, err := s.orderRepo.MarkCompleted(ctx, tx, id)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		order.Status = pkg.OrderStatusCompleted
		order.CompletedAt = &completedAt

		return s.appendLog(ctx, tx, traceID, id, &prev, pkg.OrderStatusCompleted, &req.OwnerID)
	})
	if err != nil {
		return views.TransitionResponse{}, err
	}

	s.publishEvent(traceID, "order.completed", order)
	return views.TransitionResponse{
		OrderID:     orderID,
		OrderNo:     order.OrderNo,
		Status:      order.Status,
		CompletedAt: order.CompletedAt,
	}, nil
}

// Cancel is the customer-side cancellation: legal from PLACED only, with an
// optional ownership check against the caller's customer id.
func (s *OrderServiceImpl) Cancel(ctx context.Context, traceID string, orderID string, customerID *string) (views.TransitionResponse, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return views.TransitionResponse{}, err
	}

	var order models.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		order, err = s.lockOrder(ctx, tx, traceID, id)
		if err != nil {
			return err
		}

		if customerID != nil && *customerID != "" {
			if order.CustomerID == nil || order.CustomerID.String() != *customerID {
				return pkg.NewAppError(pkg.ErrForbiddenCode, "not your order", nil)
			}
		}

		if order.Status != pkg.OrderStatusPlaced {
			return pkg.NewAppError(pkg.ErrStatusConflictCode,
				fmt.Sprintf("cannot cancel order in status=%s", order.Status), nil)
		}

		prev := order.Status
		canceledAt, err := s.orderRepo.MarkCanceled(ctx, tx, id)
		if err != nil {
			return pkg.HandleSQLError(traceID, s.logger, err)
		}
		order.Status = pkg.OrderStatusCanceled
		order.CanceledAt = &canceledAt

		return s.appendLog(ctx, tx, traceID, id, &prev, pkg.OrderStatusCanceled, customerID)
	})
	if err != nil {
		return views.TransitionResponse{}, err
	}

	s.publishEvent(traceID, "order.canceled", order)
	return views.TransitionResponse{
		OrderID:    orderID,
		OrderNo:    order.OrderNo,
		Status:     order.Status,
		CanceledAt: order.CanceledAt,
	}, nil
}

func (s *OrderServiceImpl) lockOrder(ctx context.Context, tx pgx.Tx, traceID string, id uuid.UUID) (models.Order, error) {
	order, err := s.orderRepo.GetForUpdate(ctx, tx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, pkg.NewAppError(pkg.ErrNotFoundCode, "order not found", nil)
	}
	if err != nil {
		return models.Order{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return order, nil
}

func (s *OrderServiceImpl) appendLog(ctx context.Context, tx pgx.Tx, traceID string, orderID uuid.UUID, from *pkg.OrderStatus, to pkg.OrderStatus, changedBy *string) error {
	err := s.orderRepo.AppendStatusLog(ctx, tx, models.StatusLog{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
	})
	if err != nil {
		return pkg.HandleSQLError(traceID, s.logger, err)
	}
	return nil
}

func (s *OrderServiceImpl) publishEvent(traceID string, eventType string, order models.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(traceID, NewOrderEvent(eventType, order)); err != nil {
		// Events are best-effort; the store stays the source of truth.
		s.logger.Warn("failed to publish order event",
			zap.String(pkg.TraceId, traceID),
			zap.String("event", eventType),
			zap.Error(err),
		)
	}
}

func serializeResults(result push.Result) string {
	b, err := json.Marshal(result.Responses)
	if err != nil {
		return utils.Truncate(fmt.Sprintf("%v", result.Responses), maxErrorDetailLen)
	}
	return utils.Truncate(string(b), maxErrorDetailLen)
}

func parseOrderID(orderID string) (uuid.UUID, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return uuid.Nil, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("invalid order id: %s", orderID), err)
	}
	return id, nil
}

func parseOptionalUUID(s *string, field string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("%s must be uuid", field), err)
	}
	return &id, nil
}
