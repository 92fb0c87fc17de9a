package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/push"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// The fakes below back the service tests with in-memory state. Transactions
// collapse to a direct function call; repositories ignore their tx/db
// arguments.

var testLogger = zap.NewNop()

type fakeTxRunner struct {
	beginErr error
}

func (f *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(ctx, nil)
}

// --- menu ---

type fakeMenuRepo struct {
	items    map[uuid.UUID]models.MenuItem
	options  map[uuid.UUID]models.MenuOption
	attached map[string]bool // "itemID/optionID"
	values   map[uuid.UUID][]models.OptionValue
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{
		items:    map[uuid.UUID]models.MenuItem{},
		options:  map[uuid.UUID]models.MenuOption{},
		attached: map[string]bool{},
		values:   map[uuid.UUID][]models.OptionValue{},
	}
}

func attachKey(itemID, optionID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", itemID, optionID)
}

func (f *fakeMenuRepo) addItem(item models.MenuItem) models.MenuItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.ID] = item
	return item
}

func (f *fakeMenuRepo) addOption(item models.MenuItem, opt models.MenuOption, values ...models.OptionValue) models.MenuOption {
	if opt.ID == uuid.Nil {
		opt.ID = uuid.New()
	}
	f.options[opt.ID] = opt
	f.attached[attachKey(item.ID, opt.ID)] = true
	for i := range values {
		values[i].OptionID = opt.ID
	}
	f.values[opt.ID] = append(f.values[opt.ID], values...)
	return opt
}

func (f *fakeMenuRepo) GetItem(_ context.Context, _ pgx.Tx, id uuid.UUID) (models.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return models.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (f *fakeMenuRepo) GetOption(_ context.Context, _ pgx.Tx, id uuid.UUID) (models.MenuOption, error) {
	opt, ok := f.options[id]
	if !ok {
		return models.MenuOption{}, pgx.ErrNoRows
	}
	return opt, nil
}

func (f *fakeMenuRepo) IsOptionAttached(_ context.Context, _ pgx.Tx, menuItemID, optionID uuid.UUID) (bool, error) {
	return f.attached[attachKey(menuItemID, optionID)], nil
}

func (f *fakeMenuRepo) GetOptionValues(_ context.Context, _ pgx.Tx, optionID uuid.UUID, valueKeys []string) ([]models.OptionValue, error) {
	wanted := map[string]bool{}
	for _, k := range valueKeys {
		wanted[k] = true
	}
	var out []models.OptionValue
	for _, v := range f.values[optionID] {
		if wanted[v.ValueKey] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeMenuRepo) ListCategories(context.Context, *database.DB) ([]models.MenuCategory, error) {
	return nil, nil
}

func (f *fakeMenuRepo) ListItems(context.Context, *database.DB) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeMenuRepo) FindItem(_ context.Context, _ *database.DB, id uuid.UUID) (*models.MenuItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeMenuRepo) ListOptions(context.Context, *database.DB) ([]models.MenuOption, error) {
	return nil, nil
}

func (f *fakeMenuRepo) ListOptionValues(context.Context, *database.DB) ([]models.OptionValue, error) {
	return nil, nil
}

func (f *fakeMenuRepo) ListItemOptionMap(context.Context, *database.DB) ([]models.ItemOptionMapping, error) {
	return nil, nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders      map[uuid.UUID]*models.Order
	items       []models.OrderItem
	itemOptions []models.OrderItemOption
	logs        []models.StatusLog
	nextOrderNo int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderRepo) seed(order models.Order) uuid.UUID {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.nextOrderNo++
	order.OrderNo = f.nextOrderNo
	order.CreatedAt = time.Now()
	f.orders[order.ID] = &order
	return order.ID
}

func (f *fakeOrderRepo) Insert(_ context.Context, _ pgx.Tx, order *models.Order) error {
	order.ID = uuid.New()
	f.nextOrderNo++
	order.OrderNo = f.nextOrderNo
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) InsertItem(_ context.Context, _ pgx.Tx, item *models.OrderItem) error {
	item.ID = uuid.New()
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeOrderRepo) InsertItemOptions(_ context.Context, _ pgx.Tx, options []models.OrderItemOption) error {
	f.itemOptions = append(f.itemOptions, options...)
	return nil
}

func (f *fakeOrderRepo) GetForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, pgx.ErrNoRows
	}
	return *order, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, _ *database.DB, id uuid.UUID) (models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, pgx.ErrNoRows
	}
	return *order, nil
}

func (f *fakeOrderRepo) ListRecent(_ context.Context, _ *database.DB, customerID *uuid.UUID, status *pkg.OrderStatus, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if customerID != nil && (order.CustomerID == nil || *order.CustomerID != *customerID) {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, *order)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListItems(_ context.Context, _ *database.DB, orderID uuid.UUID) ([]models.OrderItem, error) {
	var out []models.OrderItem
	for _, it := range f.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListItemOptions(_ context.Context, _ *database.DB, itemIDs []uuid.UUID) ([]models.OrderItemOption, error) {
	ids := map[uuid.UUID]bool{}
	for _, id := range itemIDs {
		ids[id] = true
	}
	var out []models.OrderItemOption
	for _, opt := range f.itemOptions {
		if ids[opt.OrderItemID] {
			out = append(out, opt)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) MarkAccepted(_ context.Context, _ pgx.Tx, id uuid.UUID) (time.Time, error) {
	now := time.Now()
	f.orders[id].Status = pkg.OrderStatusAccepted
	f.orders[id].AcceptedAt = &now
	return now, nil
}

func (f *fakeOrderRepo) MarkCompleted(_ context.Context, _ pgx.Tx, id uuid.UUID) (time.Time, error) {
	now := time.Now()
	f.orders[id].Status = pkg.OrderStatusCompleted
	f.orders[id].CompletedAt = &now
	return now, nil
}

func (f *fakeOrderRepo) MarkCanceled(_ context.Context, _ pgx.Tx, id uuid.UUID) (time.Time, error) {
	now := time.Now()
	f.orders[id].Status = pkg.OrderStatusCanceled
	f.orders[id].CanceledAt = &now
	return now, nil
}

func (f *fakeOrderRepo) AppendStatusLog(_ context.Context, _ pgx.Tx, log models.StatusLog) error {
	log.ID = uuid.New()
	log.CreatedAt = time.Now()
	f.logs = append(f.logs, log)
	return nil
}

// --- notifications ---

type fakeNotifRepo struct {
	records map[uuid.UUID]*models.Notification
	order   []uuid.UUID // insertion order, stands in for ORDER BY created_at
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{records: map[uuid.UUID]*models.Notification{}}
}

func (f *fakeNotifRepo) Enqueue(_ context.Context, _ pgx.Tx, rec *models.Notification) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.SendStatus = pkg.SendStatusQueued
	cp := *rec
	f.records[rec.ID] = &cp
	f.order = append(f.order, rec.ID)
	return nil
}

func (f *fakeNotifRepo) MarkSent(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	rec, ok := f.records[id]
	if !ok || rec.SendStatus != pkg.SendStatusQueued {
		return false, nil
	}
	now := time.Now()
	rec.SendStatus = pkg.SendStatusSent
	rec.SentAt = &now
	rec.ErrorMessage = nil
	return true, nil
}

func (f *fakeNotifRepo) MarkFailed(_ context.Context, _ pgx.Tx, id uuid.UUID, errMsg string) (bool, error) {
	rec, ok := f.records[id]
	if !ok || rec.SendStatus != pkg.SendStatusQueued {
		return false, nil
	}
	now := time.Now()
	rec.SendStatus = pkg.SendStatusFailed
	rec.SentAt = &now
	rec.ErrorMessage = &errMsg
	return true, nil
}

func (f *fakeNotifRepo) ClaimQueued(_ context.Context, _ pgx.Tx, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, id := range f.order {
		if len(out) == limit {
			break
		}
		if rec := f.records[id]; rec.SendStatus == pkg.SendStatusQueued {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeNotifRepo) List(_ context.Context, _ *database.DB, orderID *uuid.UUID, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, id := range f.order {
		rec := f.records[id]
		if orderID != nil && rec.OrderID != *orderID {
			continue
		}
		out = append(out, *rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- devices ---

type fakeDeviceRepo struct {
	tokens map[uuid.UUID][]string
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{tokens: map[uuid.UUID][]string{}}
}

func (f *fakeDeviceRepo) ActiveTokens(_ context.Context, _ pgx.Tx, userID uuid.UUID) ([]string, error) {
	return f.tokens[userID], nil
}

func (f *fakeDeviceRepo) Upsert(_ context.Context, _ pgx.Tx, device *models.Device) error {
	device.ID = uuid.New()
	device.IsActive = true
	f.tokens[device.UserID] = append(f.tokens[device.UserID], device.FcmToken)
	return nil
}

func (f *fakeDeviceRepo) Deactivate(_ context.Context, _ pgx.Tx, fcmToken string) (bool, error) {
	for userID, tokens := range f.tokens {
		for i, tok := range tokens {
			if tok == fcmToken {
				f.tokens[userID] = append(tokens[:i], tokens[i+1:]...)
				return true, nil
			}
		}
	}
	return false, nil
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]models.User{}}
}

func (f *fakeUserRepo) UpsertGuest(_ context.Context, _ pgx.Tx, id uuid.UUID, name *string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		user = models.User{ID: id, Role: "customer", CreatedAt: time.Now()}
	}
	if name != nil {
		user.Name = name
	}
	user.UpdatedAt = time.Now()
	f.users[id] = user
	return user, nil
}

// --- push ---

type fakePusher struct {
	result push.Result
	err    error
	calls  [][]string // tokens per Send call
}

func (f *fakePusher) Send(_ context.Context, tokens []string, _, _ string, _ map[string]string) (push.Result, error) {
	f.calls = append(f.calls, tokens)
	if f.err != nil {
		return push.Result{}, f.err
	}
	return f.result, nil
}

func successResult(tokens int) push.Result {
	res := push.Result{SuccessCount: tokens}
	for i := 0; i < tokens; i++ {
		res.Responses = append(res.Responses, push.TokenResult{
			Token:     fmt.Sprintf("token-%d", i),
			Success:   true,
			MessageID: fmt.Sprintf("msg-%d", i),
		})
	}
	return res
}
