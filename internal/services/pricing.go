package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PricedLine is one validated, priced cart line with its option snapshots.
// The snapshots carry catalog name/price/label/delta at order time; later
// catalog edits never touch them.
type PricedLine struct {
	Item    models.OrderItem
	Options []models.OrderItemOption
}

// PricedOrder is the output of the pricing pipeline: all monetary values in
// integer minor currency units.
type PricedOrder struct {
	Lines       []PricedLine
	TotalAmount int64
}

// PricingEngine validates a raw cart against the catalog and prices it.
// It performs no writes; persistence is the order service's job.
type PricingEngine interface {
	PriceOrder(ctx context.Context, tx pgx.Tx, traceID string, items []views.OrderItemIn) (PricedOrder, error)
}

type PricingEngineImpl struct {
	logger   *zap.Logger
	menuRepo repositories.MenuRepository
}

func NewPricingEngine(logger *zap.Logger, menuRepo repositories.MenuRepository) PricingEngine {
	return &PricingEngineImpl{logger: logger, menuRepo: menuRepo}
}

func (p *PricingEngineImpl) PriceOrder(ctx context.Context, tx pgx.Tx, traceID string, items []views.OrderItemIn) (PricedOrder, error) {
	if len(items) == 0 {
		return PricedOrder{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "items is required", nil)
	}

	var out PricedOrder
	for _, in := range items {
		line, err := p.priceLine(ctx, tx, traceID, in)
		if err != nil {
			return PricedOrder{}, err
		}
		out.Lines = append(out.Lines, line)
		out.TotalAmount += line.Item.LineAmount
	}
	return out, nil
}

func (p *PricingEngineImpl) priceLine(ctx context.Context, tx pgx.Tx, traceID string, in views.OrderItemIn) (PricedLine, error) {
	if in.Qty <= 0 {
		return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "qty must be positive", nil)
	}

	menuItemID, err := uuid.Parse(in.MenuItemID)
	if err != nil {
		return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("invalid menu item id: %s", in.MenuItemID), err)
	}

	item, err := p.menuRepo.GetItem(ctx, tx, menuItemID)
	if errors.Is(err, pgx.ErrNoRows) {
		return PricedLine{}, pkg.NewAppError(pkg.ErrNotFoundCode, fmt.Sprintf("menu item not found: %s", in.MenuItemID), nil)
	}
	if err != nil {
		return PricedLine{}, pkg.HandleSQLError(traceID, p.logger, err)
	}
	if !item.IsActive {
		return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidStateCode, fmt.Sprintf("menu item inactive: %s", in.MenuItemID), nil)
	}

	var optionDeltaSum int64
	var snapshots []models.OrderItemOption

	for _, sel := range in.SelectedOptions {
		optionID, err := uuid.Parse(sel.OptionID)
		if err != nil {
			return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("invalid option id: %s", sel.OptionID), err)
		}

		opt, err := p.menuRepo.GetOption(ctx, tx, optionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return PricedLine{}, pkg.NewAppError(pkg.ErrNotFoundCode, fmt.Sprintf("option not found: %s", sel.OptionID), nil)
		}
		if err != nil {
			return PricedLine{}, pkg.HandleSQLError(traceID, p.logger, err)
		}

		attached, err := p.menuRepo.IsOptionAttached(ctx, tx, item.ID, opt.ID)
		if err != nil {
			return PricedLine{}, pkg.HandleSQLError(traceID, p.logger, err)
		}
		// Guards against cross-item option injection: the value may exist,
		// but under an option the item never offered.
		if !attached {
			return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidStateCode,
				fmt.Sprintf("option not allowed for menu item (menuItemId=%s, optionId=%s)", in.MenuItemID, sel.OptionID), nil)
		}

		if opt.SelectionType == pkg.SelectionSingle && len(sel.ValueKeys) != 1 {
			return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("option %s is single-select", opt.Key), nil)
		}
		if opt.SelectionType == pkg.SelectionMulti && len(sel.ValueKeys) < 1 {
			return PricedLine{}, pkg.NewAppError(pkg.ErrInvalidInputCode, fmt.Sprintf("option %s is multi-select", opt.Key), nil)
		}

		values, err := p.resolveValues(ctx, tx, traceID, opt, sel.ValueKeys)
		if err != nil {
			return PricedLine{}, err
		}

		for _, v := range values {
			optionDeltaSum += v.PriceDelta
			snapshots = append(snapshots, models.OrderItemOption{
				OptionKey:  opt.Key,
				OptionName: opt.Name,
				ValueKey:   v.ValueKey,
				ValueLabel: v.Label,
				PriceDelta: v.PriceDelta,
			})
		}
	}

	lineUnit := item.Price + optionDeltaSum
	lineAmount := lineUnit * int64(in.Qty)

	return PricedLine{
		Item: models.OrderItem{
			MenuItemID:    item.ID,
			NameSnapshot:  item.Name,
			PriceSnapshot: item.Price,
			Qty:           in.Qty,
			LineAmount:    lineAmount,
		},
		Options: snapshots,
	}, nil
}

// resolveValues resolves every selected value key under one option, reporting
// all unmatched keys at once, and rejects inactive values.
func (p *PricingEngineImpl) resolveValues(ctx context.Context, tx pgx.Tx, traceID string, opt models.MenuOption, valueKeys []string) ([]models.OptionValue, error) {
	if len(valueKeys) == 0 {
		return nil, nil
	}

	rows, err := p.menuRepo.GetOptionValues(ctx, tx, opt.ID, valueKeys)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, p.logger, err)
	}

	byKey := make(map[string]models.OptionValue, len(rows))
	for _, v := range rows {
		byKey[v.ValueKey] = v
	}

	var missing []string
	for _, k := range valueKeys {
		if _, ok := byKey[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, pkg.NewAppError(pkg.ErrInvalidInputCode,
			fmt.Sprintf("invalid option values: [%s]", strings.Join(missing, ", ")), nil)
	}

	for _, v := range rows {
		if !v.IsActive {
			return nil, pkg.NewAppError(pkg.ErrInvalidStateCode, fmt.Sprintf("option value inactive: %s", v.ValueKey), nil)
		}
	}

	// Preserve the request's selection order in the snapshots.
	ordered := make([]models.OptionValue, 0, len(valueKeys))
	for _, k := range valueKeys {
		ordered = append(ordered, byKey[k])
	}
	return ordered, nil
}
