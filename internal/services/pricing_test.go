package services

import (
	"context"
	"errors"
	"testing"

	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pizzaMenu() (*fakeMenuRepo, models.MenuItem, models.MenuOption, models.MenuOption) {
	menu := newFakeMenuRepo()
	pizza := menu.addItem(models.MenuItem{Name: "Pizza", Price: 11000, IsActive: true})
	size := menu.addOption(pizza,
		models.MenuOption{Key: "size", Name: "Size", SelectionType: pkg.SelectionSingle},
		models.OptionValue{ValueKey: "L", Label: "Large", PriceDelta: 1000, IsActive: true},
		models.OptionValue{ValueKey: "M", Label: "Medium", PriceDelta: 0, IsActive: true},
	)
	toppings := menu.addOption(pizza,
		models.MenuOption{Key: "toppings", Name: "Toppings", SelectionType: pkg.SelectionMulti},
		models.OptionValue{ValueKey: "cheese", Label: "Extra Cheese", PriceDelta: 500, IsActive: true},
		models.OptionValue{ValueKey: "olive", Label: "Olives", PriceDelta: 300, IsActive: true},
		models.OptionValue{ValueKey: "truffle", Label: "Truffle", PriceDelta: 2000, IsActive: false},
	)
	return menu, pizza, size, toppings
}

func appErrCode(t *testing.T, err error) pkg.ErrorCode {
	t.Helper()
	var appErr pkg.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestPriceOrder_PizzaWithOptions(t *testing.T) {
	menu, pizza, size, _ := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	priced, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{
			MenuItemID: pizza.ID.String(),
			Qty:        2,
			SelectedOptions: []views.SelectedOptionIn{
				{OptionID: size.ID.String(), ValueKeys: []string{"L"}},
			},
		},
	})

	require.NoError(t, err)
	// (11000 + 1000) * 2
	assert.Equal(t, int64(24000), priced.TotalAmount)
	require.Len(t, priced.Lines, 1)

	line := priced.Lines[0]
	assert.Equal(t, "Pizza", line.Item.NameSnapshot)
	assert.Equal(t, int64(11000), line.Item.PriceSnapshot)
	assert.Equal(t, int64(24000), line.Item.LineAmount)
	require.Len(t, line.Options, 1)
	assert.Equal(t, "size", line.Options[0].OptionKey)
	assert.Equal(t, "L", line.Options[0].ValueKey)
	assert.Equal(t, int64(1000), line.Options[0].PriceDelta)
}

func TestPriceOrder_MultiSelectSumsDeltas(t *testing.T) {
	menu, pizza, size, toppings := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	priced, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{
			MenuItemID: pizza.ID.String(),
			Qty:        1,
			SelectedOptions: []views.SelectedOptionIn{
				{OptionID: size.ID.String(), ValueKeys: []string{"M"}},
				{OptionID: toppings.ID.String(), ValueKeys: []string{"cheese", "olive"}},
			},
		},
	})

	require.NoError(t, err)
	// 11000 + 0 + 500 + 300
	assert.Equal(t, int64(11800), priced.TotalAmount)
	// Snapshots keep the request's selection order.
	require.Len(t, priced.Lines[0].Options, 3)
	assert.Equal(t, "M", priced.Lines[0].Options[0].ValueKey)
	assert.Equal(t, "cheese", priced.Lines[0].Options[1].ValueKey)
	assert.Equal(t, "olive", priced.Lines[0].Options[2].ValueKey)
}

func TestPriceOrder_SingleSelectArity(t *testing.T) {
	menu, pizza, size, _ := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	for _, keys := range [][]string{{}, {"L", "M"}} {
		_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
			{
				MenuItemID: pizza.ID.String(),
				Qty:        1,
				SelectedOptions: []views.SelectedOptionIn{
					{OptionID: size.ID.String(), ValueKeys: keys},
				},
			},
		})
		require.Error(t, err)
		assert.Equal(t, pkg.ErrInvalidInputCode, appErrCode(t, err))
	}
}

func TestPriceOrder_MultiSelectRequiresAValue(t *testing.T) {
	menu, pizza, _, toppings := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{
			MenuItemID: pizza.ID.String(),
			Qty:        1,
			SelectedOptions: []views.SelectedOptionIn{
				{OptionID: toppings.ID.String(), ValueKeys: nil},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidInputCode, appErrCode(t, err))
}

func TestPriceOrder_OptionFromAnotherItemRejected(t *testing.T) {
	menu, pizza, _, _ := pizzaMenu()
	pasta := menu.addItem(models.MenuItem{Name: "Pasta", Price: 9000, IsActive: true})
	spice := menu.addOption(pasta,
		models.MenuOption{Key: "spice", Name: "Spice Level", SelectionType: pkg.SelectionSingle},
		models.OptionValue{ValueKey: "hot", Label: "Hot", PriceDelta: 0, IsActive: true},
	)
	engine := NewPricingEngine(testLogger, menu)

	// spice exists in the catalog but was never attached to pizza.
	_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{
			MenuItemID: pizza.ID.String(),
			Qty:        1,
			SelectedOptions: []views.SelectedOptionIn{
				{OptionID: spice.ID.String(), ValueKeys: []string{"hot"}},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidStateCode, appErrCode(t, err))
}

func TestPriceOrder_UnknownValueKeysReportedTogether(t *testing.T) {
	menu, pizza, _, toppings := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{
			MenuItemID: pizza.ID.String(),
			Qty:        1,
			SelectedOptions: []views.SelectedOptionIn{
				{OptionID: toppings.ID.String(), ValueKeys: []string{"cheese", "pineapple", "anchovy"}},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidInputCode, appErrCode(t, err))
	assert.Contains(t, err.Error(), "pineapple")
	assert.Contains(t, err.Error(), "anchovy")
}

func TestPriceOrder_InactiveValueRejected(t *testing.T) {
	menu, pizza, _, toppings := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{
			MenuItemID: pizza.ID.String(),
			Qty:        1,
			SelectedOptions: []views.SelectedOptionIn{
				{OptionID: toppings.ID.String(), ValueKeys: []string{"truffle"}},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidStateCode, appErrCode(t, err))
}

func TestPriceOrder_InactiveItemRejected(t *testing.T) {
	menu := newFakeMenuRepo()
	retired := menu.addItem(models.MenuItem{Name: "Retired Dish", Price: 5000, IsActive: false})
	engine := NewPricingEngine(testLogger, menu)

	_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{MenuItemID: retired.ID.String(), Qty: 1},
	})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidStateCode, appErrCode(t, err))
}

func TestPriceOrder_UnknownItemNotFound(t *testing.T) {
	menu := newFakeMenuRepo()
	engine := NewPricingEngine(testLogger, menu)

	_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
		{MenuItemID: "0e6f1f35-9c4f-4a91-9d57-54c4d9a7c111", Qty: 1},
	})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrNotFoundCode, appErrCode(t, err))
}

func TestPriceOrder_EmptyCartRejected(t *testing.T) {
	menu := newFakeMenuRepo()
	engine := NewPricingEngine(testLogger, menu)

	_, err := engine.PriceOrder(context.Background(), nil, "t1", nil)
	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidInputCode, appErrCode(t, err))
}

func TestPriceOrder_NonPositiveQtyRejected(t *testing.T) {
	menu, pizza, _, _ := pizzaMenu()
	engine := NewPricingEngine(testLogger, menu)

	for _, qty := range []int{0, -1} {
		_, err := engine.PriceOrder(context.Background(), nil, "t1", []views.OrderItemIn{
			{MenuItemID: pizza.ID.String(), Qty: qty},
		})
		require.Error(t, err)
		assert.Equal(t, pkg.ErrInvalidInputCode, appErrCode(t, err))
	}
}
