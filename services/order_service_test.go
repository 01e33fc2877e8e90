package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/services"
)

func placeInput(joined *services.JoinResult, version uint64, key string) services.PlaceInput {
	return services.PlaceInput{
		SessionID:      joined.Session.ID,
		ParticipantID:  joined.Participant.ID,
		CartVersion:    version,
		IdempotencyKey: key,
	}
}

func TestPlaceOrderSnapshotsCart(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	carts := services.NewCartService(f.DB)
	orders := services.NewOrderService(f.DB)

	hot := []services.OptionChoice{{GroupID: f.SpiceGrp.ID, ValueID: f.HotValue.ID}}
	_, err := carts.Apply(addInput(alice, f.Menu.ID, 0, 2, hot))
	require.NoError(t, err)
	cart, err := carts.Apply(addInput(alice, f.Menu2.ID, 1, 1, nil))
	require.NoError(t, err)

	order, replayed, err := orders.Place(placeInput(alice, cart.Version, "key-1"))
	require.NoError(t, err)
	assert.False(t, replayed)

	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.Equal(t, alice.Session.ID, order.SessionID)
	assert.Equal(t, f.Store.ID, order.StoreID)
	assert.Equal(t, 1, order.RoundNumber)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Fried Rice", order.Items[0].MenuName)
	assert.Equal(t, 5500.0, order.Items[0].UnitPrice)
	assert.Equal(t, 11000.0, order.Items[0].LineTotal)
	assert.Equal(t, models.ItemPlaced, order.Items[0].Status)
	assert.Equal(t, 16000.0, order.Subtotal)
	// Tax included: grand total equals the displayed sum.
	assert.Equal(t, 16000.0, order.GrandTotal)

	// Placement leaves the cart untouched.
	after, err := carts.Get(alice.Session.ID, alice.Participant.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.Version, after.Version)
	assert.Len(t, after.Items, 2)
}

func TestPlaceOrderIdempotent(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	carts := services.NewCartService(f.DB)
	orders := services.NewOrderService(f.DB)

	cart, err := carts.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)

	first, replayed, err := orders.Place(placeInput(alice, cart.Version, "key-once"))
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := orders.Place(placeInput(alice, cart.Version, "key-once"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)

	var count int64
	require.NoError(t, f.DB.Model(&models.Order{}).
		Where("session_id = ?", alice.Session.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPlaceOrderStaleVersionRejected(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	carts := services.NewCartService(f.DB)
	orders := services.NewOrderService(f.DB)

	_, err := carts.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)
	_, err = carts.Apply(addInput(alice, f.Menu2.ID, 1, 1, nil))
	require.NoError(t, err)

	// Placing against version 1 when the cart is at 2 must fail and
	// create nothing.
	_, _, err = orders.Place(placeInput(alice, 1, "key-stale"))
	var conflict *services.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, uint64(2), conflict.CurrentVersion)

	var count int64
	require.NoError(t, f.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var records int64
	require.NoError(t, f.DB.Model(&models.IdempotencyRecord{}).Count(&records).Error)
	assert.Equal(t, int64(0), records)
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	_, _, err := orders.Place(placeInput(alice, 0, "key-empty"))
	var validation *services.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestPlaceOrderRequiresKey(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	_, _, err := orders.Place(placeInput(alice, 0, ""))
	var validation *services.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func placeOne(t *testing.T, f *fixture, joined *services.JoinResult, key string) *models.Order {
	t.Helper()
	carts := services.NewCartService(f.DB)
	orders := services.NewOrderService(f.DB)

	var cart models.SharedCart
	require.NoError(t, f.DB.Where("session_id = ?", joined.Session.ID).First(&cart).Error)

	updated, err := carts.Apply(addInput(joined, f.Menu.ID, cart.Version, 1, nil))
	require.NoError(t, err)

	order, _, err := orders.Place(placeInput(joined, updated.Version, key))
	require.NoError(t, err)
	return order
}

func TestOrderStatusAdvances(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	order := placeOne(t, f, alice, "key-status")

	for _, status := range []string{
		models.OrderAccepted, models.OrderPreparing, models.OrderReady, models.OrderServed,
	} {
		updated, err := orders.AdvanceStatus(order.ID, f.Store.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	// SERVED is terminal.
	_, err := orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderCancelled)
	var validation *services.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestOrderStatusNoBackwardTransition(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	order := placeOne(t, f, alice, "key-back")

	_, err := orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderPreparing)
	require.NoError(t, err)

	_, err = orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderAccepted)
	var validation *services.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestOrderCancelCascadesToItems(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	order := placeOne(t, f, alice, "key-cancel")

	cancelled, err := orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	for _, item := range cancelled.Items {
		assert.Equal(t, models.ItemCancelled, item.Status)
	}
}

func TestOrderCancelNotResurrected(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	order := placeOne(t, f, alice, "key-resurrect")

	_, err := orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderCancelled)
	require.NoError(t, err)

	// A staff device still holding the pre-cancel state cannot push the
	// order forward again; the transition is checked and applied against
	// the stored status in one transaction.
	_, err = orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderPreparing)
	var validation *services.ValidationError
	require.ErrorAs(t, err, &validation)

	var current models.Order
	require.NoError(t, f.DB.Preload("Items").First(&current, order.ID).Error)
	assert.Equal(t, models.OrderCancelled, current.Status)
	for _, item := range current.Items {
		assert.Equal(t, models.ItemCancelled, item.Status)
	}

	// Items of a cancelled order are equally frozen.
	_, err = orders.AdvanceItemStatus(current.Items[0].ID, f.Store.ID, models.ItemReady)
	assert.ErrorAs(t, err, &validation)
}

func TestPlaceOrderAutoConfirmMode(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.DB.Model(&f.Store).
		Update("order_confirm_mode", models.ConfirmAuto).Error)

	alice := f.join(t, "alice")
	carts := services.NewCartService(f.DB)
	orders := services.NewOrderService(f.DB)

	cart, err := carts.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)

	order, _, err := orders.Place(placeInput(alice, cart.Version, "key-auto"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderAccepted, order.Status)
	// The kitchen queue still starts from scratch.
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.ItemPlaced, order.Items[0].Status)

	// Already accepted, so the next staff step is PREPARING.
	updated, err := orders.AdvanceStatus(order.ID, f.Store.ID, models.OrderPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, updated.Status)
}

func TestOrderStatusWrongStore(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	orders := services.NewOrderService(f.DB)

	order := placeOne(t, f, alice, "key-store")

	otherStore := f.Store.ID + 100
	_, err := orders.AdvanceStatus(order.ID, otherStore, models.OrderAccepted)
	var authErr *services.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestItemReadyDerivesOrderReady(t *testing.T) {
	f := setupFixture(t)
	alice := f.join(t, "alice")
	carts := services.NewCartService(f.DB)
	orders := services.NewOrderService(f.DB)

	_, err := carts.Apply(addInput(alice, f.Menu.ID, 0, 1, nil))
	require.NoError(t, err)
	cart, err := carts.Apply(addInput(alice, f.Menu2.ID, 1, 1, nil))
	require.NoError(t, err)

	order, _, err := orders.Place(placeInput(alice, cart.Version, "key-ready"))
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	updated, err := orders.AdvanceItemStatus(order.Items[0].ID, f.Store.ID, models.ItemReady)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, updated.Status)

	updated, err = orders.AdvanceItemStatus(order.Items[1].ID, f.Store.ID, models.ItemReady)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, updated.Status)
}
