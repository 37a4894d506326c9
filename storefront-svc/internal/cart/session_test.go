package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"qr-storefront/storefront-svc/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func tea() domain.MenuItemRef {
	return domain.MenuItemRef{ItemID: "a", Name: "Tea", Price: decimal.NewFromInt(20)}
}

func samosa() domain.MenuItemRef {
	return domain.MenuItemRef{ItemID: "b", Name: "Samosa", Price: decimal.RequireFromString("12.50")}
}

func newTestSession(slot Slot) *Session {
	return NewSession(slot, zerolog.Nop())
}

// brokenSlot fails every operation.
type brokenSlot struct {
	writes int
}

func (b *brokenSlot) Read(ctx context.Context) ([]byte, bool, error) {
	return nil, false, errors.New("slot unavailable")
}

func (b *brokenSlot) Write(ctx context.Context, payload []byte) error {
	b.writes++
	return errors.New("slot unavailable")
}

func (b *brokenSlot) Delete(ctx context.Context) error {
	return errors.New("slot unavailable")
}

func TestInitCart_FreshCartIsPersisted(t *testing.T) {
	slot := NewMemorySlot()
	session := newTestSession(slot)

	state := session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	assert.Equal(t, "r1", state.RestaurantID)
	assert.Equal(t, domain.OrderTypeDineIn, state.OrderType)
	assert.Empty(t, state.Items)

	payload, ok, err := slot.Read(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"restaurantId":"r1","orderType":"dine_in","items":[]}`, string(payload))
}

func TestInitCart_SameScopeResumes(t *testing.T) {
	session := newTestSession(NewMemorySlot())

	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())
	state := session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	require.Len(t, state.Items, 1)
	assert.Equal(t, 1, state.Items[0].Quantity)
}

func TestInitCart_ResumesFromSlotAfterReload(t *testing.T) {
	slot := NewMemorySlot()

	first := newTestSession(slot)
	first.InitCart(ctx, "r1", domain.OrderTypeTakeaway)
	first.AddItem(ctx, tea())
	first.AddItem(ctx, samosa())
	first.AddItem(ctx, tea())
	first.SetMobileNumber(ctx, "9876543210")
	want, _ := first.Snapshot()

	reloaded := newTestSession(slot)
	_, active := reloaded.Snapshot()
	require.False(t, active)

	got := reloaded.InitCart(ctx, "r1", domain.OrderTypeTakeaway)

	assert.Equal(t, want.RestaurantID, got.RestaurantID)
	assert.Equal(t, want.OrderType, got.OrderType)
	assert.Equal(t, want.MobileNumber, got.MobileNumber)
	require.Len(t, got.Items, 2)
	for i := range want.Items {
		assert.Equal(t, want.Items[i].ItemID, got.Items[i].ItemID)
		assert.Equal(t, want.Items[i].Name, got.Items[i].Name)
		assert.Equal(t, want.Items[i].Quantity, got.Items[i].Quantity)
		assert.True(t, want.Items[i].Price.Equal(got.Items[i].Price))
	}
}

func TestInitCart_DifferentOrderTypeStartsOver(t *testing.T) {
	slot := NewMemorySlot()
	session := newTestSession(slot)

	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())

	state := session.InitCart(ctx, "r1", domain.OrderTypeTakeaway)
	assert.Equal(t, domain.OrderTypeTakeaway, state.OrderType)
	assert.Empty(t, state.Items)

	// The dine-in cart is gone from the slot as well.
	state = newTestSession(slot).InitCart(ctx, "r1", domain.OrderTypeDineIn)
	assert.Empty(t, state.Items)
}

func TestInitCart_DifferentRestaurantStartsOver(t *testing.T) {
	session := newTestSession(NewMemorySlot())

	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())

	state := session.InitCart(ctx, "r2", domain.OrderTypeDineIn)
	assert.Equal(t, "r2", state.RestaurantID)
	assert.Empty(t, state.Items)
}

func TestInitCart_CorruptSlotFallsBackToFreshCart(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"restaurantId":`},
		{"unknown order type", `{"restaurantId":"r1","orderType":"delivery","items":[]}`},
		{"zero quantity", `{"restaurantId":"r1","orderType":"dine_in","items":[{"itemId":"a","name":"Tea","price":"20","quantity":0}]}`},
		{"duplicate item", `{"restaurantId":"r1","orderType":"dine_in","items":[{"itemId":"a","name":"Tea","price":"20","quantity":1},{"itemId":"a","name":"Tea","price":"20","quantity":1}]}`},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			slot := NewMemorySlot()
			require.NoError(t, slot.Write(ctx, []byte(testCase.payload)))

			state := newTestSession(slot).InitCart(ctx, "r1", domain.OrderTypeDineIn)

			assert.Equal(t, "r1", state.RestaurantID)
			assert.Empty(t, state.Items)

			payload, ok, err := slot.Read(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"restaurantId":"r1","orderType":"dine_in","items":[]}`, string(payload))
		})
	}
}

func TestInitCart_UnreadableSlotStillActivates(t *testing.T) {
	slot := &brokenSlot{}
	session := newTestSession(slot)

	state := session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	assert.Equal(t, "r1", state.RestaurantID)
	assert.Equal(t, 1, slot.writes)

	state, ok := session.AddItem(ctx, tea())
	require.True(t, ok)
	assert.Len(t, state.Items, 1)
}

func TestAddItem_SameItemTwiceMergesLine(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	session.AddItem(ctx, tea())
	state, ok := session.AddItem(ctx, tea())

	require.True(t, ok)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "a", state.Items[0].ItemID)
	assert.Equal(t, 2, state.Items[0].Quantity)
}

func TestAddItem_KeepsInsertionOrder(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	session.AddItem(ctx, samosa())
	session.AddItem(ctx, tea())
	state, _ := session.AddItem(ctx, samosa())

	require.Len(t, state.Items, 2)
	assert.Equal(t, "b", state.Items[0].ItemID)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, "a", state.Items[1].ItemID)
}

func TestAddItem_KeepsPriceSnapshot(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	session.AddItem(ctx, tea())
	repriced := tea()
	repriced.Price = decimal.NewFromInt(25)
	repriced.Name = "Masala Tea"
	state, _ := session.AddItem(ctx, repriced)

	require.Len(t, state.Items, 1)
	assert.Equal(t, "Tea", state.Items[0].Name)
	assert.True(t, decimal.NewFromInt(20).Equal(state.Items[0].Price))
	assert.True(t, decimal.NewFromInt(40).Equal(state.Total()))
}

func TestAddItem_WithoutInitIsNoop(t *testing.T) {
	slot := NewMemorySlot()
	session := newTestSession(slot)

	_, ok := session.AddItem(ctx, tea())
	assert.False(t, ok)

	_, active := session.Snapshot()
	assert.False(t, active)

	_, stored, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		itemID   string
		quantity int
		want     []domain.CartLineItem
	}{
		{"set quantity", "a", 5, []domain.CartLineItem{{ItemID: "a", Quantity: 5}, {ItemID: "b", Quantity: 1}}},
		{"zero removes line", "a", 0, []domain.CartLineItem{{ItemID: "b", Quantity: 1}}},
		{"negative removes line", "b", -3, []domain.CartLineItem{{ItemID: "a", Quantity: 1}}},
		{"absent item ignored", "zzz", 4, []domain.CartLineItem{{ItemID: "a", Quantity: 1}, {ItemID: "b", Quantity: 1}}},
		{"absent item removal ignored", "zzz", 0, []domain.CartLineItem{{ItemID: "a", Quantity: 1}, {ItemID: "b", Quantity: 1}}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			session := newTestSession(NewMemorySlot())
			session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
			session.AddItem(ctx, tea())
			session.AddItem(ctx, samosa())

			state, ok := session.UpdateQuantity(ctx, testCase.itemID, testCase.quantity)
			require.True(t, ok)
			require.Len(t, state.Items, len(testCase.want))
			for i, want := range testCase.want {
				assert.Equal(t, want.ItemID, state.Items[i].ItemID)
				assert.Equal(t, want.Quantity, state.Items[i].Quantity)
			}
		})
	}
}

func TestUpdateQuantity_RemovalIsPersisted(t *testing.T) {
	slot := NewMemorySlot()
	session := newTestSession(slot)
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())

	session.UpdateQuantity(ctx, "a", 0)

	payload, _, err := slot.Read(ctx)
	require.NoError(t, err)
	var stored domain.CartState
	require.NoError(t, json.Unmarshal(payload, &stored))
	assert.Empty(t, stored.Items)
}

func TestUpdateQuantity_WithoutInitIsNoop(t *testing.T) {
	session := newTestSession(NewMemorySlot())

	_, ok := session.UpdateQuantity(ctx, "a", 3)
	assert.False(t, ok)
}

func TestSetMobileNumber(t *testing.T) {
	session := newTestSession(NewMemorySlot())

	_, ok := session.SetMobileNumber(ctx, "9876543210")
	assert.False(t, ok)

	session.InitCart(ctx, "r1", domain.OrderTypeTakeaway)
	state, ok := session.SetMobileNumber(ctx, "not-a-number")
	require.True(t, ok)
	assert.Equal(t, "not-a-number", state.MobileNumber)

	state, _ = session.SetMobileNumber(ctx, "9876543210")
	assert.Equal(t, "9876543210", state.MobileNumber)
}

func TestSetMobileNumber_AcceptedForDineIn(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	state, ok := session.SetMobileNumber(ctx, "9876543210")
	require.True(t, ok)
	assert.Equal(t, "9876543210", state.MobileNumber)
}

func TestClearCart(t *testing.T) {
	slot := NewMemorySlot()
	session := newTestSession(slot)
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())

	session.ClearCart(ctx)

	_, active := session.Snapshot()
	assert.False(t, active)
	_, stored, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.False(t, stored)

	// Nothing happens until the cart is initialised again.
	_, ok := session.AddItem(ctx, tea())
	assert.False(t, ok)
	_, active = session.Snapshot()
	assert.False(t, active)

	session.ClearCart(ctx)
	_, active = session.Snapshot()
	assert.False(t, active)
}

func TestClearCart_ThenInitStartsEmpty(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())
	session.ClearCart(ctx)

	state := session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	assert.Empty(t, state.Items)
}

func TestWriteFailureKeepsMemoryAuthoritative(t *testing.T) {
	session := newTestSession(&brokenSlot{})
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())
	session.AddItem(ctx, tea())

	state := session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)

	session.ClearCart(ctx)
	_, active := session.Snapshot()
	assert.False(t, active)
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	before, _ := session.AddItem(ctx, tea())

	before.Items[0].Quantity = 99
	before.Items = append(before.Items, domain.CartLineItem{ItemID: "x", Quantity: 1})

	after, _ := session.Snapshot()
	require.Len(t, after.Items, 1)
	assert.Equal(t, 1, after.Items[0].Quantity)

	next, _ := session.AddItem(ctx, tea())
	assert.Equal(t, 2, next.Items[0].Quantity)
	assert.Equal(t, 1, after.Items[0].Quantity)
}

func TestOnChange(t *testing.T) {
	session := newTestSession(NewMemorySlot())

	var seen []int
	var lastActive bool
	unsubscribe := session.OnChange(func(state domain.CartState, active bool) {
		seen = append(seen, state.ItemCount())
		lastActive = active
	})

	session.AddItem(ctx, tea())
	assert.Empty(t, seen)

	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	session.AddItem(ctx, tea())
	session.AddItem(ctx, tea())
	session.UpdateQuantity(ctx, "missing", 3)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.True(t, lastActive)

	session.ClearCart(ctx)
	assert.Equal(t, []int{0, 1, 2, 0}, seen)
	assert.False(t, lastActive)

	session.ClearCart(ctx)
	assert.Len(t, seen, 4)

	unsubscribe()
	unsubscribe()
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	assert.Len(t, seen, 4)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := newTestSession(NewMemorySlot())
	b := newTestSession(NewMemorySlot())

	a.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	a.AddItem(ctx, tea())

	_, active := b.Snapshot()
	assert.False(t, active)

	state := b.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	assert.Empty(t, state.Items)
}

func TestConcurrentAddsAreSerialised(t *testing.T) {
	session := newTestSession(NewMemorySlot())
	session.InitCart(ctx, "r1", domain.OrderTypeDineIn)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.AddItem(ctx, tea())
		}()
	}
	wg.Wait()

	state, _ := session.Snapshot()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 50, state.Items[0].Quantity)
}
