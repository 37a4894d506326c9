package storage

import (
	"context"
	"testing"
	"time"

	"qr-storefront/storefront-svc/internal/cart"
	"qr-storefront/storefront-svc/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSlot_ReadWriteDelete(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	slot := NewRedisSlot(client, "s1", time.Hour)

	_, ok, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Write(ctx, []byte(`{"restaurantId":"r1"}`)))
	assert.True(t, mr.Exists("session:s1:qsr_cart"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1:qsr_cart"))

	payload, ok, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"restaurantId":"r1"}`, string(payload))

	require.NoError(t, slot.Delete(ctx))
	_, ok, err = slot.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Delete(ctx))
}

func TestRedisSlot_ExpiresWithSession(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	slot := NewRedisSlot(client, "s1", 30*time.Minute)

	require.NoError(t, slot.Write(ctx, []byte(`{}`)))
	mr.FastForward(31 * time.Minute)

	_, ok, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSlot_BacksCartSession(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()

	first := cart.NewSession(NewRedisSlot(client, "s1", time.Hour), zerolog.Nop())
	first.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	first.AddItem(ctx, domain.MenuItemRef{ItemID: "a", Name: "Tea", Price: decimal.NewFromInt(20)})
	first.AddItem(ctx, domain.MenuItemRef{ItemID: "a", Name: "Tea", Price: decimal.NewFromInt(20)})

	reloaded := cart.NewSession(NewRedisSlot(client, "s1", time.Hour), zerolog.Nop())
	state := reloaded.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)

	other := cart.NewSession(NewRedisSlot(client, "s2", time.Hour), zerolog.Nop())
	state = other.InitCart(ctx, "r1", domain.OrderTypeDineIn)
	assert.Empty(t, state.Items)
}

func TestMenuCache(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	cache := NewMenuCache(client, 5*time.Minute)

	_, ok, err := cache.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	menu := []domain.MenuItem{{ID: "m1", RestaurantID: "r1", Name: "Tea", Price: decimal.NewFromInt(20), Available: true, SortOrder: 1}}
	require.NoError(t, cache.Set(ctx, "r1", menu))
	assert.Equal(t, 5*time.Minute, mr.TTL("menu:r1"))

	got, ok, err := cache.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Tea", got[0].Name)
	assert.True(t, decimal.NewFromInt(20).Equal(got[0].Price))

	require.NoError(t, cache.Invalidate(ctx, "r1"))
	_, ok, err = cache.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMenuCache_CorruptEntry(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewMenuCache(client, time.Minute)
	require.NoError(t, mr.Set("menu:r1", "not json"))

	_, ok, err := cache.Get(context.Background(), "r1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPaymentCounter(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	counter := NewPaymentCounter(client, time.Hour)

	count, err := counter.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = counter.Increment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = counter.Increment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Hour, mr.TTL("session:s1:payment_pending"))

	count, err = counter.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
