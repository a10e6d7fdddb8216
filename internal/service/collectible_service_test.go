package service

import (
	"context"
	"testing"

	"shelfswap/internal/models"
	"shelfswap/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectibleService_CreateUpdateDelete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.store, "owner")
	other := testutil.CreateUser(t, env.store, "other")

	_, err := env.collectibles.Create(ctx, CreateCollectibleInput{UserID: owner.ID, Name: "Hopper", Series: "Dimoo", Variant: "Regular", Rarity: "mythic"})
	assertAppError(t, err, models.CodeValidation)

	c, err := env.collectibles.Create(ctx, CreateCollectibleInput{UserID: owner.ID, Name: " Hopper ", Series: "Dimoo", Variant: "Regular", Rarity: "rare", ForTrade: true})
	require.NoError(t, err)
	assert.Equal(t, "Hopper", c.Name)
	assert.Equal(t, models.RarityRare, c.Rarity)

	name := "Hopper v2"
	_, err = env.collectibles.Update(ctx, c.ID, other.ID, UpdateCollectibleInput{Name: &name})
	assertAppError(t, err, models.CodeForbidden)

	_, err = env.collectibles.Update(ctx, c.ID, owner.ID, UpdateCollectibleInput{})
	assertAppError(t, err, models.CodeValidation)

	rarity := "limited"
	updated, err := env.collectibles.Update(ctx, c.ID, owner.ID, UpdateCollectibleInput{Name: &name, Rarity: &rarity})
	require.NoError(t, err)
	assert.Equal(t, "Hopper v2", updated.Name)
	assert.Equal(t, models.RarityLimited, updated.Rarity)

	assertAppError(t, env.collectibles.Delete(ctx, c.ID, other.ID), models.CodeForbidden)
	require.NoError(t, env.collectibles.Delete(ctx, c.ID, owner.ID))
	_, err = env.collectibles.Get(ctx, c.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestCollectibleService_DeleteBlockedByOpenTrade(t *testing.T) {
	t.Parallel()
	f := newTradeFixture(t)
	ctx := context.Background()
	trade := f.propose(t)

	assertAppError(t, f.env.collectibles.Delete(ctx, f.offered.ID, f.alice.ID), models.CodeInvalidState)

	_, err := f.setStatus(trade, f.bob, models.TradeStatusRejected)
	require.NoError(t, err)
	require.NoError(t, f.env.collectibles.Delete(ctx, f.offered.ID, f.alice.ID))
}

func TestCollectibleService_ForTradeListingExcludesPrivateItems(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.store, "owner")
	listed := testutil.CreateCollectible(t, env.store, owner.ID, "Listed", "Dimoo", true)
	hidden := testutil.CreateCollectible(t, env.store, owner.ID, "Hidden", "Dimoo", false)

	items, err := env.collectibles.ListForTrade(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, listed.ID, items[0].ID)
	assert.Equal(t, "owner", items[0].Owner.Username)

	flag := true
	_, err = env.collectibles.Update(ctx, hidden.ID, owner.ID, UpdateCollectibleInput{ForTrade: &flag})
	require.NoError(t, err)
	items, err = env.collectibles.ListForTrade(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	mine, err := env.collectibles.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	_, err = env.collectibles.ListByUser(ctx, 999)
	assertAppError(t, err, models.CodeNotFound)
}

func TestCollectibleService_SearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.store, "owner")
	testutil.CreateCollectible(t, env.store, owner.ID, "Strawberry Dream", "Dimoo Animal Kingdom", true)
	testutil.CreateCollectible(t, env.store, owner.ID, "DIMOO Astronaut", "Space", false)
	testutil.CreateCollectible(t, env.store, owner.ID, "Space Cadet", "Skullpanda", true)

	base, err := env.collectibles.Search(ctx, "dimoo")
	require.NoError(t, err)
	require.Len(t, base, 2)

	for _, q := range []string{"Dimoo", "DIMOO", "dImOo"} {
		got, err := env.collectibles.Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, ids(base), ids(got), q)
	}

	empty, err := env.collectibles.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func ids(items []*models.Collectible) []uint {
	out := make([]uint, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}
