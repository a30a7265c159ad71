package member

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat/chattest"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment/paymenttest"
)

func newTestKicker(dryRun bool) (*Kicker, *chattest.Members, *chattest.Bans) {
	members := newTestMembers()
	bans := &chattest.Bans{Members: members}
	k := NewKicker(newTestEvaluator(members, paymenttest.NewSource(paymentRows()...)), bans, dryRun)
	k.throttle = 0
	return k, members, bans
}

func TestKickAllWithExpiredPayment(t *testing.T) {
	k, members, bans := newTestKicker(false)

	kicked, err := k.KickAllWithExpiredPayment(context.Background(), testChat)
	require.NoError(t, err)
	assert.Len(t, kicked, 3)
	assert.Len(t, bans.Bans(), 3)
	for _, b := range bans.Bans() {
		assert.Equal(t, BanDuration, b.Duration)
		assert.Equal(t, testChat.ID, b.ChatID)
	}

	// a second pass finds nothing left
	kicked, err = k.KickAllWithExpiredPayment(context.Background(), testChat)
	require.NoError(t, err)
	assert.Empty(t, kicked)

	remaining, err := members.GetAll(context.Background(), testChat)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, carol.ID, someBot.ID, owner.ID}, userIDs(remaining))
}

func TestKickAllDryRun(t *testing.T) {
	k, _, bans := newTestKicker(true)

	kicked, err := k.KickAllWithExpiredPayment(context.Background(), testChat)
	require.NoError(t, err)
	assert.Len(t, kicked, 3)
	assert.Empty(t, bans.Bans())

	noUsername, err := k.KickAllWithNoUsername(context.Background(), testChat)
	require.NoError(t, err)
	assert.Len(t, noUsername, 1)
	assert.Empty(t, bans.Bans())
	assert.True(t, k.DryRun())
}

func TestKickAllStopsOnBanError(t *testing.T) {
	k, _, bans := newTestKicker(false)
	bans.FailFor = map[int64]bool{noName.ID: true}

	kicked, err := k.KickAllWithNoUsername(context.Background(), testChat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough rights")
	assert.Empty(t, kicked)
	assert.Empty(t, bans.Bans())
}

func TestKickAllReturnsMembersBannedBeforeError(t *testing.T) {
	k, _, bans := newTestKicker(false)
	// expired members are banned in order: noName, bob, dave
	bans.FailFor = map[int64]bool{dave.ID: true}

	kicked, err := k.KickAllWithExpiredPayment(context.Background(), testChat)
	require.Error(t, err)
	assert.Equal(t, []int64{noName.ID, bob.ID}, userIDs(kicked))
	assert.Len(t, bans.Bans(), 2)
}

func TestKickSingleIfExpiredPayment(t *testing.T) {
	k, _, bans := newTestKicker(false)
	ctx := context.Background()

	kicked, err := k.KickSingleIfExpiredPayment(ctx, testChat, alice)
	require.NoError(t, err)
	assert.False(t, kicked)

	kicked, err = k.KickSingleIfExpiredPayment(ctx, testChat, bob)
	require.NoError(t, err)
	assert.True(t, kicked)
	require.Len(t, bans.Bans(), 1)
	assert.Equal(t, bob.ID, bans.Bans()[0].UserID)
}

func TestKickSingleIfNoUsername(t *testing.T) {
	k, _, bans := newTestKicker(false)
	ctx := context.Background()

	kicked, err := k.KickSingleIfNoUsername(ctx, testChat, alice)
	require.NoError(t, err)
	assert.False(t, kicked)

	kicked, err = k.KickSingleIfNoUsername(ctx, testChat, noName)
	require.NoError(t, err)
	assert.True(t, kicked)
	assert.Len(t, bans.Bans(), 1)
}

func TestKickSingleDryRun(t *testing.T) {
	k, _, bans := newTestKicker(true)

	kicked, err := k.KickSingleIfExpiredPayment(context.Background(), testChat, dave)
	require.NoError(t, err)
	assert.True(t, kicked)
	assert.Empty(t, bans.Bans())
}

func TestKickSingleWrapsBanError(t *testing.T) {
	k, _, bans := newTestKicker(false)
	bans.FailFor = map[int64]bool{bob.ID: true}

	kicked, err := k.KickSingleIfExpiredPayment(context.Background(), testChat, bob)
	require.Error(t, err)
	assert.True(t, kicked)
	assert.Contains(t, err.Error(), "from chat -100")
}
