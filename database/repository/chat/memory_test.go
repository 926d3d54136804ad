package chatRepo

import (
	"context"
	"testing"
	"time"

	"assetdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *MemoryChatRepo, id, from, to string, at time.Time) {
	t.Helper()
	msg, err := models.NewChatMessage(id, from, to, "msg "+id, at)
	require.NoError(t, err)
	require.NoError(t, r.Create(context.Background(), msg))
}

func TestMemoryChatRepo_ListBetweenOrdersByTimeThenID(t *testing.T) {
	r := NewMemoryChatRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, r, "03", "a", "b", base.Add(2*time.Second))
	seed(t, r, "02", "b", "a", base)
	seed(t, r, "01", "a", "b", base)
	seed(t, r, "99", "a", "c", base)

	msgs, err := r.ListBetween(context.Background(), "b", "a", 0)
	require.NoError(t, err)
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"01", "02", "03"}, ids)

	msgs, err = r.ListBetween(context.Background(), "a", "b", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "02", msgs[0].ID)
	assert.Equal(t, "03", msgs[1].ID)
}

func TestMemoryChatRepo_LatestPerPeer(t *testing.T) {
	r := NewMemoryChatRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, r, "1", "a", "b", base)
	seed(t, r, "2", "c", "a", base.Add(time.Minute))
	seed(t, r, "3", "b", "a", base.Add(2*time.Minute))

	peers, err := r.LatestPerPeer(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, "b", peers[0].PeerID)
	assert.Equal(t, "msg 3", peers[0].LastMessage)
	assert.Equal(t, "c", peers[1].PeerID)
}

func TestMemoryChatRepo_MarkReadOnlyForReceiver(t *testing.T) {
	r := NewMemoryChatRepo()
	ctx := context.Background()
	seed(t, r, "1", "a", "b", time.Now())

	n, err := r.MarkRead(ctx, "1", "a")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = r.MarkRead(ctx, "1", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.MarkRead(ctx, "1", "b")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryChatRepo_LatestPerPeerBreaksTiesByID(t *testing.T) {
	r := NewMemoryChatRepo()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, r, "m1", "a", "b", at)
	seed(t, r, "m3", "d", "a", at)
	seed(t, r, "m2", "a", "c", at)

	for i := 0; i < 20; i++ {
		peers, err := r.LatestPerPeer(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, peers, 3)
		assert.Equal(t, []string{"d", "c", "b"},
			[]string{peers[0].PeerID, peers[1].PeerID, peers[2].PeerID})
	}
}
