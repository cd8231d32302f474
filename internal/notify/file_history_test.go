package notify_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"taskmind/internal/models/notification"
	"taskmind/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHistory_NewestFirst(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notifications.json")
	history := notify.NewFileHistory(path, 10)

	for i := 1; i <= 3; i++ {
		n := notification.New(notification.TypeInfo, fmt.Sprintf("event %d", i), "message")
		require.NoError(t, history.Publish(ctx, n))
	}

	recent, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "event 3", recent[0].Title)
	assert.Equal(t, "event 1", recent[2].Title)
}

func TestFileHistory_Bounded(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notifications.json")
	history := notify.NewFileHistory(path, 5)

	for i := 1; i <= 8; i++ {
		n := notification.New(notification.TypeInfo, fmt.Sprintf("event %d", i), "message")
		require.NoError(t, history.Publish(ctx, n))
	}

	recent, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	// старые записи молча вытеснены
	require.Len(t, recent, 5)
	assert.Equal(t, "event 8", recent[0].Title)
	assert.Equal(t, "event 4", recent[4].Title)
}

func TestFileHistory_RecentLimit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notifications.json")
	history := notify.NewFileHistory(path, 10)

	for i := 1; i <= 4; i++ {
		n := notification.New(notification.TypeSuccess, fmt.Sprintf("event %d", i), "message")
		require.NoError(t, history.Publish(ctx, n))
	}

	recent, err := history.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "event 4", recent[0].Title)
}

func TestFileHistory_EmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notifications.json")
	history := notify.NewFileHistory(path, 10)

	recent, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestFanout_ToleratesFailingSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notifications.json")
	history := notify.NewFileHistory(path, 10)

	fanout := notify.NewFanout(failingSink{}, history)

	n := notification.New(notification.TypeWarning, "still delivered", "message")
	require.NoError(t, fanout.Publish(ctx, n))

	recent, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "still delivered", recent[0].Title)
}

type failingSink struct{}

func (failingSink) Publish(context.Context, notification.Notification) error {
	return fmt.Errorf("доставка не удалась")
}
