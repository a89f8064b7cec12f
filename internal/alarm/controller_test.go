package alarm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrewdarr/bt-sentinel/internal/detect"
	"github.com/andrewdarr/bt-sentinel/internal/notify"
	"github.com/andrewdarr/bt-sentinel/internal/relay"
	"github.com/andrewdarr/bt-sentinel/internal/scanner"
)

var errBroken = errors.New("relay hardware fault")

func testEpisode() *detect.Episode {
	return &detect.Episode{
		ID:          "episode-1",
		FirstSeenAt: time.Now(),
		Devices: map[string]scanner.Sighting{
			"AA:BB:CC:DD:EE:FF": {
				ID:     "AA:BB:CC:DD:EE:FF",
				Name:   "intruder-phone",
				Signal: -60,
			},
		},
	}
}

type countingNotifier struct {
	sent int
}

func (n *countingNotifier) Name() string {
	return "counting"
}

func (n *countingNotifier) Send(_ context.Context, _ notify.Alert) error {
	n.sent++

	return nil
}

func TestControllerTriggerIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := &relay.Fake{}
	counting := &countingNotifier{}

	controller := NewController(Options{
		Relay:     fake,
		Notifiers: []notify.Notifier{counting},
		SiteID:    "test-site",
	})

	ctx := context.Background()
	episode := testEpisode()

	controller.Trigger(ctx, episode)
	controller.Trigger(ctx, episode)

	require.True(t, controller.Active())
	require.Equal(t, 1, fake.OnCalls)
	require.Equal(t, 1, counting.sent)
}

func TestControllerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := &relay.Fake{}
	controller := NewController(Options{Relay: fake})

	ctx := context.Background()

	controller.Stop(ctx)
	require.Equal(t, 0, fake.OffCalls)

	controller.Trigger(ctx, testEpisode())
	controller.Stop(ctx)
	controller.Stop(ctx)

	require.False(t, controller.Active())
	require.Equal(t, 1, fake.OffCalls)
}

func TestControllerRetriggerAfterStop(t *testing.T) {
	t.Parallel()

	fake := &relay.Fake{}
	counting := &countingNotifier{}

	controller := NewController(Options{
		Relay:     fake,
		Notifiers: []notify.Notifier{counting},
	})

	ctx := context.Background()

	controller.Trigger(ctx, testEpisode())
	controller.Stop(ctx)
	controller.Trigger(ctx, testEpisode())

	require.True(t, controller.Active())
	require.Equal(t, 2, fake.OnCalls)
	require.Equal(t, 2, counting.sent)
}

func TestControllerAutoOff(t *testing.T) {
	t.Parallel()

	fake := &relay.Fake{}
	controller := NewController(Options{
		Relay:   fake,
		AutoOff: 20 * time.Millisecond,
	})

	require.True(t, controller.AutoOffConfigured())

	controller.Trigger(context.Background(), testEpisode())
	require.True(t, controller.Active())

	require.Eventually(t, func() bool {
		return !controller.Active()
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, fake.OffCalls)
}

func TestControllerStopCancelsAutoOff(t *testing.T) {
	t.Parallel()

	fake := &relay.Fake{}
	controller := NewController(Options{
		Relay:   fake,
		AutoOff: 30 * time.Millisecond,
	})

	ctx := context.Background()

	controller.Trigger(ctx, testEpisode())
	controller.Stop(ctx)

	time.Sleep(60 * time.Millisecond)

	require.False(t, controller.Active())
	require.Equal(t, 1, fake.OffCalls)
}

func TestControllerRelayFailureStillNotifies(t *testing.T) {
	t.Parallel()

	fake := &relay.Fake{OnErr: errBroken}
	counting := &countingNotifier{}

	controller := NewController(Options{
		Relay:     fake,
		Notifiers: []notify.Notifier{counting},
	})

	controller.Trigger(context.Background(), testEpisode())

	require.True(t, controller.Active())
	require.Equal(t, 1, counting.sent)
}
