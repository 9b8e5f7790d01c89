package plugin_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/core/plugin"
)

type fakePlugin struct {
	name       string
	version    int
	activate   func(ctx context.Context, api *plugin.API) error
	deactivate func(ctx context.Context) error

	mu  sync.Mutex
	api *plugin.API
}

func (f *fakePlugin) APIVersion() int {
	if f.version == 0 {
		return plugin.APIVersion
	}
	return f.version
}

func (f *fakePlugin) Info() plugin.Info {
	return plugin.Info{Name: f.name, Version: "1.0.0", Author: "tests"}
}

func (f *fakePlugin) Activate(ctx context.Context, api *plugin.API) error {
	f.mu.Lock()
	f.api = api
	f.mu.Unlock()
	if f.activate != nil {
		return f.activate(ctx, api)
	}
	return nil
}

func (f *fakePlugin) Deactivate(ctx context.Context) error {
	if f.deactivate != nil {
		return f.deactivate(ctx)
	}
	return nil
}

func (f *fakePlugin) API() *plugin.API {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.api
}

type pickyPlugin struct {
	fakePlugin
}

func (p *pickyPlugin) AcceptAPIVersion(int) bool { return false }

func setup(t *testing.T, opts ...plugin.Option) (*chat.Broker, *plugin.Host) {
	t.Helper()

	broker := chat.New()
	host := plugin.NewHost(broker, opts...)
	t.Cleanup(func() {
		_ = host.Close(context.Background())
		_ = broker.Close()
	})
	return broker, host
}

func TestHost_Load(t *testing.T) {
	t.Parallel()

	t.Run("activates and lists plugin", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)
		p := &fakePlugin{name: "demo"}

		require.NoError(t, host.Load(context.Background(), p))
		require.NotNil(t, p.API())
		assert.Equal(t, "demo", p.API().Name())

		plugins := host.Plugins()
		require.Len(t, plugins, 1)
		assert.Equal(t, "demo", plugins[0].Name)
		assert.Equal(t, plugin.APIVersion, plugins[0].APIVersion)
	})

	t.Run("old api version", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)
		err := host.Load(context.Background(), &fakePlugin{name: "old", version: plugin.APIVersion - 1})
		assert.ErrorIs(t, err, plugin.ErrUnsupportedAPIVersion)
		assert.Empty(t, host.Plugins())
	})

	t.Run("plugin rejects host version", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)
		err := host.Load(context.Background(), &pickyPlugin{fakePlugin{name: "picky"}})
		assert.ErrorIs(t, err, plugin.ErrAPIVersionRejected)
	})

	t.Run("blank and duplicate names", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)
		assert.ErrorIs(t, host.Load(context.Background(), &fakePlugin{}), plugin.ErrEmptyPluginName)

		require.NoError(t, host.Load(context.Background(), &fakePlugin{name: "dup"}))
		assert.ErrorIs(t, host.Load(context.Background(), &fakePlugin{name: "dup"}), plugin.ErrPluginExists)
		assert.Len(t, host.Plugins(), 1)
	})

	t.Run("activation failure releases objects", func(t *testing.T) {
		t.Parallel()

		broker, host := setup(t)
		boom := errors.New("boom")
		p := &fakePlugin{
			name: "broken",
			activate: func(_ context.Context, api *plugin.API) error {
				ph := api.RegisterProvider("broken", "Broken")
				api.RegisterChannel(ph, "c", "C")
				return boom
			},
		}

		err := host.Load(context.Background(), p)
		assert.ErrorIs(t, err, plugin.ErrActivationFailed)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, host.Plugins())
		assert.Equal(t, 0, broker.ChannelInfo().ProviderCount)
		assert.Equal(t, plugin.Stats{}, host.Stats())
	})

	t.Run("after close", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)
		require.NoError(t, host.Close(context.Background()))
		assert.ErrorIs(t, host.Load(context.Background(), &fakePlugin{name: "late"}), plugin.ErrHostClosed)
	})
}

func TestHost_Unload(t *testing.T) {
	t.Parallel()

	t.Run("cleans up leftovers", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		broker, host := setup(t, plugin.WithLogger(log))

		var sub plugin.SubscriptionHandle
		p := &fakePlugin{
			name: "leaky",
			activate: func(_ context.Context, api *plugin.API) error {
				ph := api.RegisterProvider("leaky", "Leaky")
				api.RegisterChannel(ph, "c1", "C1")
				sub = api.Subscribe("", "")
				return nil
			},
		}
		require.NoError(t, host.Load(context.Background(), p))
		assert.Equal(t, plugin.Stats{Plugins: 1, Providers: 1, Channels: 1, Subscriptions: 1}, host.Stats())
		assert.Equal(t, 1, broker.Stats().Subscriptions)

		require.NoError(t, host.Unload(context.Background(), "leaky"))

		assert.Equal(t, plugin.Stats{}, host.Stats())
		assert.Equal(t, 0, broker.ChannelInfo().ProviderCount)
		assert.Equal(t, 0, broker.Stats().Subscriptions)
		assert.Contains(t, buf.String(), "plugin left a subscription behind")
		assert.Contains(t, buf.String(), "plugin left a channel behind")
		assert.Contains(t, buf.String(), "plugin left a provider behind")

		// The API is dead after unload.
		assert.True(t, p.API().Subscribe("", "").IsZero())
		assert.Empty(t, p.API().Pull(context.Background(), sub))
	})

	t.Run("deactivate gets a deadline", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t, plugin.WithDeactivateTimeout(20*time.Millisecond))
		p := &fakePlugin{
			name: "slow",
			deactivate: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}
		require.NoError(t, host.Load(context.Background(), p))

		err := host.Unload(context.Background(), "slow")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, host.Plugins())
	})

	t.Run("unknown plugin", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)
		assert.ErrorIs(t, host.Unload(context.Background(), "ghost"), plugin.ErrPluginNotFound)
	})

	t.Run("close unloads in reverse order", func(t *testing.T) {
		t.Parallel()

		_, host := setup(t)

		var mu sync.Mutex
		var order []string
		record := func(name string) func(context.Context) error {
			return func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			}
		}
		require.NoError(t, host.Load(context.Background(), &fakePlugin{name: "first", deactivate: record("first")}))
		require.NoError(t, host.Load(context.Background(), &fakePlugin{name: "second", deactivate: record("second")}))

		require.NoError(t, host.Close(context.Background()))
		require.NoError(t, host.Close(context.Background()))

		assert.Equal(t, []string{"second", "first"}, order)
		assert.Empty(t, host.Plugins())
	})
}
