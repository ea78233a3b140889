package factory

import (
	"context"
	"fmt"

	"github.com/mcoot/teamenforcer/internal/dependencies/mocks"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/notify"
	"github.com/mcoot/teamenforcer/internal/storage/memory"
	"github.com/mcoot/teamenforcer/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	withHost   bool
	nextHandle int
}

// HostClients is the number of stream clients the test app attaches itself
func (t *TestApp) HostClients() int {
	if t.withHost {
		return 1
	}
	return 0
}

// NewTestApp creates a running App backed by memory storage with mocked
// dependencies and a stream client standing in for the host plugin, so role
// switches are delivered. Callers must Close it.
func NewTestApp() *TestApp {
	return newTestApp(memory.New(), true)
}

// NewTestAppWithoutBans is NewTestApp with the ban subsystem disabled
func NewTestAppWithoutBans() *TestApp {
	return newTestApp(nil, true)
}

// NewTestAppWithoutHost is NewTestApp with no stream client attached. Every
// role switch fails with model.ErrHostUnreachable.
func NewTestAppWithoutHost() *TestApp {
	return newTestApp(memory.New(), false)
}

func newTestApp(store *memory.Storage, withHost bool) *TestApp {
	mockClock := mocks.NewMockClock(mocks.Epoch)
	mockRandom := mocks.NewMockRandom()

	cfg := Config{ChatPrefix: "[TeamEnforcer]", Language: "en"}
	// A typed nil store would look enabled
	var app *App
	if store != nil {
		app = newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())
	} else {
		app = newWithDependencies(nil, mockClock, mockRandom, cfg, testutil.NopLogger())
	}
	if err := app.Start(context.Background()); err != nil {
		panic(fmt.Sprintf("start test app: %v", err))
	}
	if withHost {
		host := notify.NewClient("test-host")
		app.Hub.Register(host)
		go func() {
			for range host.Messages() {
			}
		}()
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		withHost:   withHost,
	}
}

// Connect adds a participant with the next free handle and a name derived
// from id
func (t *TestApp) Connect(ctx context.Context, id string, role model.Role) (model.Identity, error) {
	t.nextHandle++
	err := t.Enforcer.Connect(ctx, model.Participant{
		Identity:  model.Identity(id),
		Handle:    model.Handle(t.nextHandle),
		Name:      "player-" + id,
		Role:      role,
		Connected: true,
	})
	return model.Identity(id), err
}
