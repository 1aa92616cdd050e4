package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vanish/internal/logger"
)

func runLoop(t *testing.T, l *Loop, h Handler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, h) }()
	return cancel, done
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the loop")
	}
}

func TestLoopDeliversInOrder(t *testing.T) {
	l := NewLoop(logger.NewNop(), 16)

	var got []Event
	finished := make(chan struct{})
	h := HandlerFunc(func(ev Event) { got = append(got, ev) })

	for _, ev := range []Event{
		PlayerSpawned{Player: 1},
		WeaponFired{Player: 1, Weapon: "weapon_molotov"},
		PlayerDisconnected{Player: 1},
	} {
		if err := l.Post(ev); err != nil {
			t.Fatalf("Post returned error: %v", err)
		}
	}
	if err := l.Dispatch(func() { close(finished) }); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	cancel, done := runLoop(t, l, h)
	waitFor(t, finished)
	cancel()
	<-done

	if len(got) != 3 {
		t.Fatalf("expected 3 handled events, got %d", len(got))
	}
	if got[0].Kind() != "player_spawned" || got[1].Kind() != "weapon_fired" || got[2].Kind() != "player_disconnected" {
		t.Fatalf("events delivered out of order: %v", got)
	}
	if l.Delivered() != 4 {
		t.Fatalf("expected 4 deliveries, got %d", l.Delivered())
	}
}

func TestLoopSerializesConcurrentPosts(t *testing.T) {
	l := NewLoop(logger.NewNop(), 64)

	counter := 0
	const posters, each = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < posters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				_ = l.Dispatch(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	finished := make(chan struct{})
	_ = l.Dispatch(func() { close(finished) })

	cancel, done := runLoop(t, l, HandlerFunc(func(Event) {}))
	waitFor(t, finished)
	cancel()
	<-done

	if counter != posters*each {
		t.Fatalf("expected %d increments, got %d", posters*each, counter)
	}
}

func TestLoopRecoversFromPanic(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	l := NewLoop(logger.NewFromZap(zap.New(core)), 4)

	finished := make(chan struct{})
	_ = l.Post(WeaponFired{Player: 2, Weapon: "weapon_molotov"})
	_ = l.Dispatch(func() { close(finished) })

	cancel, done := runLoop(t, l, HandlerFunc(func(Event) { panic("handler exploded") }))
	waitFor(t, finished)
	cancel()
	<-done

	if l.Faults() != 1 {
		t.Fatalf("expected 1 fault, got %d", l.Faults())
	}
	logs := recorded.FilterMessage("panic while handling event").All()
	if len(logs) != 1 {
		t.Fatalf("expected 1 panic log, got %d", len(logs))
	}
	if logs[0].ContextMap()["kind"] != "weapon_fired" {
		t.Errorf("expected kind=weapon_fired, got %v", logs[0].ContextMap()["kind"])
	}
	if m, ok := l.Metrics().Kind("weapon_fired"); !ok || m.TotalFaults != 1 {
		t.Errorf("expected a recorded fault for weapon_fired, got %+v", m)
	}
}

func TestPostAfterCloseFails(t *testing.T) {
	l := NewLoop(logger.NewNop(), 4)
	l.Close()

	if !l.Closed() {
		t.Fatal("expected loop to report closed")
	}
	if err := l.Post(PlayerSpawned{Player: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := l.Dispatch(func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Dispatch, got %v", err)
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	l := NewLoop(logger.NewNop(), 4)
	cancel, done := runLoop(t, l, HandlerFunc(func(Event) {}))
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMetricsAggregate(t *testing.T) {
	ma := NewMetricsAggregator()
	ma.RecordDelivery("task", 2*time.Millisecond)
	ma.RecordDelivery("task", 4*time.Millisecond)
	ma.RecordDelivery("weapon_fired", time.Millisecond)
	ma.RecordFault("weapon_fired")

	agg := ma.Aggregate()
	if agg.KindCount != 2 || agg.TotalDeliveries != 3 || agg.TotalFaults != 1 {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
	if agg.MaxHandleDuration != 4*time.Millisecond {
		t.Errorf("expected max 4ms, got %v", agg.MaxHandleDuration)
	}

	task, ok := ma.Kind("task")
	if !ok || task.MinHandleDuration != 2*time.Millisecond {
		t.Errorf("expected min 2ms for task, got %+v", task)
	}
}

func TestMetricsMinComesFromSamples(t *testing.T) {
	ma := NewMetricsAggregator()
	ma.RecordFault("player_spawned")
	if m, _ := ma.Kind("player_spawned"); m.MinHandleDuration != 0 {
		t.Fatalf("expected no minimum before any delivery, got %v", m.MinHandleDuration)
	}

	ma.RecordDelivery("player_spawned", 2*time.Hour)
	if m, _ := ma.Kind("player_spawned"); m.MinHandleDuration != 2*time.Hour {
		t.Fatalf("expected first sample to set the minimum, got %v", m.MinHandleDuration)
	}

	ma.RecordDelivery("player_spawned", 3*time.Hour)
	ma.RecordDelivery("player_spawned", time.Hour+time.Minute)
	if m, _ := ma.Kind("player_spawned"); m.MinHandleDuration != time.Hour+time.Minute {
		t.Fatalf("expected minimum 1h1m, got %v", m.MinHandleDuration)
	}
}
