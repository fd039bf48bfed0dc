package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeWatcher struct {
	watched []string
	events  chan struct{}
	err     error
}

func (f *fakeWatcher) Watch(paths ...string) error {
	f.watched = append(f.watched, paths...)
	return f.err
}

func (f *fakeWatcher) Events(ctx context.Context) <-chan struct{} { return f.events }

func (f *fakeWatcher) Close() error { return nil }

func TestServiceWatchRerunsOnEvents(t *testing.T) {
	var out bytes.Buffer
	svc := newTestService(globalOnly(90), &fakeReportLoader{report: repoReport()}, &fakeReporter{})
	svc.Out = &out

	watcher := &fakeWatcher{events: make(chan struct{}, 2)}
	watcher.events <- struct{}{}
	watcher.events <- struct{}{}
	close(watcher.events)

	var runs []int
	err := svc.Watch(context.Background(), WatchOptions{
		CheckOptions: CheckOptions{ConfigPath: ".covergate.yaml"},
		Clear:        true,
	}, watcher, func(run int, result CheckResult, err error) {
		runs = append(runs, run)
		if !errors.Is(err, ErrUnderThreshold) {
			t.Errorf("run %d: expected ErrUnderThreshold, got %v", run, err)
		}
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %v", runs)
	}
	if got := strings.Count(out.String(), clearScreen); got != 3 {
		t.Fatalf("expected screen cleared 3 times, got %d", got)
	}
	want := []string{"coverage/coverage-final.json", ".covergate.yaml"}
	if strings.Join(watcher.watched, ",") != strings.Join(want, ",") {
		t.Fatalf("expected watched %v, got %v", want, watcher.watched)
	}
}

func TestServiceWatchStopsOnCancel(t *testing.T) {
	svc := newTestService(globalOnly(10), &fakeReportLoader{report: repoReport()}, &fakeReporter{})
	ctx, cancel := context.WithCancel(context.Background())
	watcher := &fakeWatcher{events: make(chan struct{})}

	err := svc.Watch(ctx, WatchOptions{CheckOptions: CheckOptions{ConfigPath: ".covergate.yaml"}}, watcher,
		func(run int, result CheckResult, err error) {
			if !result.Passed {
				t.Errorf("expected first run to pass")
			}
			cancel()
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestServiceWatchPropagatesWatcherError(t *testing.T) {
	svc := newTestService(globalOnly(10), &fakeReportLoader{report: repoReport()}, &fakeReporter{})
	watcher := &fakeWatcher{err: errors.New("too many open files")}
	if err := svc.Watch(context.Background(), WatchOptions{CheckOptions: CheckOptions{ConfigPath: ".covergate.yaml"}}, watcher, nil); err == nil {
		t.Fatalf("expected watcher error")
	}
}
