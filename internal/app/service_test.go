package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/petcare-next/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	order    *[]string
	mu       *sync.Mutex
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.order = append(*s.order, s.name)
	return nil
}

func TestRunnerStopsInReverseOrderOnFailure(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	blocking := &fakeService{name: "http", block: true, order: &stopped, mu: &mu}
	failing := &fakeService{name: "worker", startErr: errors.New("redis down"), order: &stopped, mu: &mu}

	err := NewRunner(blocking, nil, failing).Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "redis down" {
		t.Fatalf("runner error want redis down got %v", err)
	}
	if len(stopped) != 2 || stopped[0] != "worker" || stopped[1] != "http" {
		t.Fatalf("stop order want [worker http] got %v", stopped)
	}
}

func TestRunnerCancelledContextIsClean(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	blocking := &fakeService{name: "http", block: true, order: &stopped, mu: &mu}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(blocking).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run want nil got %v", err)
	}
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ModeAll},
		{in: " API ", want: ModeAPI},
		{in: "worker", want: ModeWorker},
		{in: "cron", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("mode %q should fail", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("mode %q want %s got %s (%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestBuildRunnerValidatesBeforeWiring(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, err := BuildRunner(&config.Config{}, ModeWorker); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
	opts := normalizeOptions(Options{Config: &config.Config{Server: config.ServerConfig{ShutdownTimeoutSeconds: 3}}})
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected defaults: mode=%s timeout=%s", opts.Mode, opts.ShutdownTimeout)
	}
}
