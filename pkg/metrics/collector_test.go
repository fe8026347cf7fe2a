// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package metrics

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewResourceCollector(t *testing.T) {
	ctx := context.Background()
	interval := 1 * time.Second

	collector := NewResourceCollector(ctx, interval)

	if collector == nil {
		t.Fatal("Expected collector to be created")
	}

	if collector.interval != interval {
		t.Errorf("Expected interval %v, got %v", interval, collector.interval)
	}

	if collector.started.IsZero() {
		t.Error("Expected started time to be set")
	}

	collector.Stop()
}

func TestResourceCollectorStart(t *testing.T) {
	Enable()

	Goroutines.Set(0)
	MemoryAllocBytes.Set(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := NewResourceCollector(ctx, 100*time.Millisecond)
	go collector.Start()

	// Wait for at least one collection cycle
	time.Sleep(150 * time.Millisecond)
	collector.Stop()

	if testutil.CollectAndCount(Goroutines) == 0 {
		t.Error("Expected goroutines metric to be collected")
	}
	if testutil.CollectAndCount(MemoryAllocBytes) == 0 {
		t.Error("Expected memory alloc metric to be collected")
	}
}

func TestResourceCollectorContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	collector := NewResourceCollector(ctx, 1*time.Second)

	done := make(chan bool)
	go func() {
		collector.Start()
		done <- true
	}()

	cancel()

	select {
	case <-done:
		// Success
	case <-time.After(2 * time.Second):
		t.Error("Collector did not stop after context cancellation")
	}
}

func TestResourceCollectorCollect(t *testing.T) {
	Enable()

	Goroutines.Set(0)
	MemoryAllocBytes.Set(0)
	MemorySysBytes.Set(0)
	GCPauseTotalSeconds.Set(0)
	ServerUptime.Set(0)

	collector := NewResourceCollector(context.Background(), 1*time.Second)
	runtime.GC()
	collector.collect()

	if testutil.CollectAndCount(Goroutines) == 0 {
		t.Error("Expected Goroutines to be collecting")
	}
	if testutil.CollectAndCount(MemoryAllocBytes) == 0 {
		t.Error("Expected MemoryAllocBytes to be collecting")
	}
	if testutil.CollectAndCount(MemorySysBytes) == 0 {
		t.Error("Expected MemorySysBytes to be collecting")
	}
	if testutil.CollectAndCount(GCPauseTotalSeconds) == 0 {
		t.Error("Expected GCPauseTotalSeconds to be collecting")
	}
	if testutil.CollectAndCount(ServerUptime) == 0 {
		t.Error("Expected ServerUptime to be collecting")
	}

	collector.Stop()
}

func TestResourceCollectorCounts(t *testing.T) {
	Enable()

	AccountsTotal.Set(0)
	CredentialsTotal.Set(0)

	collector := NewResourceCollector(context.Background(), 1*time.Second)
	collector.SetCountsFunc(func(ctx context.Context) (int, int) {
		return 7, 12
	})
	collector.collect()

	if got := testutil.ToFloat64(AccountsTotal); got != 7 {
		t.Errorf("Expected accounts total 7, got %v", got)
	}
	if got := testutil.ToFloat64(CredentialsTotal); got != 12 {
		t.Errorf("Expected credentials total 12, got %v", got)
	}

	collector.Stop()
}

func TestStartResourceCollectorCounts(t *testing.T) {
	Enable()

	AccountsTotal.Set(0)
	CredentialsTotal.Set(0)

	// The counts function is installed before the collector goroutine
	// launches, so the initial collection already sees it.
	collector := StartResourceCollector(context.Background(), 1*time.Hour,
		func(ctx context.Context) (int, int) {
			return 3, 5
		})
	defer collector.Stop()

	deadline := time.After(2 * time.Second)
	for testutil.ToFloat64(AccountsTotal) != 3 || testutil.ToFloat64(CredentialsTotal) != 5 {
		select {
		case <-deadline:
			t.Fatalf("Expected initial collection to report counts, got accounts=%v credentials=%v",
				testutil.ToFloat64(AccountsTotal), testutil.ToFloat64(CredentialsTotal))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestResourceCollectorWithoutCountsFunc(t *testing.T) {
	Enable()

	AccountsTotal.Set(0)
	CredentialsTotal.Set(0)

	collector := NewResourceCollector(context.Background(), 1*time.Second)
	collector.collect()

	// Store gauges stay untouched when no counts function is configured.
	if got := testutil.ToFloat64(AccountsTotal); got != 0 {
		t.Errorf("Expected accounts total 0, got %v", got)
	}

	collector.Stop()
}

func TestResourceCollectorCollectWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	AccountsTotal.Set(0)

	collector := NewResourceCollector(context.Background(), 1*time.Second)
	collector.SetCountsFunc(func(ctx context.Context) (int, int) {
		return 99, 99
	})
	collector.collect()

	if got := testutil.ToFloat64(AccountsTotal); got != 0 {
		t.Errorf("Expected accounts total to stay 0 while disabled, got %v", got)
	}

	collector.Stop()
}

func TestCollectOnce(t *testing.T) {
	Enable()

	Goroutines.Set(0)
	MemoryAllocBytes.Set(0)

	CollectOnce()

	if testutil.CollectAndCount(Goroutines) == 0 {
		t.Error("Expected goroutines metric to be collected")
	}
	if testutil.CollectAndCount(MemoryAllocBytes) == 0 {
		t.Error("Expected memory alloc metric to be collected")
	}
}

func TestCollectOnceWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	Goroutines.Set(0)

	// Should return early without touching gauges
	CollectOnce()
}

func TestStartResourceCollector(t *testing.T) {
	Enable()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := StartResourceCollector(ctx, 100*time.Millisecond, nil)
	if collector == nil {
		t.Fatal("Expected collector to be created")
	}

	// Wait for at least one collection
	time.Sleep(150 * time.Millisecond)
	cancel()
}

func BenchmarkCollect(b *testing.B) {
	Enable()

	collector := NewResourceCollector(context.Background(), 1*time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.collect()
	}

	collector.Stop()
}
