package rates_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/warp/compliance-engine/rates"
)

// countingSource counts Load calls so tests can observe cache behavior.
type countingSource struct {
	inner rates.Source
	stamp atomic.Value // string
	loads atomic.Int64
}

func newCountingSource(t *rates.Table) *countingSource {
	s := &countingSource{inner: rates.NewStaticSource(*t)}
	s.stamp.Store("v1")
	return s
}

func (s *countingSource) Load(ctx context.Context) (*rates.Table, error) {
	s.loads.Add(1)
	return s.inner.Load(ctx)
}

func (s *countingSource) Version(_ context.Context) (string, error) {
	return s.stamp.Load().(string), nil
}

// blockingSource never returns before its context expires.
type blockingSource struct{}

func (blockingSource) Load(ctx context.Context) (*rates.Table, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingSource) Version(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCachedSource_LoadsOnce(t *testing.T) {
	src := newCountingSource(april2024Table())
	cached := rates.NewCachedSource(src, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		table, version, err := cached.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot %d: unexpected error: %v", i, err)
		}
		if table == nil || len(table.Records) == 0 {
			t.Fatalf("snapshot %d: empty table", i)
		}
		if version != "v1" {
			t.Fatalf("snapshot %d: expected version v1, got %q", i, version)
		}
	}
	if n := src.loads.Load(); n != 1 {
		t.Errorf("expected exactly 1 load for an unchanged version, got %d", n)
	}
}

func TestCachedSource_ReloadsOnVersionChange(t *testing.T) {
	src := newCountingSource(april2024Table())
	cached := rates.NewCachedSource(src, 0)
	ctx := context.Background()

	if _, _, err := cached.Snapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.stamp.Store("v2")

	_, version, err := cached.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "v2" {
		t.Errorf("expected refreshed version v2, got %q", version)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("expected a reload after the version changed, got %d loads", n)
	}
}

func TestCachedSource_InvalidateForcesReload(t *testing.T) {
	src := newCountingSource(april2024Table())
	cached := rates.NewCachedSource(src, 0)
	ctx := context.Background()

	if _, _, err := cached.Snapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cached.Invalidate()
	if _, _, err := cached.Snapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("expected a reload after Invalidate, got %d loads", n)
	}
}

func TestCachedSource_SnapshotImmutableAcrossReload(t *testing.T) {
	// A snapshot handed out before a reload must not change under the caller.
	src := newCountingSource(april2024Table())
	cached := rates.NewCachedSource(src, 0)
	ctx := context.Background()

	first, _, err := cached.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := len(first.Records)

	src.stamp.Store("v2")
	if _, _, err := cached.Snapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Records) != records {
		t.Error("earlier snapshot mutated by a later reload")
	}
}

func TestCachedSource_DeadlineExceeded(t *testing.T) {
	cached := rates.NewCachedSource(blockingSource{}, 20*time.Millisecond)

	_, _, err := cached.Snapshot(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded from a hung source, got %v", err)
	}
}

func TestFileSource_LoadsAndSorts(t *testing.T) {
	src := rates.NewFileSource("testdata/rates-2024.json")
	table, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(table.Records))
	}
	if !table.Records[0].EffectiveFrom.After(table.Records[1].EffectiveFrom) {
		t.Error("records must be sorted newest first after load")
	}
	if _, err := src.Version(context.Background()); err != nil {
		t.Errorf("unexpected version error: %v", err)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := rates.NewFileSource("testdata/does-not-exist.json")
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestStaticSource_LoadErr(t *testing.T) {
	src := rates.NewStaticSource(*april2024Table())
	src.LoadErr = errors.New("boom")

	cached := rates.NewCachedSource(src, 0)
	if _, _, err := cached.Snapshot(context.Background()); err == nil {
		t.Fatal("expected the source error to propagate")
	}
}
