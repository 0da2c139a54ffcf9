package redis

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerSerializesPerKey(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "goal-a", time.Minute)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if !ok {
		t.Fatal("first lock: want ok")
	}

	_, busy, err := locker.TryLock(ctx, "goal-a", time.Minute)
	if err != nil {
		t.Fatalf("contended lock: %v", err)
	}
	if busy {
		t.Fatal("contended lock: want ok=false while held")
	}

	// A different key is independent.
	otherRelease, ok, err := locker.TryLock(ctx, "goal-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("independent key: ok=%v err=%v", ok, err)
	}
	otherRelease(ctx)

	release(ctx)
	reacquire, ok, err := locker.TryLock(ctx, "goal-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("reacquire after release: ok=%v err=%v", ok, err)
	}
	reacquire(ctx)
}

func TestMemoryLockerReleaseIsIdempotent(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "goal-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("lock: ok=%v err=%v", ok, err)
	}

	// Second hold with its own release. Double-releasing the first handle
	// must not free it.
	release(ctx)
	second, ok, err := locker.TryLock(ctx, "goal-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("second lock: ok=%v err=%v", ok, err)
	}
	release(ctx)

	_, freed, err := locker.TryLock(ctx, "goal-a", time.Minute)
	if err != nil {
		t.Fatalf("recheck lock: %v", err)
	}
	if freed {
		t.Fatal("second hold was freed by a stale release handle")
	}
	second(ctx)
}

func TestMemoryLockerRejectsBlankKey(t *testing.T) {
	locker := NewMemoryLocker()

	if _, _, err := locker.TryLock(context.Background(), "  ", time.Minute); err == nil {
		t.Fatal("want error for blank key")
	}
}
