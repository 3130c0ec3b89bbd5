package timers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethanctan/ai-oa/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStoreWithClient(rdb)
}

func TestStore_StartAndStatus(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return base }

	state, err := store.Start(ctx, 1, 600, models.PhaseInitial)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !state.Active {
		t.Error("expected timer to be active")
	}
	if state.Remaining != 600 {
		t.Errorf("expected remaining 600, got %d", state.Remaining)
	}
	if state.Phase != models.PhaseInitial {
		t.Errorf("expected phase %q, got %q", models.PhaseInitial, state.Phase)
	}
	if state.IsExpired {
		t.Error("fresh timer should not be expired")
	}

	// halfway through
	store.now = func() time.Time { return base.Add(250 * time.Second) }
	state, err = store.Status(ctx, 1)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state.Remaining != 350 {
		t.Errorf("expected remaining 350, got %d", state.Remaining)
	}

	// past the end
	store.now = func() time.Time { return base.Add(601 * time.Second) }
	state, err = store.Status(ctx, 1)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", state.Remaining)
	}
	if !state.IsExpired {
		t.Error("expected timer to be expired")
	}
}

func TestStore_DisabledTimer(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return base }

	state, err := store.Start(ctx, 2, 0, models.PhaseInitial)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if state.Active {
		t.Error("zero-duration timer should be inactive")
	}

	// even far in the future a disabled timer never expires
	store.now = func() time.Time { return base.Add(24 * time.Hour) }
	state, err = store.Status(ctx, 2)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state.IsExpired {
		t.Error("disabled timer should never expire")
	}
	if state.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", state.Remaining)
	}
}

func TestStore_StatusNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.Status(context.Background(), 99)
	if !errors.Is(err, ErrTimerNotFound) {
		t.Errorf("expected ErrTimerNotFound, got %v", err)
	}
}

func TestStore_ResetPreservesPhaseFlags(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return base }

	if _, err := store.Start(ctx, 3, 600, models.PhaseInitial); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := store.MarkPhaseStarted(ctx, 3, models.PhaseInitial, true); err != nil {
		t.Fatalf("MarkPhaseStarted failed: %v", err)
	}

	store.now = func() time.Time { return base.Add(10 * time.Minute) }
	state, err := store.Reset(ctx, 3, 3600, models.PhaseProject)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !state.InterviewStarted {
		t.Error("reset should preserve interviewStarted")
	}
	if !state.ProjectStarted {
		t.Error("switching to the project phase should mark it started")
	}
	if state.Phase != models.PhaseProject {
		t.Errorf("expected phase %q, got %q", models.PhaseProject, state.Phase)
	}
	if state.Remaining != 3600 {
		t.Errorf("expected remaining 3600, got %d", state.Remaining)
	}
}

func TestStore_ResetMissingTimerStarts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	state, err := store.Reset(ctx, 4, 300, models.PhaseFinal)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.Phase != models.PhaseFinal {
		t.Errorf("expected phase %q, got %q", models.PhaseFinal, state.Phase)
	}
	if !state.Active {
		t.Error("expected timer to be active")
	}
}

func TestStore_MarkPhaseStarted(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Start(ctx, 5, 600, models.PhaseInitial); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	state, err := store.MarkPhaseStarted(ctx, 5, models.PhaseFinal, true)
	if err != nil {
		t.Fatalf("MarkPhaseStarted failed: %v", err)
	}
	if !state.FinalInterviewStarted {
		t.Error("expected finalInterviewStarted to be set")
	}

	if _, err := store.MarkPhaseStarted(ctx, 5, "bogus", true); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestStore_Delete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Start(ctx, 6, 600, models.PhaseInitial); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	existed, err := store.Delete(ctx, 6)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existed {
		t.Error("expected delete to report an existing timer")
	}

	existed, err = store.Delete(ctx, 6)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if existed {
		t.Error("second delete should report no timer")
	}

	if _, err := store.Status(ctx, 6); !errors.Is(err, ErrTimerNotFound) {
		t.Errorf("expected ErrTimerNotFound after delete, got %v", err)
	}
}
