package timers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethanctan/ai-oa/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrTimerNotFound = errors.New("timer not found")

// State is the persisted countdown record for one instance. Remaining and
// IsExpired are computed at read time and never stored.
type State struct {
	InstanceID uint   `json:"instanceId"`
	Phase      string `json:"timerType"`
	StartTime  int64  `json:"startTime"` // unix seconds
	EndTime    int64  `json:"endTime"`   // unix seconds
	Duration   int    `json:"duration"`  // seconds; 0 means the timer is disabled
	Active     bool   `json:"active"`

	InterviewStarted      bool `json:"interviewStarted"`
	ProjectStarted        bool `json:"projectStarted"`
	FinalInterviewStarted bool `json:"finalInterviewStarted"`

	Remaining int  `json:"timeRemaining"`
	IsExpired bool `json:"isExpired"`
}

// Store persists per-instance countdown state in Redis. It is the sole
// mutator of timer records; callers interact only through its methods.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

func NewStore(redisAddr string) *Store {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	return NewStoreWithClient(rdb)
}

func NewStoreWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

func key(instanceID uint) string {
	return fmt.Sprintf("timer:%d", instanceID)
}

// Start creates or overwrites the timer for an instance. A duration of zero
// creates a disabled record: it exists, carries no expiry pressure, and never
// reports expired.
func (s *Store) Start(ctx context.Context, instanceID uint, durationSeconds int, phase string) (*State, error) {
	if phase == "" {
		phase = models.PhaseInitial
	}
	now := s.now().Unix()
	state := &State{
		InstanceID: instanceID,
		Phase:      phase,
		StartTime:  now,
		EndTime:    now + int64(durationSeconds),
		Duration:   durationSeconds,
		Active:     durationSeconds > 0,
	}
	applyPhaseDefaults(state, phase)

	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	return s.withComputed(state), nil
}

// Status returns the current countdown view without mutating the record.
func (s *Store) Status(ctx context.Context, instanceID uint) (*State, error) {
	state, err := s.load(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return s.withComputed(state), nil
}

// Reset recomputes the countdown window from now, preserving the
// phase-started booleans. A missing timer behaves as Start. Passing a phase
// switches the timer to that phase; an empty phase keeps the current one.
func (s *Store) Reset(ctx context.Context, instanceID uint, durationSeconds int, phase string) (*State, error) {
	state, err := s.load(ctx, instanceID)
	if errors.Is(err, ErrTimerNotFound) {
		return s.Start(ctx, instanceID, durationSeconds, phase)
	}
	if err != nil {
		return nil, err
	}

	if phase == "" {
		phase = state.Phase
	}
	now := s.now().Unix()
	state.Phase = phase
	state.StartTime = now
	state.EndTime = now + int64(durationSeconds)
	state.Duration = durationSeconds
	state.Active = durationSeconds > 0
	applyPhaseDefaults(state, phase)

	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	return s.withComputed(state), nil
}

// MarkPhaseStarted flips the started flag for a phase without touching the
// countdown.
func (s *Store) MarkPhaseStarted(ctx context.Context, instanceID uint, phase string, started bool) (*State, error) {
	state, err := s.load(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	switch phase {
	case models.PhaseInitial:
		state.InterviewStarted = started
	case models.PhaseProject:
		state.ProjectStarted = started
	case models.PhaseFinal:
		state.FinalInterviewStarted = started
	default:
		return nil, fmt.Errorf("unknown timer phase: %s", phase)
	}
	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	return s.withComputed(state), nil
}

// Delete removes the timer. Returns false when no timer existed.
func (s *Store) Delete(ctx context.Context, instanceID uint) (bool, error) {
	n, err := s.rdb.Del(ctx, key(instanceID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Entering the project phase implies the project has started.
func applyPhaseDefaults(state *State, phase string) {
	if phase == models.PhaseProject {
		state.ProjectStarted = true
	}
}

func (s *Store) withComputed(state *State) *State {
	out := *state
	if !out.Active {
		out.Remaining = 0
		out.IsExpired = false
		return &out
	}
	remaining := out.EndTime - s.now().Unix()
	if remaining < 0 {
		remaining = 0
	}
	out.Remaining = int(remaining)
	out.IsExpired = remaining <= 0
	return &out
}

func (s *Store) load(ctx context.Context, instanceID uint) (*State, error) {
	raw, err := s.rdb.Get(ctx, key(instanceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTimerNotFound
	}
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) save(ctx context.Context, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(state.InstanceID), raw, 0).Err()
}
