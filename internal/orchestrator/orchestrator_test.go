package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/ethanctan/ai-oa/internal/models"
	"github.com/ethanctan/ai-oa/internal/provisioner"
	"github.com/ethanctan/ai-oa/internal/repositories"
	"github.com/ethanctan/ai-oa/internal/testhelpers"
	"github.com/ethanctan/ai-oa/internal/timers"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeSandbox struct {
	provisionErr  error
	provisioned   []uint
	workspaceDirs []string
	torn          []string
	teardownGone  bool
	teardownErr   error
	states        map[string]*models.ContainerState
}

func (f *fakeSandbox) Provision(ctx context.Context, instanceID uint, test *models.Test, candidateID uint, workspaceDir string) (*provisioner.Result, error) {
	if f.provisionErr != nil {
		return nil, f.provisionErr
	}
	f.provisioned = append(f.provisioned, instanceID)
	f.workspaceDirs = append(f.workspaceDirs, workspaceDir)
	return &provisioner.Result{ContainerID: "cid-live", Port: 8042, AccessURL: "http://localhost:8042"}, nil
}

func (f *fakeSandbox) Teardown(ctx context.Context, containerID string) (bool, error) {
	if f.teardownErr != nil {
		return false, f.teardownErr
	}
	f.torn = append(f.torn, containerID)
	return f.teardownGone, nil
}

func (f *fakeSandbox) State(ctx context.Context, containerID string) (*models.ContainerState, error) {
	return f.states[containerID], nil
}

func setupOrchestrator(t *testing.T, sandbox *fakeSandbox) (*Orchestrator, *gorm.DB, *timers.Store) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	store := timers.NewStoreWithClient(rdb)

	o := New(
		&repositories.InstanceRepository{DB: db},
		&repositories.TestRepository{DB: db},
		sandbox,
		store,
		zap.NewNop(),
	)
	return o, db, store
}

func TestCreateInstance_Ready(t *testing.T) {
	sandbox := &fakeSandbox{}
	o, db, store := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	instance, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if instance.Status != models.StatusReady {
		t.Errorf("expected status ready, got %s", instance.Status)
	}
	if instance.ContainerID == models.ContainerIDPending {
		t.Error("expected a real container id")
	}
	if instance.Port != 8042 {
		t.Errorf("expected port 8042, got %d", instance.Port)
	}

	// initial countdown runs for the configured minutes
	state, err := store.Status(context.Background(), instance.ID)
	if err != nil {
		t.Fatalf("timer status failed: %v", err)
	}
	if !state.Active {
		t.Error("expected an active timer")
	}
	// Remaining is derived from the wall clock, so allow the seconds that
	// may tick between start and status.
	want := test.TimerDuration * 60
	if state.Remaining > want || state.Remaining < want-2 {
		t.Errorf("expected remaining near %d, got %d", want, state.Remaining)
	}
	if state.Phase != models.PhaseInitial {
		t.Errorf("expected initial phase, got %s", state.Phase)
	}

	// the assignment bookkeeping ran
	var tc models.TestCandidate
	if err := db.First(&tc, "test_id = ? AND candidate_id = ?", test.ID, candidate.ID).Error; err != nil {
		t.Fatalf("expected assignment row: %v", err)
	}
}

func TestCreateInstance_TimerDisabled(t *testing.T) {
	sandbox := &fakeSandbox{}
	o, db, store := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)
	if err := db.Model(test).Update("enable_timer", false).Error; err != nil {
		t.Fatalf("failed to disable timer: %v", err)
	}

	instance, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	state, err := store.Status(context.Background(), instance.ID)
	if err != nil {
		t.Fatalf("timer status failed: %v", err)
	}
	if state.Active {
		t.Error("disabled timer should not be active")
	}
	if state.IsExpired {
		t.Error("disabled timer should never expire")
	}
}

func TestCreateInstance_UnknownReferences(t *testing.T) {
	o, db, _ := setupOrchestrator(t, &fakeSandbox{})
	company, test, candidate := testhelpers.SeedTenant(t, db)

	_, err := o.CreateInstance(context.Background(), 999, candidate.ID, company.ID)
	if KindOf(err) != KindValidation {
		t.Errorf("expected validation error for unknown test, got %v", err)
	}
	_, err = o.CreateInstance(context.Background(), test.ID, 999, company.ID)
	if KindOf(err) != KindValidation {
		t.Errorf("expected validation error for unknown candidate, got %v", err)
	}
}

func TestCreateInstance_DegradedThenRetry(t *testing.T) {
	sandbox := &fakeSandbox{provisionErr: provisioner.ErrDockerUnavailable}
	o, db, _ := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	degraded, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err == nil {
		t.Fatal("expected provisioning failure")
	}
	if KindOf(err) != KindInfrastructure {
		t.Errorf("expected infrastructure error, got %v", err)
	}
	if !errors.Is(err, provisioner.ErrDockerUnavailable) {
		t.Errorf("expected ErrDockerUnavailable in chain, got %v", err)
	}
	if degraded == nil {
		t.Fatal("expected the degraded row to be returned")
	}
	if degraded.Status != models.StatusDegraded {
		t.Errorf("expected degraded status, got %s", degraded.Status)
	}
	if degraded.ContainerID != models.ContainerIDPending {
		t.Errorf("expected sentinel container id, got %s", degraded.ContainerID)
	}
	if degraded.LastError == "" {
		t.Error("expected last_error to be recorded")
	}

	// docker comes back; the retry reuses the row
	sandbox.provisionErr = nil
	ready, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if ready.ID != degraded.ID {
		t.Errorf("expected row %d to be reused, got %d", degraded.ID, ready.ID)
	}
	if ready.Status != models.StatusReady {
		t.Errorf("expected ready status, got %s", ready.Status)
	}

	var count int64
	if err := db.Model(&models.Instance{}).Where("test_id = ? AND candidate_id = ?", test.ID, candidate.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one row for the pair, got %d", count)
	}
}

func TestCreateInstance_DuplicatePair(t *testing.T) {
	sandbox := &fakeSandbox{}
	o, db, _ := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	first, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	existing, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if existing == nil || existing.ID != first.ID {
		t.Errorf("expected the existing row to be carried with the conflict")
	}
	if len(sandbox.provisioned) != 1 {
		t.Errorf("a duplicate must not provision a second container, got %d", len(sandbox.provisioned))
	}
}

type fakeGit struct {
	cloned   []string
	cloneErr error
}

func (f *fakeGit) CloneForInstance(ctx context.Context, instanceID uint, repoURL, token string) (string, error) {
	if f.cloneErr != nil {
		return "", f.cloneErr
	}
	f.cloned = append(f.cloned, repoURL)
	return "/var/projects/instance-1", nil
}

func TestCreateInstance_SeedsWorkspace(t *testing.T) {
	sandbox := &fakeSandbox{}
	git := &fakeGit{}
	o, db, _ := setupOrchestrator(t, sandbox)
	o.WithGit(git, "gh-token")
	company, test, candidate := testhelpers.SeedTenant(t, db)
	if err := db.Model(test).Update("github_repo", "https://github.com/acme/starter").Error; err != nil {
		t.Fatalf("failed to set starter repo: %v", err)
	}

	if _, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if len(git.cloned) != 1 || git.cloned[0] != "https://github.com/acme/starter" {
		t.Errorf("expected the starter repo to be cloned, got %v", git.cloned)
	}
	if len(sandbox.workspaceDirs) != 1 || sandbox.workspaceDirs[0] != "/var/projects/instance-1" {
		t.Errorf("expected the cloned dir to reach the provisioner, got %v", sandbox.workspaceDirs)
	}
}

func TestCreateInstance_CloneFailureDegrades(t *testing.T) {
	sandbox := &fakeSandbox{}
	git := &fakeGit{cloneErr: errors.New("repository not found")}
	o, db, _ := setupOrchestrator(t, sandbox)
	o.WithGit(git, "gh-token")
	company, test, candidate := testhelpers.SeedTenant(t, db)
	if err := db.Model(test).Update("github_repo", "https://github.com/acme/missing").Error; err != nil {
		t.Fatalf("failed to set starter repo: %v", err)
	}

	degraded, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if KindOf(err) != KindInfrastructure {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if degraded == nil || degraded.Status != models.StatusDegraded {
		t.Errorf("expected a degraded row, got %+v", degraded)
	}
	if len(sandbox.provisioned) != 0 {
		t.Error("provisioning must not run when seeding fails")
	}
}

func TestStopInstance(t *testing.T) {
	sandbox := &fakeSandbox{}
	o, db, store := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	instance, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	result, err := o.StopInstance(context.Background(), instance.ID, company.ID)
	if err != nil {
		t.Fatalf("StopInstance failed: %v", err)
	}
	if !result.Success {
		t.Errorf("expected success, got %+v", result)
	}
	if len(sandbox.torn) != 1 || sandbox.torn[0] != "cid-live" {
		t.Errorf("expected teardown of cid-live, got %v", sandbox.torn)
	}

	var row models.Instance
	if err := db.First(&row, instance.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if row.Status != models.StatusStopped {
		t.Errorf("expected stopped, got %s", row.Status)
	}
	if _, err := store.Status(context.Background(), instance.ID); !errors.Is(err, timers.ErrTimerNotFound) {
		t.Errorf("expected timer to be deleted, got %v", err)
	}
}

func TestStopInstance_ContainerAlreadyGone(t *testing.T) {
	sandbox := &fakeSandbox{}
	o, db, _ := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	instance, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	// someone removed the container behind our back
	sandbox.teardownGone = true
	result, err := o.StopInstance(context.Background(), instance.ID, company.ID)
	if err != nil {
		t.Fatalf("StopInstance failed: %v", err)
	}
	if !result.Success {
		t.Errorf("idempotent teardown must succeed, got %+v", result)
	}
	if result.Message != models.StatusNotFound {
		t.Errorf("expected status not_found, got %s", result.Message)
	}

	// and a second stop is still fine
	if _, err := o.StopInstance(context.Background(), instance.ID, company.ID); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestStopInstance_Unprovisioned(t *testing.T) {
	sandbox := &fakeSandbox{provisionErr: provisioner.ErrDockerUnavailable}
	o, db, _ := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	degraded, _ := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	result, err := o.StopInstance(context.Background(), degraded.ID, company.ID)
	if err != nil {
		t.Fatalf("StopInstance failed: %v", err)
	}
	if result.Success {
		t.Error("expected a non-fatal failure for a sentinel container id")
	}
	if len(sandbox.torn) != 0 {
		t.Errorf("nothing should be torn down, got %v", sandbox.torn)
	}
}

func TestStopInstance_UnknownRow(t *testing.T) {
	o, _, _ := setupOrchestrator(t, &fakeSandbox{})
	_, err := o.StopInstance(context.Background(), 12345, 0)
	if KindOf(err) != KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteInstance(t *testing.T) {
	sandbox := &fakeSandbox{}
	o, db, _ := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	instance, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	if err := o.DeleteInstance(context.Background(), instance.ID, company.ID); err != nil {
		t.Fatalf("DeleteInstance failed: %v", err)
	}
	var count int64
	db.Model(&models.Instance{}).Where("id = ?", instance.ID).Count(&count)
	if count != 0 {
		t.Error("expected row to be gone")
	}
	if len(sandbox.torn) != 1 {
		t.Errorf("expected container teardown, got %v", sandbox.torn)
	}
}

func TestListInstances_MergesContainerState(t *testing.T) {
	sandbox := &fakeSandbox{states: map[string]*models.ContainerState{
		"cid-live": {Name: "oa-instance-1", State: "running", Healthy: true},
	}}
	o, db, _ := setupOrchestrator(t, sandbox)
	company, test, candidate := testhelpers.SeedTenant(t, db)

	if _, err := o.CreateInstance(context.Background(), test.ID, candidate.ID, company.ID); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}

	entries, err := o.ListInstances(context.Background(), company.ID)
	if err != nil {
		t.Fatalf("ListInstances failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Container == nil || !entries[0].Container.Healthy {
		t.Errorf("expected live container state, got %+v", entries[0].Container)
	}
	if entries[0].CandidateName != candidate.Name {
		t.Errorf("expected joined candidate name, got %q", entries[0].CandidateName)
	}
}
