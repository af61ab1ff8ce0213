package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moolen/pulse/internal/config"
	"github.com/moolen/pulse/internal/model"
)

// managerMockSource is a test implementation of the Source interface
// with additional tracking for manager tests
type managerMockSource struct {
	name       string
	version    string
	srcType    string
	startErr   error
	stopErr    error
	health     HealthStatus
	startCalls int
	stopCalls  int
}

func (m *managerMockSource) Metadata() Metadata {
	return Metadata{
		Name:        m.name,
		Version:     m.version,
		Type:        m.srcType,
		Description: "Mock source for testing",
	}
}

func (m *managerMockSource) Start(ctx context.Context) error {
	m.startCalls++
	return m.startErr
}

func (m *managerMockSource) Stop(ctx context.Context) error {
	m.stopCalls++
	return m.stopErr
}

func (m *managerMockSource) Health(ctx context.Context) HealthStatus {
	return m.health
}

func (m *managerMockSource) Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error) {
	return nil, nil
}

// createTestConfigFile creates a temporary YAML config file for testing
func createTestConfigFile(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestManagerVersionValidation(t *testing.T) {
	// Register mock factory that returns old version
	RegisterFactory("mock-old", func(name string, config map[string]interface{}) (Source, error) {
		return &managerMockSource{
			name:    name,
			version: "0.9.0", // Below minimum
			srcType: "mock-old",
			health:  Healthy,
		}, nil
	})
	defer func() {
		defaultRegistry = NewFactoryRegistry()
	}()

	configContent := `schema_version: v1
instances:
  - name: test-instance
    type: mock-old
    enabled: true
    config: {}`

	configPath := createTestConfigFile(t, configContent)

	mgr, err := NewManager(ManagerConfig{
		ConfigPath:       configPath,
		MinSourceVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	err = mgr.Start(context.Background())
	if err == nil {
		t.Fatal("Expected version validation error, got nil")
	}
	if !strings.Contains(err.Error(), "below minimum required version") {
		t.Errorf("Expected version error, got: %v", err)
	}
}

func TestManagerStartLoadsInstances(t *testing.T) {
	created := make(map[string]*managerMockSource)
	RegisterFactory("mock", func(name string, config map[string]interface{}) (Source, error) {
		src := &managerMockSource{
			name:    name,
			version: "1.0.0",
			srcType: "mock",
			health:  Healthy,
		}
		created[name] = src
		return src, nil
	})
	defer func() {
		defaultRegistry = NewFactoryRegistry()
	}()

	configContent := `schema_version: v1
instances:
  - name: enabled-instance
    type: mock
    enabled: true
    config: {}
  - name: disabled-instance
    type: mock
    enabled: false
    config: {}`

	configPath := createTestConfigFile(t, configContent)

	mgr, err := NewManager(ManagerConfig{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop(ctx)

	names := mgr.GetRegistry().List()
	if len(names) != 1 {
		t.Fatalf("expected 1 registered instance, got %d: %v", len(names), names)
	}
	if names[0] != "enabled-instance" {
		t.Errorf("unexpected instance name: %s", names[0])
	}
	if created["enabled-instance"].startCalls != 1 {
		t.Errorf("expected Start to be called once, got %d", created["enabled-instance"].startCalls)
	}
	if _, ok := created["disabled-instance"]; ok {
		t.Error("disabled instance should not have been created")
	}
}

func TestManagerStartFailureMarksDegraded(t *testing.T) {
	RegisterFactory("mock-failing", func(name string, config map[string]interface{}) (Source, error) {
		return &managerMockSource{
			name:     name,
			version:  "1.0.0",
			srcType:  "mock-failing",
			startErr: context.DeadlineExceeded,
			health:   Degraded,
		}, nil
	})
	defer func() {
		defaultRegistry = NewFactoryRegistry()
	}()

	configContent := `schema_version: v1
instances:
  - name: failing-instance
    type: mock-failing
    enabled: true
    config: {}`

	configPath := createTestConfigFile(t, configContent)

	mgr, err := NewManager(ManagerConfig{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start should not fail on instance start errors: %v", err)
	}
	defer mgr.Stop(ctx)

	// Failed instances stay registered so health checks can recover them
	instance, ok := mgr.GetRegistry().Get("failing-instance")
	if !ok {
		t.Fatal("failing instance should remain registered")
	}
	if got := instance.Health(ctx); got != Degraded {
		t.Errorf("expected Degraded health, got %s", got)
	}
}

func TestManagerStopStopsInstances(t *testing.T) {
	var src *managerMockSource
	RegisterFactory("mock-stop", func(name string, config map[string]interface{}) (Source, error) {
		src = &managerMockSource{
			name:    name,
			version: "1.0.0",
			srcType: "mock-stop",
			health:  Healthy,
		}
		return src, nil
	})
	defer func() {
		defaultRegistry = NewFactoryRegistry()
	}()

	configContent := `schema_version: v1
instances:
  - name: stop-instance
    type: mock-stop
    enabled: true
    config: {}`

	configPath := createTestConfigFile(t, configContent)

	mgr, err := NewManager(ManagerConfig{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := mgr.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if src.stopCalls != 1 {
		t.Errorf("expected Stop to be called once, got %d", src.stopCalls)
	}
}

func TestNewManagerRequiresConfigPath(t *testing.T) {
	if _, err := NewManager(ManagerConfig{}); err == nil {
		t.Error("expected error for empty ConfigPath")
	}
}

func TestNewManagerRejectsInvalidMinVersion(t *testing.T) {
	_, err := NewManager(ManagerConfig{
		ConfigPath:       "sources.yaml",
		MinSourceVersion: "not-a-version",
	})
	if err == nil {
		t.Error("expected error for invalid MinSourceVersion")
	}
}

func TestManagerStartCreatesInstancesOnce(t *testing.T) {
	var created []*managerMockSource
	RegisterFactory("mock-once", func(name string, config map[string]interface{}) (Source, error) {
		src := &managerMockSource{
			name:    name,
			version: "1.0.0",
			srcType: "mock-once",
			health:  Healthy,
		}
		created = append(created, src)
		return src, nil
	})
	defer func() {
		defaultRegistry = NewFactoryRegistry()
	}()

	configContent := `schema_version: v1
instances:
  - name: once-instance
    type: mock-once
    enabled: true
    config: {}`

	configPath := createTestConfigFile(t, configContent)

	mgr, err := NewManager(ManagerConfig{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop(ctx)

	// The watcher delivers the initial config through the same callback
	// as reloads; startup must not take the restart path and build each
	// instance a second time.
	if len(created) != 1 {
		t.Fatalf("expected exactly 1 instance created during Start, got %d", len(created))
	}
	if created[0].startCalls != 1 {
		t.Errorf("expected Start to be called once, got %d", created[0].startCalls)
	}
	if created[0].stopCalls != 0 {
		t.Errorf("expected no Stop calls during startup, got %d", created[0].stopCalls)
	}
}

func TestManagerConfigReloadRestartsInstances(t *testing.T) {
	var created []*managerMockSource
	RegisterFactory("mock-reload", func(name string, config map[string]interface{}) (Source, error) {
		src := &managerMockSource{
			name:    name,
			version: "1.0.0",
			srcType: "mock-reload",
			health:  Healthy,
		}
		created = append(created, src)
		return src, nil
	})
	defer func() {
		defaultRegistry = NewFactoryRegistry()
	}()

	configContent := `schema_version: v1
instances:
  - name: first-instance
    type: mock-reload
    enabled: true
    config: {}`

	configPath := createTestConfigFile(t, configContent)

	mgr, err := NewManager(ManagerConfig{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx := context.Background()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop(ctx)

	// Deliver a changed config through the watcher callback.
	newConfig := &config.SourcesFile{
		SchemaVersion: "v1",
		Instances: []config.SourceConfig{
			{Name: "second-instance", Type: "mock-reload", Enabled: true, Config: map[string]interface{}{}},
		},
	}
	if err := mgr.handleConfigChange(newConfig); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 instances created across start and reload, got %d", len(created))
	}
	if created[0].stopCalls != 1 {
		t.Errorf("expected first instance to be stopped on reload, got %d stop calls", created[0].stopCalls)
	}
	if created[1].startCalls != 1 {
		t.Errorf("expected second instance to be started once, got %d", created[1].startCalls)
	}

	names := mgr.GetRegistry().List()
	if len(names) != 1 || names[0] != "second-instance" {
		t.Errorf("expected registry to hold only second-instance, got %v", names)
	}
}
