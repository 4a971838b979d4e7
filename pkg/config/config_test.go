package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sampleConfig struct {
	Addr    string `envconfig:"ADDR" default:":8080"`
	Retries int    `envconfig:"RETRIES" default:"3"`
}

type validatedConfig struct {
	Name string `envconfig:"NAME"`
}

var errNameMissing = errors.New("name is required")

func (c validatedConfig) Validate() error {
	if c.Name == "" {
		return errNameMissing
	}
	return nil
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_ADDR", ":9090")

	conf, err := New[sampleConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Addr != ":9090" || conf.Retries != 3 {
		t.Fatalf("conf = %+v", conf)
	}
}

func TestNewRunsValidate(t *testing.T) {
	t.Setenv("CFGVALID_NAME", "")

	if _, err := New[validatedConfig]("CFGVALID"); !errors.Is(err, errNameMissing) {
		t.Fatalf("New() error = %v, want errNameMissing", err)
	}

	t.Setenv("CFGVALID_NAME", "caregiver")
	conf, err := New[validatedConfig]("CFGVALID")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "caregiver" {
		t.Fatalf("Name = %q", conf.Name)
	}
}

func TestExportEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CFGFILE_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CFGFILE_VALUE") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGFILE_VALUE"); got != "from-file" {
		t.Fatalf("CFGFILE_VALUE = %q", got)
	}
}

func TestExportEnvironmentIfExistsMissing(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}
