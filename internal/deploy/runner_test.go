package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/secretfill-dev/secretfill/internal/descriptor"
)

// sliceLoader feeds descriptors straight to the runner without an external
// source.
type sliceLoader []descriptor.Descriptor

func (l sliceLoader) Load() ([]descriptor.Descriptor, error) {
	return l, nil
}

func minimalDescriptor(config string, tags ...string) descriptor.Descriptor {
	return descriptor.Descriptor{
		Config:       config,
		Type:         "ini",
		Provider:     "env",
		AssignmentOp: "=",
		Assign:       map[string]string{"pwd": "SECRETFILL_RUNNER_TEST_PWD"},
		Tags:         tags,
	}
}

func TestRunner_Run(t *testing.T) {
	t.Setenv("SECRETFILL_RUNNER_TEST_PWD", "bLupdLr4R2HY")

	dir := t.TempDir()
	a := writeConfig(t, dir, "a.conf", "pwd = \n")
	b := writeConfig(t, dir, "b.conf", "user = admin\npwd = old\n")

	r := NewRunner(sliceLoader{minimalDescriptor(a), minimalDescriptor(b)}, Options{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := readBack(t, a); got != "pwd = bLupdLr4R2HY\n" {
		t.Errorf("a.conf = %q", got)
	}
	if got := readBack(t, b); got != "user = admin\npwd = bLupdLr4R2HY\n" {
		t.Errorf("b.conf = %q", got)
	}
}

func TestRunner_Run_parallel(t *testing.T) {
	t.Setenv("SECRETFILL_RUNNER_TEST_PWD", "s3cr3t")

	dir := t.TempDir()
	descs := make(sliceLoader, 0, 4)
	paths := make([]string, 0, 4)
	for _, name := range []string{"a.conf", "b.conf", "c.conf", "d.conf"} {
		path := writeConfig(t, dir, name, "pwd = \n")
		descs = append(descs, minimalDescriptor(path))
		paths = append(paths, path)
	}

	r := NewRunner(descs, Options{Jobs: 2})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, path := range paths {
		if got := readBack(t, path); got != "pwd = s3cr3t\n" {
			t.Errorf("%s = %q", filepath.Base(path), got)
		}
	}
}

func TestRunner_Run_conflict(t *testing.T) {
	dir := t.TempDir()
	config := writeConfig(t, dir, "a.conf", "pwd = old\n")

	// The second descriptor aliases the same path through a dot segment.
	aliased := dir + "/./a.conf"
	r := NewRunner(sliceLoader{minimalDescriptor(config), minimalDescriptor(aliased)}, Options{})

	err := r.Run(context.Background())

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Run() error = %v, want ConflictError", err)
	}

	// Rejected before any I/O.
	if got := readBack(t, config); got != "pwd = old\n" {
		t.Errorf("conflicting run modified config: %q", got)
	}
}

func TestRunner_Run_failFast(t *testing.T) {
	t.Setenv("SECRETFILL_RUNNER_TEST_PWD", "s3cr3t")

	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.conf")
	second := writeConfig(t, dir, "b.conf", "pwd = old\n")

	r := NewRunner(sliceLoader{minimalDescriptor(missing), minimalDescriptor(second)}, Options{})

	err := r.Run(context.Background())

	var missingErr *MissingConfigError
	if !errors.As(err, &missingErr) {
		t.Fatalf("Run() error = %v, want MissingConfigError", err)
	}

	if got := readBack(t, second); got != "pwd = old\n" {
		t.Errorf("descriptor after failure was still processed: %q", got)
	}
}

func TestRunner_Run_filter(t *testing.T) {
	t.Setenv("SECRETFILL_RUNNER_TEST_PWD", "s3cr3t")

	dir := t.TempDir()
	db := writeConfig(t, dir, "db.conf", "pwd = \n")
	web := writeConfig(t, dir, "web.conf", "pwd = \n")

	r := NewRunner(sliceLoader{
		minimalDescriptor(db, "db"),
		minimalDescriptor(web, "web"),
	}, Options{Filter: `"db" in tags`})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := readBack(t, db); got != "pwd = s3cr3t\n" {
		t.Errorf("db.conf = %q", got)
	}
	if got := readBack(t, web); got != "pwd = \n" {
		t.Errorf("filtered web.conf was deployed: %q", got)
	}
}

func TestPrintDryRun(t *testing.T) {
	var buf strings.Builder
	printDryRun(&buf, "/config/example.conf", "pwd = s3cr3t\n")

	out := buf.String()
	if !strings.HasPrefix(out, "-- [DRY RUN] /config/example.conf ---") {
		t.Errorf("missing divider header: %q", out)
	}
	if !strings.Contains(out, "pwd = s3cr3t\n") {
		t.Errorf("missing rendered config: %q", out)
	}
}

func TestRunner_Run_invalidFilter(t *testing.T) {
	r := NewRunner(sliceLoader{}, Options{Filter: `tags +`})

	if err := r.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want compile error")
	}
}

func TestRunner_Run_envLoader(t *testing.T) {
	dir := t.TempDir()
	config := writeConfig(t, dir, "example.conf", "user = admin\npwd  = \n")

	t.Setenv("SECRETFILL_RUNNER_TEST_DEPLOY",
		`{"config": "`+config+`", "assign": {"pwd": "ENV_PASSWORD"}, "persist": true}`)
	t.Setenv("ENV_PASSWORD", "bLupdLr4R2HY")

	loader, err := descriptor.NewLoader(descriptor.LoaderEnv, "SECRETFILL_RUNNER_TEST_DEPLOY")
	if err != nil {
		t.Fatal(err)
	}

	if err := NewRunner(loader, Options{}).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := readBack(t, config); got != "user = admin\npwd  = bLupdLr4R2HY\n" {
		t.Errorf("config = %q", got)
	}
	if got := readBack(t, TemplatePath(config)); got != "user = admin\npwd  = {{.ENV_PASSWORD}}\n" {
		t.Errorf("template = %q", got)
	}
}

func TestRunner_Run_unknownType(t *testing.T) {
	d := minimalDescriptor(filepath.Join(t.TempDir(), "a.conf"))
	d.Type = "xml"

	err := NewRunner(sliceLoader{d}, Options{}).Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want unsupported type error")
	}
}

func TestRunner_Run_loadErrorPropagates(t *testing.T) {
	if err := os.Unsetenv("SECRETFILL_RUNNER_TEST_ABSENT"); err != nil {
		t.Fatal(err)
	}

	loader, err := descriptor.NewLoader(descriptor.LoaderEnv, "SECRETFILL_RUNNER_TEST_ABSENT")
	if err != nil {
		t.Fatal(err)
	}

	err = NewRunner(loader, Options{}).Run(context.Background())

	var descErr *descriptor.DescriptorError
	if !errors.As(err, &descErr) {
		t.Fatalf("Run() error = %v, want DescriptorError", err)
	}
}
