package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shepherd/internal/adapters/token"
)

// run executes the CLI against a database in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	globalFlags.debug = false
	globalFlags.db = ""
	var out, errOut bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", filepath.Join(dir, "shepherd.db")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SHEPHERD_ENV", "development")
	t.Setenv("SHEPHERD_TOKEN_SECRET", "cli-test-secret")
	t.Setenv("SHEPHERD_TZ", "UTC")
	return dir
}

func TestServiceAndTokenCommands(t *testing.T) {
	dir := setupEnv(t)

	if _, err := run(t, dir, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := run(t, dir, "add-service", "--id", "sunday-am", "--name", "Sunday Worship", "--day", "Sunday", "--start", "09:00"); err != nil {
		t.Fatalf("add-service: %v", err)
	}
	if _, err := run(t, dir, "add-service", "--id", "sunday-am", "--name", "Bad", "--day", "someday", "--start", "09:00"); err == nil {
		t.Error("an invalid day should fail")
	}

	out, err := run(t, dir, "list-services")
	if err != nil {
		t.Fatalf("list-services: %v", err)
	}
	if !strings.Contains(out, "sunday-am") || !strings.Contains(out, "Sunday Worship") || !strings.Contains(out, "sunday") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = run(t, dir, "issue-token", "--service", "sunday-am", "--date", "2024-05-12", "--ttl", "2h")
	if err != nil {
		t.Fatalf("issue-token: %v", err)
	}
	claims, err := token.NewCodec("cli-test-secret").Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("printed token does not parse: %v", err)
	}
	if claims.ServiceID != "sunday-am" || claims.Date != "2024-05-12" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := run(t, dir, "issue-token", "--service", "missing"); err == nil {
		t.Error("unknown service should fail")
	}
}

func TestImportMembersCommand(t *testing.T) {
	dir := setupEnv(t)
	csvPath := filepath.Join(dir, "roster.csv")
	roster := "name,email,phone\nAma Mensah,ama@example.org,0241000001\nKojo,kojo@example.org,bad\n"
	if err := os.WriteFile(csvPath, []byte(roster), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "import-members", "--dry-run", csvPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "dry run") || !strings.Contains(out, "created 1") || !strings.Contains(out, "row 3") {
		t.Errorf("dry run output:\n%s", out)
	}

	if _, err := run(t, dir, "import-members", csvPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	out, err = run(t, dir, "import-members", csvPath)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !strings.Contains(out, "skipped 1") {
		t.Errorf("re-import should skip the existing member:\n%s", out)
	}
}

func TestCreateAdminRequiresFlags(t *testing.T) {
	dir := setupEnv(t)
	if _, err := run(t, dir, "create-admin", "--email", "pastor@example.org"); err == nil {
		t.Error("missing --password should fail")
	}
}
