package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// run executes the root command with fresh flag state and returns stdout.
func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, c := range []*cobra.Command{settingsSetCmd, reconcileCmd, shellCmd} {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--dbpath", filepath.Join(dir, "settings.sqlite"),
		"--loglevel", "error",
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSettingsSetAndShow(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, dir, "", "settings", "set", "--target-products", "3, 3,abc,1", "--free-products", "9"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "", "settings", "set", "--categories", "5,4"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "", "settings", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"bogo_target_product_ids   3,1", "bogo_free_product_ids     9", "bogo_target_categories    5,4", "enabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings show missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, dir, "", "settings", "set"); err == nil {
		t.Fatal("expected an error without flags")
	}
}

func TestUninstallRemovesOptions(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "", "settings", "set", "--target-products", "1", "--free-products", "2"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "", "uninstall"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "", "db", "options")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No options stored.") {
		t.Fatalf("options left after uninstall:\n%s", out)
	}
}

func TestReconcileAddsGiftFromCategory(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.json")
	err := os.WriteFile(catalogPath, []byte(`{
  "categories": [{"id": 4, "name": "Hats"}],
  "products": [{"id": 12, "categories": [4]}]
}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "", "settings", "set", "--categories", "4", "--free-products", "9"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, dir, "lines:\n  - product_id: 12\n    unit_price: \"5.50\"\n", "reconcile", "--catalog", catalogPath)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cart.Decode(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	lines := got.Lines()
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d:\n%s", len(lines), out)
	}
	if lines[1].ProductID != 9 || !lines[1].FreeGift || !lines[1].UnitPrice.IsZero() {
		t.Fatalf("unexpected gift line: %+v", lines[1])
	}

	// Back-office page loads leave the cart alone.
	out, err = run(t, dir, "lines:\n  - product_id: 12\n", "reconcile", "--catalog", catalogPath, "--admin")
	if err != nil {
		t.Fatal(err)
	}
	got, _ = cart.Decode(strings.NewReader(out))
	if len(got.Lines()) != 1 {
		t.Fatalf("admin pass changed the cart:\n%s", out)
	}
}

func TestDBShellQuery(t *testing.T) {
	if _, err := exec.LookPath("sqlite3"); err != nil {
		t.Skip("sqlite3 not installed")
	}
	dir := t.TempDir()
	if _, err := run(t, dir, "", "settings", "set", "--free-products", "9"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "", "db", "shell", "-q", "SELECT option_value FROM options WHERE option_key = 'bogo_free_product_ids'")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "9") {
		t.Fatalf("query output missing value:\n%s", out)
	}
}
