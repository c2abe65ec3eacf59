package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	binPath string
)

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	// Build the binary. Tests run from the e2e directory (go test ./e2e/...),
	// so the main package is at ../cmd/kharcha.
	dir, err := os.MkdirTemp("", "kharcha-e2e")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	binPath = filepath.Join(dir, "kharcha")
	cmd := exec.Command("go", "build", "-o", binPath, "../cmd/kharcha")
	if _, err := os.Stat("../cmd/kharcha"); os.IsNotExist(err) {
		if _, err := os.Stat("cmd/kharcha"); err == nil {
			cmd = exec.Command("go", "build", "-o", binPath, "./cmd/kharcha")
		} else {
			fmt.Println("Could not find cmd/kharcha to build")
			return 1
		}
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		fmt.Printf("Failed to build app: %v\n%s\n", err, output)
		return 1
	}

	return m.Run()
}
