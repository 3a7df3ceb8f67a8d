package testdb

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProjectRootEnvVar overrides project root detection.
const ProjectRootEnvVar = "TASKD_PROJECT_ROOT"

// migrationsRelPath is the location of the goose migrations inside the
// repository.
var migrationsRelPath = filepath.Join("internal", "platform", "postgres", "migrations")

// FindProjectRoot returns the directory holding go.mod, starting from the
// working directory and walking up. ProjectRootEnvVar takes precedence when
// set.
func FindProjectRoot() (string, error) {
	if dir := os.Getenv(ProjectRootEnvVar); dir != "" {
		if isProjectRoot(dir) {
			return dir, nil
		}
		return "", fmt.Errorf("%s=%s does not contain go.mod", ProjectRootEnvVar, dir)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return findProjectRootFrom(wd)
}

func findProjectRootFrom(start string) (string, error) {
	for dir := start; ; {
		if isProjectRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in %s or any parent directory", start)
		}
		dir = parent
	}
}

func isProjectRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && !info.IsDir()
}

// FindMigrationsDir returns the absolute path of the migrations directory.
func FindMigrationsDir() (string, error) {
	root, err := FindProjectRoot()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, migrationsRelPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("migrations directory not found at %s", dir)
	}
	return dir, nil
}
