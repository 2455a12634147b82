package commands

import (
	"fmt"

	"github.com/joho/godotenv"
)

// loadEnvFile overrides the process environment with the values in path.
func loadEnvFile(path string) error {
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
