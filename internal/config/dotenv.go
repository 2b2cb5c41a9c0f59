package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads every env file in paths that exists. Variables already in
// the environment win, and so do files listed earlier.
func LoadDotEnv(paths ...string) error {
	var found []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		found = append(found, path)
	}
	if len(found) == 0 {
		return nil
	}
	return godotenv.Load(found...)
}
