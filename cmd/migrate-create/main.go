package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	name := flag.String("name", "", "migration name, e.g. add_round_artwork")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	slug, err := migrationSlug(*name)
	if err != nil {
		log.Fatal(err)
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, slug)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}
	if err := writeFile(upPath, fmt.Sprintf("-- %s: apply\n", slug)); err != nil {
		log.Fatalf("create up migration: %v", err)
	}
	if err := writeFile(downPath, fmt.Sprintf("-- %s: revert\n", slug)); err != nil {
		log.Fatalf("create down migration: %v", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
}

// migrationSlug lower-cases name and rejects anything but letters, digits
// and underscores.
func migrationSlug(name string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	if slug == "" {
		return "", fmt.Errorf("migration name is required")
	}
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return "", fmt.Errorf("migration name %q may only contain letters, digits and underscores", name)
	}
	return slug, nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
