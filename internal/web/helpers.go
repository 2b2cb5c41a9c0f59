package web

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StaticDir is where /static/ assets are served from.
var StaticDir = "static"

var assetHashes sync.Map

// assetPath tags a /static/ path with a short content hash so browsers
// refetch an asset when it changes. Hashes are computed once per path.
func assetPath(path string) string {
	name, ok := strings.CutPrefix(path, "/static/")
	if !ok || name == "" {
		return path
	}
	if cached, ok := assetHashes.Load(name); ok {
		return appendAssetVersion(path, cached.(string))
	}
	data, err := os.ReadFile(filepath.Join(StaticDir, filepath.FromSlash(name)))
	if err != nil {
		return path
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:6])
	assetHashes.Store(name, hash)
	return appendAssetVersion(path, hash)
}

func appendAssetVersion(path, hash string) string {
	if hash == "" {
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	query := u.Query()
	query.Set("v", hash)
	u.RawQuery = query.Encode()
	return u.String()
}
