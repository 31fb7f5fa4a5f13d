package mediaurl

import (
	"net/url"
	"strings"
)

const PathPrefix = "/media/avatars/"

// Avatar builds the public URL for a stored avatar asset path
// ({userID}/{filename}).
func Avatar(baseURL, assetPath string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return PathPrefix + assetPath
	}
	return baseURL + PathPrefix + assetPath
}

// ParseAssetPath recovers the storage key from a stored avatar URL. The
// replace workflow uses this to locate the previous asset for cleanup.
func ParseAssetPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	path := u.Path
	if path == "" {
		path = raw
	}

	if !strings.HasPrefix(path, PathPrefix) {
		return "", false
	}

	assetPath := strings.TrimPrefix(path, PathPrefix)
	parts := strings.Split(assetPath, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}

	return assetPath, true
}
