package docservice

import "strings"

const (
	// LocalBaseURL is the service address used during local development.
	LocalBaseURL = "http://localhost:4000"
	// FallbackBaseURL is used when no remote address is configured.
	FallbackBaseURL = "https://pi-generator-server-05-1.onrender.com"
)

// ResolveBaseURL picks the service base URL for a session running on host.
// Local development hosts always use LocalBaseURL; other hosts use the
// configured address or FallbackBaseURL. Trailing slashes are stripped.
func ResolveBaseURL(host, configured string) string {
	base := configured
	switch {
	case isLocalHost(host):
		base = LocalBaseURL
	case base == "":
		base = FallbackBaseURL
	}
	return strings.TrimRight(base, "/")
}

func isLocalHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}
