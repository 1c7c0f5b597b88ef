package capture

import (
	"fmt"
	"net"
	"net/url"
)

// FormatDuration renders seconds as zero padded MM:SS. Minutes are not
// wrapped into hours.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// SecureOrigin reports whether rawURL is a secure context: https, or any
// scheme on a loopback host.
func SecureOrigin(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}

	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
