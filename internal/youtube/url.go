package youtube

import (
	"net/url"
	"strings"

	"github.com/filmchain/track-shorts/internal/apperror"
)

const shortLinkHost = "youtu.be"

var videoHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
}

// ParseVideoID extracts the video id from a youtu.be short link, a
// /shorts/{id} url or a /watch?v={id} url. Hosts are compared exactly.
func ParseVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", apperror.InvalidURL(rawURL)
	}

	// Host keeps any port, so youtu.be:8443 is not youtu.be.
	host := u.Host

	if host == shortLinkHost {
		id := strings.TrimPrefix(u.Path, "/")
		if id == "" {
			return "", apperror.InvalidURL(rawURL)
		}
		return id, nil
	}

	if !videoHosts[host] {
		return "", apperror.InvalidURL(rawURL)
	}

	if strings.HasPrefix(u.Path, "/shorts/") {
		id := strings.SplitN(strings.TrimPrefix(u.Path, "/shorts/"), "/", 2)[0]
		if id == "" {
			return "", apperror.InvalidURL(rawURL)
		}
		return id, nil
	}

	if u.Path == "/watch" {
		values := u.Query()["v"]
		if len(values) > 0 && values[0] != "" {
			return values[0], nil
		}
	}

	return "", apperror.InvalidURL(rawURL)
}
