package auth

import (
	"regexp"
	"strings"
)

var (
	androidVersion = regexp.MustCompile(`Android (\d+(?:\.\d+)?)`)
	chromeVersion  = regexp.MustCompile(`Chrome/(\d+(?:\.\d+)?)`)
	safariVersion  = regexp.MustCompile(`Version/(\d+(?:\.\d+)?)`)
	firefoxVersion = regexp.MustCompile(`Firefox/(\d+(?:\.\d+)?)`)
	edgeVersion    = regexp.MustCompile(`Edg/(\d+(?:\.\d+)?)`)
)

// DescribeUserAgent turns a User-Agent header into a short "Browser on OS"
// label for login alerts.
func DescribeUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown device"
	}

	os := "Unknown OS"
	switch {
	case strings.Contains(ua, "Android"):
		os = "Android"
		if m := androidVersion.FindStringSubmatch(ua); m != nil {
			os += " " + m[1]
		}
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		os = "iOS"
	case strings.Contains(ua, "Windows"):
		os = "Windows"
	case strings.Contains(ua, "Mac OS"), strings.Contains(ua, "Macintosh"):
		os = "macOS"
	case strings.Contains(ua, "Linux"):
		os = "Linux"
	}

	browser := "Unknown browser"
	// order matters: Edge and Chrome UAs also mention Safari
	switch {
	case edgeVersion.MatchString(ua):
		browser = "Edge " + edgeVersion.FindStringSubmatch(ua)[1]
	case chromeVersion.MatchString(ua):
		browser = "Chrome " + chromeVersion.FindStringSubmatch(ua)[1]
	case firefoxVersion.MatchString(ua):
		browser = "Firefox " + firefoxVersion.FindStringSubmatch(ua)[1]
	case strings.Contains(ua, "Safari"):
		browser = "Safari"
		if m := safariVersion.FindStringSubmatch(ua); m != nil {
			browser += " " + m[1]
		}
	}

	return browser + " on " + os
}
