// Package desktop opens the browser console.
package desktop

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var ExecCommand = exec.Command
var RuntimeGOOS = runtime.GOOS

// OpenURL hands an http(s) URL to the platform opener without waiting for it.
func OpenURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return fmt.Errorf("invalid url %q", rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: only http and https are supported", rawURL)
	}

	name, args, err := opener(RuntimeGOOS)
	if err != nil {
		return err
	}
	return ExecCommand(name, append(args, rawURL)...).Start()
}

func opener(goos string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	default:
		return "", nil, fmt.Errorf("opening a browser is not supported on %s", goos)
	}
}
