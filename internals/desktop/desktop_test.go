package desktop

import (
	"os/exec"
	"testing"
)

func TestOpenURLRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "file:///etc/passwd", "://nope"} {
		if err := OpenURL(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestOpenURLUnsupportedPlatform(t *testing.T) {
	originalGOOS := RuntimeGOOS
	t.Cleanup(func() { RuntimeGOOS = originalGOOS })
	RuntimeGOOS = "plan9"

	if err := OpenURL("http://localhost:57880"); err == nil {
		t.Fatalf("expected error for unsupported platform")
	}
}

func TestOpenURLUsesPlatformOpener(t *testing.T) {
	originalExec := ExecCommand
	originalGOOS := RuntimeGOOS
	t.Cleanup(func() {
		ExecCommand = originalExec
		RuntimeGOOS = originalGOOS
	})

	cases := []struct {
		goos string
		name string
		args []string
	}{
		{"linux", "xdg-open", []string{"http://localhost:57880"}},
		{"darwin", "open", []string{"http://localhost:57880"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "http://localhost:57880"}},
	}
	for _, tc := range cases {
		t.Run(tc.goos, func(t *testing.T) {
			RuntimeGOOS = tc.goos
			var gotName string
			var gotArgs []string
			ExecCommand = func(name string, args ...string) *exec.Cmd {
				gotName = name
				gotArgs = append([]string(nil), args...)
				return exec.Command("sh", "-c", "true")
			}

			if err := OpenURL("http://localhost:57880"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotName != tc.name {
				t.Fatalf("expected %s, got %s", tc.name, gotName)
			}
			if len(gotArgs) != len(tc.args) {
				t.Fatalf("expected args %v, got %v", tc.args, gotArgs)
			}
			for i := range tc.args {
				if gotArgs[i] != tc.args[i] {
					t.Fatalf("expected args %v, got %v", tc.args, gotArgs)
				}
			}
		})
	}
}
