package main

import (
	"os"
	"strings"

	"churchplan/internal/cli"
)

func isEventID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "evt-") && len(s) > len("evt-")
}

// rewriteDirectEventArgs makes `churchplan <event-id>` work like
// `churchplan timeline show --event <event-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
// parsing. Persistent flags may come first, so this looks for the first positional token.
func rewriteDirectEventArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--event":     true,
		"--format":    true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		if isEventID(a) {
			out := make([]string, 0, len(argv)+3)
			out = append(out, argv[:i]...)
			out = append(out, "timeline", "show", "--event", a)
			out = append(out, argv[i+1:]...)
			return out
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectEventArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
