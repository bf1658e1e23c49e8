package main

import (
	"os"
	"strings"

	"shortdash-cli/internal/cli"
	"shortdash-cli/internal/resources"
)

// splitItemRef splits "links/12" into ("links", "12") for known resources.
func splitItemRef(s string) (string, string, bool) {
	key, id, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return "", "", false
	}
	for _, k := range resources.Keys {
		if k == key {
			return key, id, true
		}
	}
	return "", "", false
}

// rewriteItemRefArgs turns `shortdash links/12` into `shortdash links show 12`.
//
// Cobra treats the first positional token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first (`shortdash --role admin
// links/12`), so this looks for the first positional token rather than argv[1].
func rewriteItemRefArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--api-url":   true,
		"--token":     true,
		"--role":      true,
		"--access":    true,
		"--format":    true,
		"--log-level": true,
	}

	rewrite := func(i int) []string {
		key, id, ok := splitItemRef(argv[i])
		if !ok {
			return argv
		}
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, key, "show", id)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if _, _, ok := splitItemRef(argv[i+1]); ok {
					return rewrite(i + 1)
				}
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		return rewrite(i)
	}
	return argv
}

func main() {
	os.Args = rewriteItemRefArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
