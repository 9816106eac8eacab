package main

import (
	"fmt"
	"os"
	"strings"

	"datewheel/internal/cli"
)

// rewriteStartArgs turns `datewheel <date>` into `datewheel pick --at <date>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first (`datewheel --locale es
// 19/11/2025`), so the first positional token is located rather than argv[1].
func rewriteStartArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config": true,
		"--locale": true,
		"--format": true,
	}

	rewrite := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "pick", "--at")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && cli.IsStartArg(argv[i+1]) {
				out := append([]string{}, argv[:i]...)
				out = append(out, "pick", "--at")
				return append(out, argv[i+1:]...)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if cli.IsStartArg(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteStartArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "datewheel:", err)
		os.Exit(1)
	}
}
