package cli

import (
	"github.com/spf13/cobra"

	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// stdinArg reads a lockfile from standard input.
const stdinArg = "-"

// fromStdin reports whether args name standard input.
func fromStdin(args []string) bool {
	return len(args) == 1 && args[0] == stdinArg
}

// readInputs loads the lockfiles named by args. A lone "-" reads standard
// input under stdinName ("stdin" when empty); otherwise args are files or directories to search.
func readInputs(cmd *cobra.Command, args []string, stdinName string, exclude *lsio.Matcher) ([]lockfile.File, error) {
	if fromStdin(args) {
		if stdinName == "" {
			stdinName = "stdin"
		}
		f, err := lsio.ReadLockfile(cmd.InOrStdin(), stdinName)
		if err != nil {
			return nil, err
		}
		return []lockfile.File{f}, nil
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	paths, err := lsio.Collect(args, exclude)
	if err != nil {
		return nil, err
	}
	return lsio.ImportLockfiles(paths)
}
