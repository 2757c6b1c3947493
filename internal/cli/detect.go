package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	lsio "github.com/matzehuels/lockscan/pkg/io"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// detection is one line of detect output.
type detection struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Known  bool   `json:"known"`
}

// detectCommand creates the detect command.
func (c *CLI) detectCommand() *cobra.Command {
	var (
		jsonOut  bool
		filename string
	)

	cmd := &cobra.Command{
		Use:   "detect [path...]",
		Short: "Identify the format of lockfiles",
		Long: `Identify the dialect of each lockfile without parsing it fully.

Paths may be files or directories; directories are searched for
package-lock.json, yarn.lock and pnpm-lock.yaml. Use "-" to read a single
lockfile from standard input.

Exits non-zero when any file is in an unrecognized format.`,
		Example: `  lockscan detect
  lockscan detect package-lock.json
  cat yarn.lock | lockscan detect - --filename yarn.lock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readInputs(cmd, args, filename, nil)
			if err != nil {
				return err
			}

			results := make([]detection, len(files))
			unknown := 0
			for i, f := range files {
				format := lockfile.DetectWithHint(f.Content, f.Name)
				results[i] = detection{Path: f.Name, Format: format.String(), Known: format.Known()}
				if !format.Known() {
					unknown++
				}
				loggerFromContext(cmd.Context()).Debug("detected", "file", f.Name, "format", format)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := lsio.WriteJSON(results, out); err != nil {
					return err
				}
			} else {
				for _, d := range results {
					fmt.Fprintf(out, "%s\t%s\n", d.Path, d.Format)
				}
			}

			if unknown > 0 {
				return lserrors.New(lserrors.ErrCodeUnknownFormat, "%d of %d file(s) in an unrecognized format", unknown, len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "write results as JSON")
	cmd.Flags().StringVar(&filename, "filename", "", "file name hint when reading standard input")

	return cmd
}
