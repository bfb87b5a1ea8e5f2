package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/wiresplit/internal/gen"
)

func newGenCommand() *cobra.Command {
	var opts gen.Options
	var out string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Write a synthetic capture of random frames",
		Long: `Write a synthetic capture of random frames for testing.

Output ending in .gz or .zst is compressed. Without --out the capture is
written to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, cerr := os.Create(out)
				if cerr != nil {
					return cerr
				}
				defer func() { err = errors.Join(err, f.Close()) }()

				zw, closeFn, cerr := gen.WrapCompressed(f, out)
				if cerr != nil {
					return cerr
				}
				defer func() { err = errors.Join(err, closeFn()) }()
				w = zw
			}

			st, err := gen.Write(w, opts)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d frames (%d bytes) to %s\n", st.Frames, st.Bytes, out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 100, "number of frames")
	cmd.Flags().IntVar(&opts.MaxPayload, "max-payload", 256, "largest payload in bytes")
	cmd.Flags().IntVar(&opts.Types, "types", 8, "number of distinct message types")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
