package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-lookup/internal/liftover"
	"github.com/inodb/vibe-lookup/internal/refseq"
)

func newLiftoverCmd() *cobra.Command {
	var metaPath string

	cmd := &cobra.Command{
		Use:   "liftover <position>...",
		Short: "Map genomic positions to transcript-relative coding offsets",
		Long: `Map genomic positions onto the coding sequence described by the metadata's
mRNA and CDS segments. Positions before the first mRNA segment are reported as
negative offsets from the coding start.`,
		Example: `  vibe-lookup liftover --metadata NG_007110.json 5012 5230`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if metaPath == "" {
				return &usageError{errors.New("--metadata is required")}
			}
			meta, err := refseq.ReadMetadataFile(metaPath)
			if err != nil {
				return err
			}
			m, err := liftover.FromMetadata(&meta)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				pos, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return &usageError{fmt.Errorf("invalid position %q", arg)}
				}
				offset, err := m.Map(pos)
				if errors.Is(err, liftover.ErrNotInCDS) {
					fmt.Fprintf(out, "%d\t.\n", pos)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%d\n", pos, offset)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metaPath, "metadata", "", "Reference sequence JSON metadata")

	return cmd
}
