package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lookup/internal/output"
)

func newTranscribeCmd() *cobra.Command {
	var (
		fastaPath string
		metaPath  string
		cdsOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Print the mRNA (or coding) sequence as FASTA",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadRecord(fastaPath, metaPath)
			if err != nil {
				return err
			}

			name, seq := rec.Name+" mRNA", rec.Transcribe()
			if cdsOnly {
				name, seq = rec.Name+" CDS", rec.CodingSequence()
			}
			logger.Debug("transcribed", zap.String("name", rec.Name), zap.Int("length", len(seq)))
			return output.WriteFASTA(cmd.OutOrStdout(), name, seq)
		},
	}

	cmd.Flags().StringVar(&fastaPath, "fasta", "", "Reference sequence FASTA file")
	cmd.Flags().StringVar(&metaPath, "metadata", "", "Reference sequence JSON metadata")
	cmd.Flags().BoolVar(&cdsOnly, "cds", false, "Only output the coding sequence")

	return cmd
}
