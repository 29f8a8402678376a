package output

import (
	"bufio"
	"io"
)

// fastaLineWidth is the number of bases per sequence line.
const fastaLineWidth = 60

// WriteFASTA writes a single FASTA record with wrapped sequence lines.
func WriteFASTA(w io.Writer, name, seq string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(">" + name + "\n"); err != nil {
		return err
	}
	for i := 0; i < len(seq); i += fastaLineWidth {
		end := min(i+fastaLineWidth, len(seq))
		if _, err := bw.WriteString(seq[i:end] + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
