package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"finsim/internal/treeseq"
)

// WriteSequences writes one record per sample, headed ">n<index>", with the
// sample's allele calls over every site wrapped at LineWidth columns.
// A dataset without sites yields headers followed by empty sequence lines.
func WriteSequences(w io.Writer, ds *treeseq.Dataset, alleles []string) error {
	for i := 0; i < ds.NumSamples; i++ {
		if _, err := fmt.Fprintf(w, ">n%d\n", i); err != nil {
			return err
		}
		if err := writeWrapped(w, ds.Haplotype(i, alleles)); err != nil {
			return err
		}
	}
	return nil
}

// WriteReference writes the ">Reference" record: n ancestral symbols on one line.
func WriteReference(w io.Writer, n int) error {
	if n < 0 {
		return fmt.Errorf("negative reference length %d", n)
	}
	_, err := fmt.Fprintf(w, ">%s\n%s\n", ReferenceHeader, strings.Repeat(treeseq.Ancestral, n))
	return err
}

func writeWrapped(w io.Writer, seq string) error {
	if seq == "" {
		_, err := io.WriteString(w, "\n")
		return err
	}
	for len(seq) > 0 {
		n := min(LineWidth, len(seq))
		if _, err := io.WriteString(w, seq[:n]+"\n"); err != nil {
			return err
		}
		seq = seq[n:]
	}
	return nil
}

// WriteSequencesFile truncates path and writes the sample alignment to it.
func WriteSequencesFile(path string, ds *treeseq.Dataset, alleles []string) error {
	return overwrite(path, func(w io.Writer) error { return WriteSequences(w, ds, alleles) })
}

// WriteReferenceFile truncates path and writes the reference record to it.
func WriteReferenceFile(path string, n int) error {
	return overwrite(path, func(w io.Writer) error { return WriteReference(w, n) })
}

func overwrite(path string, fill func(io.Writer) error) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return ioErr("create", path, err)
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = ioErr("close", path, cerr)
		}
	}()
	bw := bufio.NewWriter(fh)
	if err := fill(bw); err != nil {
		return ioErr("write", path, err)
	}
	return ioErr("flush", path, bw.Flush())
}
