package output

// Default file names, relative to the output directory.
const (
	SequencesFile = "gen_data.fasta"
	ReferenceFile = "ref_seq.fasta"
	StatsFile     = "data_props.txt"
)

// ReferenceHeader names the single record of the reference file.
const ReferenceHeader = "Reference"

// LineWidth is the FASTA wrap width for sample sequences.
const LineWidth = 60
