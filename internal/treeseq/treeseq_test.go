package treeseq

import "testing"

func sample() *Dataset {
	return &Dataset{
		NumSamples: 3,
		Sites: []Site{
			{Position: 1, AncestralState: Ancestral, Mutations: []Mutation{{Node: 0, DerivedState: Derived}}, Genotypes: []int{1, 0, 0}},
			{Position: 4, AncestralState: Ancestral, Mutations: []Mutation{{Node: 2, DerivedState: Derived}, {Node: 2, DerivedState: Ancestral}}, Genotypes: []int{0, 0, 0}},
		},
	}
}

func TestDatasetCounts(t *testing.T) {
	d := sample()
	if got := d.NumMutations(); got != 3 {
		t.Fatalf("NumMutations=%d want 3", got)
	}
	for i, s := range d.Sites {
		if !s.Segregating() {
			t.Fatalf("site %d should be segregating", i)
		}
	}
	if (Site{}).Segregating() {
		t.Fatalf("empty site must not be segregating")
	}
	var nilDS *Dataset
	if nilDS.NumMutations() != 0 {
		t.Fatalf("nil dataset should have no mutations")
	}
}

func TestHaplotype(t *testing.T) {
	d := sample()
	alleles := FlipModel().Alleles
	if got := d.Haplotype(0, alleles); got != "GA" {
		t.Fatalf("sample 0 = %q want GA", got)
	}
	if got := d.Haplotype(2, alleles); got != "AA" {
		t.Fatalf("sample 2 = %q want AA", got)
	}
}

func TestDatasetValidate(t *testing.T) {
	alleles := FlipModel().Alleles
	if err := sample().Validate(10, alleles); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}
	d := sample()
	d.Sites[0].Genotypes = []int{1}
	if err := d.Validate(10, alleles); err == nil {
		t.Fatalf("expected genotype width error")
	}
	d = sample()
	d.Sites[1].Position = 10
	if err := d.Validate(10, alleles); err == nil {
		t.Fatalf("expected out-of-range position error")
	}
	d = sample()
	d.Sites[0].Genotypes[1] = 2
	if err := d.Validate(10, alleles); err == nil {
		t.Fatalf("expected allele index error")
	}
}

func TestTreeSequenceValidate(t *testing.T) {
	ts := &TreeSequence{SequenceLength: 10, NumSamples: 4, Trees: []Tree{
		{Left: 0, Right: 3, Root: 6, RootTime: 1.5},
		{Left: 3, Right: 10, Root: 7, RootTime: 2},
	}}
	if err := ts.Validate(); err != nil {
		t.Fatalf("valid tree sequence rejected: %v", err)
	}
	if ts.NumTrees() != 2 {
		t.Fatalf("NumTrees=%d", ts.NumTrees())
	}
	ts.Trees[1].Left = 2
	if err := ts.Validate(); err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestFlipModelValidate(t *testing.T) {
	if err := FlipModel().Validate(); err != nil {
		t.Fatalf("flip model rejected: %v", err)
	}
	m := FlipModel()
	m.TransitionMatrix = [][]float64{{0.5, 0.5}, {1, 0}}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected asymmetric matrix to be rejected")
	}
	m = FlipModel()
	m.Alleles = []string{"A", "C", "G"}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected three-allele model to be rejected")
	}
	m = FlipModel()
	m.RootDistribution = []float64{0.5, 0.5}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected mixed root distribution to be rejected")
	}
}
