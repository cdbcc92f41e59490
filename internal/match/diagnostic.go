package match

import "github.com/kphang-wb/listing-match/internal/postal"

// DiagnosticExpect enumerates the optional field comparisons a caller can
// request against the matched candidate. An empty field is skipped and its
// report entry stays nil. Expected values must use the registry's own
// formatting; comparisons are exact, except the postal code which is
// normalized on both sides first.
type DiagnosticExpect struct {
	Denomination string
	PostalCode   string
	Faith        string
	Age          string
	Category     string
	Culture      string
	Faithstream  string
	Language     string
}

// DiagnosticReport holds the outcome of the requested comparisons. A nil
// entry means the comparison was not requested.
type DiagnosticReport struct {
	Denomination *bool `json:"denomination,omitempty"`
	PostalCode   *bool `json:"postalCode,omitempty"`
	Faith        *bool `json:"faith,omitempty"`
	Age          *bool `json:"age,omitempty"`
	Category     *bool `json:"category,omitempty"`
	Culture      *bool `json:"culture,omitempty"`
	Faithstream  *bool `json:"faithstream,omitempty"`
	Language     *bool `json:"language,omitempty"`
}

// Compare evaluates the requested comparisons against a candidate.
func (e DiagnosticExpect) Compare(c Candidate) *DiagnosticReport {
	rep := &DiagnosticReport{}
	rep.Denomination = compare(e.Denomination, c.Tags.Denomination)
	rep.Faith = compare(e.Faith, c.Tags.Faith)
	rep.Age = compare(e.Age, c.Tags.Age)
	rep.Category = compare(e.Category, c.Tags.Category)
	rep.Culture = compare(e.Culture, c.Tags.Culture)
	rep.Faithstream = compare(e.Faithstream, c.Tags.Faithstream)
	rep.Language = compare(e.Language, c.Tags.Language)
	if e.PostalCode != "" {
		eq := postal.Normalize(e.PostalCode) == postal.Normalize(c.PostalCode)
		rep.PostalCode = &eq
	}
	return rep
}

func compare(expected, actual string) *bool {
	if expected == "" {
		return nil
	}
	eq := expected == actual
	return &eq
}
