package rules

// Cohort names used by the default configuration. Callers that need the
// built-in managers refer to these rather than repeating the literals.
const (
	CohortRosimere = "Rosimere Barboza de Abreu"
	CohortAlmir    = "Almir Farias Albuquerque"
)

// agroKeywords flags agriculture-related customers and segments. Rows
// matching any of them belong to the Almir cohort regardless of
// salesperson, and are excluded from the Rosimere cohort.
var agroKeywords = []string{"AGRO", "AGRICULTURA", "RURAL", "FAZENDA", "OVOS", "AVICULTURA"}

// Defaults returns the built-in rule set. Load merges a YAML override on
// top of it when one is configured.
func Defaults() *Set {
	s := &Set{
		SegmentRules: []SegmentRule{
			{Match: "CLIENTE FÁBRICA ", Canonical: "CLIENTE FÁBRICA"},
			{Match: "CLIENTE FABRICA", Canonical: "CLIENTE FÁBRICA"},
			{Match: "INSTITUCIONAL ", Canonical: "INSTITUCIONAL"},
		},
		PaymentRules: []PaymentRule{
			// Bank-slip payments arrive as free text ("Boleto 30 dias")
			// or as the legacy ERP condition codes 28 and 35.
			{Pattern: `(?i)boleto`, Label: "Bank Slip"},
			{Pattern: `\b28\b`, Label: "Bank Slip"},
			{Pattern: `\b35\b`, Label: "Bank Slip"},
		},
		PaymentAllowList: []string{"Bank Slip", "PIX", "Dinheiro", "Permuta"},
		Cohorts: []Cohort{
			{
				Name:            CohortRosimere,
				Salesperson:     []string{"ROSIMERI"},
				Keywords:        agroKeywords,
				ExcludeKeywords: true,
				StateSegments: map[string][]string{
					"PE": {"INSTITUCIONAL", "CLIENTE FÁBRICA"},
					"RN": {"INSTITUCIONAL"},
				},
			},
			{
				Name:            CohortAlmir,
				Salesperson:     []string{"ALMIR"},
				Keywords:        agroKeywords,
				IncludeKeywords: true,
			},
		},
	}
	if err := s.compile(); err != nil {
		// Default patterns are constants; a compile failure is a bug.
		panic(err)
	}
	return s
}
