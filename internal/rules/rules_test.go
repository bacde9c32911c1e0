package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iamdaviwilliam/phiq-insights/internal/model"
)

func TestCanonicalSegment(t *testing.T) {
	s := Defaults()

	tests := []struct {
		in   string
		want string
	}{
		{"CLIENTE FÁBRICA ", "CLIENTE FÁBRICA"},
		{"CLIENTE FABRICA", "CLIENTE FÁBRICA"},
		{"INSTITUCIONAL ", "INSTITUCIONAL"},
		{"INSTITUCIONAL", "INSTITUCIONAL"},
		{"VAREJO", "VAREJO"},
	}
	for _, tt := range tests {
		if got := s.CanonicalSegment(tt.in); got != tt.want {
			t.Errorf("CanonicalSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalPayment(t *testing.T) {
	s := Defaults()

	tests := []struct {
		name    string
		in      string
		want    string
		allowed bool
	}{
		{"boleto keyword", "Boleto 30 dias", "Bank Slip", true},
		{"boleto lowercase", "boleto bancário", "Bank Slip", true},
		{"code 28", "Cond. 28", "Bank Slip", true},
		{"code 35", "35", "Bank Slip", true},
		{"code inside larger number", "2835", "2835", false},
		{"pix", "PIX", "PIX", true},
		{"dinheiro", " Dinheiro ", "Dinheiro", true},
		{"permuta", "Permuta", "Permuta", true},
		{"unrecognized", "Cartão de Crédito", "Cartão de Crédito", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, allowed := s.CanonicalPayment(tt.in)
			if got != tt.want || allowed != tt.allowed {
				t.Errorf("CanonicalPayment(%q) = (%q, %v), want (%q, %v)",
					tt.in, got, allowed, tt.want, tt.allowed)
			}
		})
	}
}

func TestCohortMatches(t *testing.T) {
	s := Defaults()
	rosimere, ok := s.Cohort(CohortRosimere)
	if !ok {
		t.Fatal("missing Rosimere cohort in defaults")
	}
	almir, ok := s.Cohort(CohortAlmir)
	if !ok {
		t.Fatal("missing Almir cohort in defaults")
	}

	tests := []struct {
		name         string
		tx           model.Transaction
		wantRosimere bool
		wantAlmir    bool
	}{
		{
			name:         "rosimere plain",
			tx:           model.Transaction{CustomerID: "PADARIA CENTRAL", Salesperson: "ROSIMERI B ABREU", Segment: "VAREJO", State: "PB"},
			wantRosimere: true,
			wantAlmir:    false,
		},
		{
			name:         "rosimere agro customer goes to almir",
			tx:           model.Transaction{CustomerID: "FAZENDA BOA VISTA", Salesperson: "ROSIMERI B ABREU", Segment: "VAREJO", State: "PB"},
			wantRosimere: false,
			wantAlmir:    true,
		},
		{
			name:         "almir salesperson",
			tx:           model.Transaction{CustomerID: "MERCADO SILVA", Salesperson: "ALMIR F ALBUQUERQUE", Segment: "VAREJO", State: "PE"},
			wantRosimere: false,
			wantAlmir:    true,
		},
		{
			name:         "agro segment without either salesperson",
			tx:           model.Transaction{CustomerID: "GRANJA NORDESTE", Salesperson: "CARLOS", Segment: "AVICULTURA", State: "RN"},
			wantRosimere: false,
			wantAlmir:    true,
		},
		{
			name:         "neither",
			tx:           model.Transaction{CustomerID: "MERCADO SILVA", Salesperson: "CARLOS", Segment: "VAREJO", State: "PB"},
			wantRosimere: false,
			wantAlmir:    false,
		},
		{
			name:         "rosimere blocked by state segment table",
			tx:           model.Transaction{CustomerID: "MERCADO SILVA", Salesperson: "ROSIMERI B ABREU", Segment: "VAREJO", State: "RN"},
			wantRosimere: false,
			wantAlmir:    false,
		},
		{
			name:         "rosimere allowed segment in restricted state",
			tx:           model.Transaction{CustomerID: "PREFEITURA NATAL", Salesperson: "ROSIMERI B ABREU", Segment: "INSTITUCIONAL", State: "RN"},
			wantRosimere: true,
			wantAlmir:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rosimere.Matches(tt.tx); got != tt.wantRosimere {
				t.Errorf("rosimere.Matches = %v, want %v", got, tt.wantRosimere)
			}
			if got := almir.Matches(tt.tx); got != tt.wantAlmir {
				t.Errorf("almir.Matches = %v, want %v", got, tt.wantAlmir)
			}
		})
	}
}

// The default cohorts must partition transactions disjointly: no row may
// satisfy both predicates at once.
func TestCohortsDisjoint(t *testing.T) {
	s := Defaults()
	rosimere, _ := s.Cohort(CohortRosimere)
	almir, _ := s.Cohort(CohortAlmir)

	salespeople := []string{"ROSIMERI B ABREU", "ALMIR F ALBUQUERQUE", "CARLOS", ""}
	customers := []string{"PADARIA CENTRAL", "FAZENDA BOA VISTA", "AGRO INSUMOS LTDA", ""}
	segments := []string{"VAREJO", "AVICULTURA", "INSTITUCIONAL", "Not Informed"}
	states := []string{"PB", "PE", "RN"}

	for _, sp := range salespeople {
		for _, cu := range customers {
			for _, seg := range segments {
				for _, st := range states {
					tx := model.Transaction{CustomerID: cu, Salesperson: sp, Segment: seg, State: st}
					if rosimere.Matches(tx) && almir.Matches(tx) {
						t.Errorf("transaction matched both cohorts: %+v", tx)
					}
				}
			}
		}
	}
}

func TestAssignFirstMatchWins(t *testing.T) {
	s := Defaults()
	tx := model.Transaction{CustomerID: "PADARIA CENTRAL", Salesperson: "ROSIMERI B ABREU", Segment: "VAREJO", State: "PB"}

	c, ok := s.Assign(tx)
	if !ok {
		t.Fatal("expected an assignment")
	}
	if c.Name != CohortRosimere {
		t.Errorf("Assign picked %q, want %q", c.Name, CohortRosimere)
	}

	if _, ok := s.Assign(model.Transaction{Salesperson: "CARLOS"}); ok {
		t.Error("expected no assignment for an unmatched transaction")
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `payment_allow_list:
  - PIX
cohorts:
  - name: Equipe Norte
    salesperson: ["MARIA"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Overridden sections replaced.
	if len(s.PaymentAllowList) != 1 || s.PaymentAllowList[0] != "PIX" {
		t.Errorf("allow list = %v, want [PIX]", s.PaymentAllowList)
	}
	if len(s.Cohorts) != 1 || s.Cohorts[0].Name != "Equipe Norte" {
		t.Errorf("cohorts = %v, want single Equipe Norte", s.CohortNames())
	}

	// Untouched sections keep defaults (boleto rule still compiled).
	if label, _ := s.CanonicalPayment("Boleto"); label != "Bank Slip" {
		t.Errorf("default payment rules lost on override: got %q", label)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if len(s.Cohorts) != 2 {
		t.Errorf("expected 2 default cohorts, got %d", len(s.Cohorts))
	}
}

func TestLoadBadPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `payment_rules:
  - pattern: "("
    label: Broken
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid regex pattern")
	}
}
