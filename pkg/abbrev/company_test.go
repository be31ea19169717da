package abbrev

import (
	"testing"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestAbbreviateCompanyName(t *testing.T) {
	a := Default()

	tests := []struct {
		name    string
		locale  string
		propose bool
		want    string
	}{
		{"Grupo de Industrias Unidas S.A.", "es", true, "Grupo Industrias Unidas (GIU)"},
		{"Bank of the West Holdings", "en", true, "Bank West Holdings (BWH)"},
		{"Bank of the West Holdings", "en", false, "Bank West Holdings"},
		{"Procter & Gamble Company", "en", true, "Procter Gamble"},
		{"International Business Machines Corporation", "en", true, "International Business Machines (IBM)"},
		{"Hewlett-Packard Company, Inc.", "en", true, "Hewlett Packard Company (HPC)"},
		{"NASA Division", "en", true, "NASA Division"},
		{"Acme Widgets", "en", true, "Acme Widgets"},
		{"Acme Inc.", "en", true, "Acme"},
		{"Acme, Ltd", "en", true, "Acme"},
		{"Zinc", "en", true, "Zinc"},
		{"International Business Machines (IBM)", "en", true, "International Business Machines (IBM)"},
		{"International Business Machines Corporation", "xx", true, "International Business Machines Corporation (IBMC)"},
		{"Bayerische Motoren Werke AG", "xx", true, "Bayerische Motoren Werke AG"},
		{"Bayerische Motoren Werke AG", "de", true, "Bayerische Motoren Werke (BMW)"},
		{"Banco de la Nacion Argentina", "es", true, "Banco Nacion Argentina (BNA)"},
		{"Banco de la Nacion Argentina", "xx", true, "Banco de la Nacion Argentina (BDLNA)"},
		{"Acme Widgets (XYZ)", "en", true, "Acme Widgets XYZ"},
		{"NASA Space Flight Center", "en", true, "NASA Space Flight Center"},
		{"Rock_Paper_Scissors", "en", true, "Rock Paper Scissors (RPS)"},
		{"Smith & Sons & Daughters", "en", true, "Smith Sons Daughters (SSD)"},
		{"Mercedes-Benz Group", "en", true, "Mercedes Benz Group (MBG)"},
		{"Fiat S.p.A.", "it", true, "Fiat"},
		{"Natura Cosméticos Ltda", "pt", true, "Natura Cosme\u0301ticos"},
		{"ООО Ромашка", "ru", true, "ООО Ромашка"},
		{"Ромашка ООО", "ru", true, "Ромашка"},
		{"トヨタ自動車株式会社", "ja", true, "トヨタ自動車"},
		{"阿里巴巴集团", "zh", true, "阿里巴巴"},
		{"삼성전자 주식회사", "ko", true, norm.NFD.String("삼성전자")},
		{"אל על חברה בעמ", "he", true, "אל על חברה (אעח)"},
		{"", "en", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.AbbreviateCompanyName(tt.name, tt.locale, tt.propose))
		})
	}
}

func TestAbbreviateCompanyName_OutputIsDecomposed(t *testing.T) {
	a := Default()

	assert.Equal(t, "Socie\u0301te\u0301 Ge\u0301ne\u0301rale", a.AbbreviateCompanyName("Société Générale S.A.", "fr", true))
	assert.Equal(t, "E\u0301lectricite\u0301 France (EDF)", a.AbbreviateCompanyName("Électricité de France (EDF)", "fr", true))
}

func TestAbbreviateCompanyName_LocaleAwareInitials(t *testing.T) {
	a := Default()

	assert.Equal(t, "istanbul ilac\u0327 sanayi (İİS)", a.AbbreviateCompanyName("istanbul ilaç sanayi", "tr", true))
	assert.Equal(t, "istanbul ilac\u0327 sanayi (IIS)", a.AbbreviateCompanyName("istanbul ilaç sanayi", "xx", true))
}

func TestAbbreviateCompanyName_UnknownLocaleHasEmptyTables(t *testing.T) {
	a := Default()

	// English suffixes and noise words do not apply to unknown locales.
	assert.Equal(t, "Bank of the West Inc (BOTWI)", a.AbbreviateCompanyName("Bank of the West Inc", "xx", true))
	assert.Equal(t, "Bank of the West (BW)", a.AbbreviateCompanyName("Bank of the West (BW)", "", true))
	assert.Equal(t, "Bank West", a.AbbreviateCompanyName("Bank of the West Inc", "en", true))
}

func TestAbbreviateCompanyName_LocaleIsExactKey(t *testing.T) {
	a := Default()

	assert.Equal(t, "Bayerische Motoren Werke (BMW)", a.AbbreviateCompanyName("Bayerische Motoren Werke AG", "de", true))
	for _, locale := range []string{"de-AT", "DE", "de_DE"} {
		assert.Equal(t, "Bayerische Motoren Werke AG", a.AbbreviateCompanyName("Bayerische Motoren Werke AG", locale, true), "locale %q", locale)
		assert.Empty(t, a.ExplainCompanyName("Bayerische Motoren Werke AG", locale, true).Locale, "locale %q", locale)
	}
}

func TestAbbreviateCompanyName_Idempotent(t *testing.T) {
	a := Default()

	tests := []struct{ name, locale string }{
		{"Grupo de Industrias Unidas S.A.", "es"},
		{"Bank of the West Holdings", "en"},
		{"Procter & Gamble Company", "en"},
		{"Électricité de France (EDF)", "fr"},
		{"istanbul ilaç sanayi", "tr"},
		{"Bayerische Motoren Werke AG", "xx"},
	}
	for _, tt := range tests {
		once := a.AbbreviateCompanyName(tt.name, tt.locale, true)
		assert.Equal(t, once, a.AbbreviateCompanyName(once, tt.locale, true), "input %q", tt.name)
	}
}

func TestAbbreviateCompanyName_OneSuffixOnly(t *testing.T) {
	a := Default()

	// Table order decides: "ltd" comes before "company" and only one is removed.
	assert.Equal(t, "Acme Trading Company", a.AbbreviateCompanyName("Acme Trading Company Ltd", "en", false))
}

func TestExplainCompanyName(t *testing.T) {
	a := Default()

	tr := a.ExplainCompanyName("Grupo de Industrias Unidas S.A.", "es", true)
	assert.Equal(t, "es", tr.Locale)
	assert.Equal(t, "S A", tr.RemovedSuffix)
	assert.Equal(t, []string{"de"}, tr.RemovedNoise)
	assert.Equal(t, "GIU", tr.Acronym)
	assert.Equal(t, AcronymSynthesized, tr.AcronymSource)
	assert.Equal(t, "Grupo Industrias Unidas", tr.Residual)
	assert.Equal(t, "Grupo Industrias Unidas (GIU)", tr.Output)

	tr = a.ExplainCompanyName("Électricité de France (EDF)", "fr", true)
	assert.Equal(t, "fr", tr.Locale)
	assert.Equal(t, "EDF", tr.Acronym)
	assert.Equal(t, AcronymExtracted, tr.AcronymSource)
	assert.Empty(t, tr.RemovedSuffix)

	tr = a.ExplainCompanyName("Acme Widgets", "xx", true)
	assert.Empty(t, tr.Locale)
	assert.Empty(t, tr.Acronym)
	assert.Equal(t, "Acme Widgets", tr.Output)
}

func TestExtractAcronym(t *testing.T) {
	tests := []struct {
		in       string
		residual string
		acronym  string
	}{
		{"International Business Machines (IBM)", "International Business Machines", "IBM"},
		{"Électricité de France (EDF)", "Électricité de France", "EDF"},
		{"  Acme Widgets (AW)  ", "Acme Widgets", "AW"},
		{"Acme Widgets (XYZ)", "Acme Widgets (XYZ)", ""},
		{"Acme (aw)", "Acme (aw)", ""},
		{"Acme (A)", "Acme (A)", ""},
		{"Acme (ABCDEFG)", "Acme (ABCDEFG)", ""},
		{"(IBM)", "(IBM)", ""},
		{"Acme (AW) Holdings", "Acme (AW) Holdings", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ExtractAcronym(tt.in)
			assert.Equal(t, tt.residual, got.Residual)
			assert.Equal(t, tt.acronym, got.Acronym)
		})
	}
}

func TestNormalizePunctuation(t *testing.T) {
	tests := []struct{ in, want string }{
		{"S.A.", "S A"},
		{"Foo, Bar; Baz!", "Foo Bar Baz"},
		{"Rock_Paper", "Rock Paper"},
		{"A & B - C", "A & B - C"},
		{"Général", "Général"},
		{"  ..  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePunctuation(tt.in), "input %q", tt.in)
	}
}

func TestCustomCompanyTables(t *testing.T) {
	store, err := rules.NewStore([]*rules.Manifest{{
		Locale: "nl",
		Company: &rules.CompanyRules{
			LegalSuffixes: []string{"B.V.", "N.V."},
			NoiseWords:    []string{"van", "de"},
		},
	}})
	require.NoError(t, err)
	a, err := New(store)
	require.NoError(t, err)

	assert.Equal(t, "Koninklijke Olie KO", a.AbbreviateCompanyName("Koninklijke Olie (KO) N.V.", "nl", true))
	assert.Equal(t, "Bank Nederland Groep (BNG)", a.AbbreviateCompanyName("Bank van de Nederland Groep B.V.", "nl", true))
}
