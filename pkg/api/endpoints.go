package api

import (
	"context"
	"fmt"

	"github.com/hazyhaar/touchstone-abbrev/pkg/abbrev"
	"github.com/hazyhaar/touchstone-abbrev/pkg/kit"
	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
)

// Shared request/response types used by both HTTP and MCP transports.

// maxBatchItems caps titles plus companies in one batch call.
const maxBatchItems = 100

type titleReq struct {
	Text         string
	Locale       string
	BaseLanguage bool
}

type titleResponse struct {
	Input          string `json:"input"`
	Locale         string `json:"locale"`
	ResolvedLocale string `json:"resolved_locale"`
	Abbreviation   string `json:"abbreviation"`
}

type companyReq struct {
	Name           string
	Locale         string
	BaseLanguage   bool
	ProposeAcronym bool
	Verbose        bool
}

type companyResponse struct {
	Input        string               `json:"input"`
	Locale       string               `json:"locale"`
	Abbreviation string               `json:"abbreviation"`
	Trace        *abbrev.CompanyTrace `json:"trace,omitempty"`
}

type batchReq struct {
	Titles         []string
	Companies      []string
	Locale         string
	BaseLanguage   bool
	ProposeAcronym bool
}

type batchResponse struct {
	Titles    []titleResponse   `json:"titles"`
	Companies []companyResponse `json:"companies"`
}

type localesResponse struct {
	Locales       []rules.LocaleInfo `json:"locales"`
	TitleFallback string             `json:"title_fallback"`
}

func localeOrDefault(locale string) string {
	if locale == "" {
		return rules.DefaultLocale
	}
	return locale
}

// lookupLocale is the table key used for locale. The engine matches keys
// exactly; base maps a regional tag to its language first (fr-CA -> fr).
func lookupLocale(locale string, base bool) string {
	if base {
		return rules.BaseLanguage(locale)
	}
	return locale
}

func abbreviateTitle(a *abbrev.Abbreviator, text, locale string, base bool) titleResponse {
	locale = localeOrDefault(locale)
	key := lookupLocale(locale, base)
	return titleResponse{
		Input:          text,
		Locale:         locale,
		ResolvedLocale: a.ResolveTitleLocale(key),
		Abbreviation:   a.AbbreviateTitle(text, key),
	}
}

func abbreviateCompany(a *abbrev.Abbreviator, req *companyReq) companyResponse {
	locale := localeOrDefault(req.Locale)
	tr := a.ExplainCompanyName(req.Name, lookupLocale(locale, req.BaseLanguage), req.ProposeAcronym)
	resp := companyResponse{
		Input:        req.Name,
		Locale:       locale,
		Abbreviation: tr.Output,
	}
	if req.Verbose {
		resp.Trace = &tr
	}
	return resp
}

// Endpoints backed by the registry. Each call uses the Abbreviator current
// at that moment, so a reload never changes rules mid-request.

func titleEndpoint(reg *abbrev.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*titleReq)
		return abbreviateTitle(reg.Current(), req.Text, req.Locale, req.BaseLanguage), nil
	}
}

func companyEndpoint(reg *abbrev.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*companyReq)
		return abbreviateCompany(reg.Current(), req), nil
	}
}

func batchEndpoint(reg *abbrev.Registry) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*batchReq)
		n := len(req.Titles) + len(req.Companies)
		if n == 0 {
			return nil, fmt.Errorf("titles and companies are both empty")
		}
		if n > maxBatchItems {
			return nil, fmt.Errorf("too many items (max %d, got %d)", maxBatchItems, n)
		}
		a := reg.Current()
		resp := batchResponse{
			Titles:    make([]titleResponse, len(req.Titles)),
			Companies: make([]companyResponse, len(req.Companies)),
		}
		for i, text := range req.Titles {
			resp.Titles[i] = abbreviateTitle(a, text, req.Locale, req.BaseLanguage)
		}
		for i, name := range req.Companies {
			resp.Companies[i] = abbreviateCompany(a, &companyReq{
				Name:           name,
				Locale:         req.Locale,
				BaseLanguage:   req.BaseLanguage,
				ProposeAcronym: req.ProposeAcronym,
			})
		}
		return resp, nil
	}
}

func listLocalesEndpoint(reg *abbrev.Registry) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return localesResponse{
			Locales:       reg.Current().Store().Locales(),
			TitleFallback: rules.DefaultLocale,
		}, nil
	}
}
