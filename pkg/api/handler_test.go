package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/touchstone-abbrev/pkg/abbrev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T) *abbrev.Registry {
	t.Helper()
	reg := abbrev.NewRegistry("")
	require.NoError(t, reg.Load())
	return reg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(newTestRegistry(t), discardLogger(), nil))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, rawURL string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHandleTitle(t *testing.T) {
	srv := newTestServer(t)

	var got titleResponse
	resp := getJSON(t, srv.URL+"/v1/title?text="+url.QueryEscape("Chief Financial Officer"), &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CFO", got.Abbreviation)
	assert.Equal(t, "en", got.Locale)
	assert.Equal(t, "en", got.ResolvedLocale)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp = getJSON(t, srv.URL+"/v1/title?locale=fr&text="+url.QueryEscape("Directeur Général"), &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DG", got.Abbreviation)
	assert.Equal(t, "fr", got.ResolvedLocale)

	resp = getJSON(t, srv.URL+"/v1/title?locale=xx&text="+url.QueryEscape("Senior Vice President of Operations"), &got)
	assert.Equal(t, "Sr SVP Operations", got.Abbreviation)
	assert.Equal(t, "en", got.ResolvedLocale)
}

func TestHandleTitle_RegionalTag(t *testing.T) {
	srv := newTestServer(t)
	text := url.QueryEscape("Directeur Général")

	var got titleResponse
	getJSON(t, srv.URL+"/v1/title?locale=fr-CA&text="+text, &got)
	assert.Equal(t, "Directeur Général", got.Abbreviation)
	assert.Equal(t, "fr-CA", got.Locale)
	assert.Equal(t, "en", got.ResolvedLocale)

	getJSON(t, srv.URL+"/v1/title?base_language=true&locale=fr-CA&text="+text, &got)
	assert.Equal(t, "DG", got.Abbreviation)
	assert.Equal(t, "fr-CA", got.Locale)
	assert.Equal(t, "fr", got.ResolvedLocale)

	var bad map[string]string
	resp := getJSON(t, srv.URL+"/v1/title?base_language=perhaps&text="+text, &bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid base_language flag", bad["error"])
}

func TestHandleTitle_MissingText(t *testing.T) {
	srv := newTestServer(t)

	var got map[string]string
	resp := getJSON(t, srv.URL+"/v1/title", &got)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing text", got["error"])
}

func TestHandleCompany(t *testing.T) {
	srv := newTestServer(t)

	var got companyResponse
	resp := getJSON(t, srv.URL+"/v1/company?locale=es&name="+url.QueryEscape("Grupo de Industrias Unidas S.A."), &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Grupo Industrias Unidas (GIU)", got.Abbreviation)
	assert.Nil(t, got.Trace)

	getJSON(t, srv.URL+"/v1/company?acronym=false&name="+url.QueryEscape("Bank of the West Holdings"), &got)
	assert.Equal(t, "Bank West Holdings", got.Abbreviation)

	got = companyResponse{}
	getJSON(t, srv.URL+"/v1/company?verbose=1&locale=es&name="+url.QueryEscape("Grupo de Industrias Unidas S.A."), &got)
	require.NotNil(t, got.Trace)
	assert.Equal(t, "S A", got.Trace.RemovedSuffix)
	assert.Equal(t, abbrev.AcronymSynthesized, got.Trace.AcronymSource)
}

func TestHandleCompany_BadInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query string
		want  string
	}{
		{"", "missing name"},
		{"name=Acme&acronym=maybe", "invalid acronym flag"},
		{"name=Acme&verbose=loud", "invalid verbose flag"},
		{"name=Acme&base_language=2", "invalid base_language flag"},
	}
	for _, tt := range tests {
		var got map[string]string
		resp := getJSON(t, srv.URL+"/v1/company?"+tt.query, &got)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, tt.query)
		assert.Equal(t, tt.want, got["error"], tt.query)
	}
}

func TestHandleCompany_RegionalTag(t *testing.T) {
	srv := newTestServer(t)
	name := url.QueryEscape("Bayerische Motoren Werke AG")

	var got companyResponse
	getJSON(t, srv.URL+"/v1/company?locale=de-AT&name="+name, &got)
	assert.Equal(t, "Bayerische Motoren Werke AG", got.Abbreviation)
	assert.Equal(t, "de-AT", got.Locale)

	getJSON(t, srv.URL+"/v1/company?base_language=1&locale=de-AT&name="+name, &got)
	assert.Equal(t, "Bayerische Motoren Werke (BMW)", got.Abbreviation)
}

func TestHandleBatch_BaseLanguage(t *testing.T) {
	srv := newTestServer(t)

	body := `{"titles":["Directeur Général"],"companies":["Bayerische Motoren Werke AG"],"locale":"fr-CA","base_language":true}`
	resp, err := http.Post(srv.URL+"/v1/abbreviate/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got batchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "DG", got.Titles[0].Abbreviation)
	assert.Equal(t, "fr", got.Titles[0].ResolvedLocale)
	// fr tables have no "AG" suffix; the existing all-caps token blocks synthesis.
	assert.Equal(t, "Bayerische Motoren Werke AG", got.Companies[0].Abbreviation)
}

func TestHandleBatch(t *testing.T) {
	srv := newTestServer(t)

	body := `{"titles":["Chief Technology Officer","Director of the Board"],"companies":["Procter & Gamble Company","Bank of the West Holdings"]}`
	resp, err := http.Post(srv.URL+"/v1/abbreviate/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got batchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Titles, 2)
	require.Len(t, got.Companies, 2)
	assert.Equal(t, "CTO", got.Titles[0].Abbreviation)
	assert.Equal(t, "Dir Board", got.Titles[1].Abbreviation)
	assert.Equal(t, "Procter Gamble", got.Companies[0].Abbreviation)
	assert.Equal(t, "Bank West Holdings (BWH)", got.Companies[1].Abbreviation)
}

func TestHandleBatch_ProposeAcronymFalse(t *testing.T) {
	srv := newTestServer(t)

	body := `{"companies":["Bank of the West Holdings"],"propose_acronym":false}`
	resp, err := http.Post(srv.URL+"/v1/abbreviate/batch", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got batchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Bank West Holdings", got.Companies[0].Abbreviation)
	assert.Empty(t, got.Titles)
}

func TestHandleBatch_Errors(t *testing.T) {
	router := NewRouter(newTestRegistry(t), discardLogger(), nil)

	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = "Vice President"
	}
	tooManyBody, _ := json.Marshal(map[string]any{"titles": tooMany})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "{", "invalid JSON body"},
		{"empty", "{}", "titles and companies are both empty"},
		{"too many", string(tooManyBody), "too many items (max 100, got 101)"},
		{"too large", `{"titles":["` + strings.Repeat("a", 70*1024) + `"]}`, "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/abbreviate/batch", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var got map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.want, got["error"])
		})
	}
}

func TestHandleBatch_GetNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp := getJSON(t, srv.URL+"/v1/abbreviate/batch", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleListLocales(t *testing.T) {
	srv := newTestServer(t)

	var got localesResponse
	resp := getJSON(t, srv.URL+"/v1/locales", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "en", got.TitleFallback)
	require.Len(t, got.Locales, 12)
	assert.Equal(t, "ar", got.Locales[0].Locale)
	assert.Equal(t, []string{"default-ar"}, got.Locales[0].Packs)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	var got healthResponse
	resp := getJSON(t, srv.URL+"/v1/health", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, healthResponse{Status: "ok", Locales: 12, Packs: 12}, got)
}

func TestReloadIsVisibleToHandlers(t *testing.T) {
	dir := t.TempDir()
	reg := abbrev.NewRegistry(dir)
	require.NoError(t, reg.Load())
	srv := httptest.NewServer(NewRouter(reg, discardLogger(), nil))
	defer srv.Close()

	var got titleResponse
	getJSON(t, srv.URL+"/v1/title?text=Senior+Developer", &got)
	assert.Equal(t, "Sr Developer", got.Abbreviation)

	pack := "id: dev-en\nlocale: en\ntitle:\n  medium:\n    - pattern: '\\bDeveloper\\b'\n      replacement: Dev\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev.yaml"), []byte(pack), 0o644))
	require.NoError(t, reg.Reload())

	getJSON(t, srv.URL+"/v1/title?text=Senior+Developer", &got)
	assert.Equal(t, "Sr Dev", got.Abbreviation)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/abbreviate/batch", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
