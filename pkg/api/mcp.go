package api

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/touchstone-abbrev/pkg/abbrev"
	"github.com/hazyhaar/touchstone-abbrev/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer returns an MCP server exposing the abbreviation tools.
func NewMCPServer(reg *abbrev.Registry, version string, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("touchstone-abbrev", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, reg, logger)
	return srv
}

// RegisterMCPTools registers the three abbreviation MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, reg *abbrev.Registry, logger *slog.Logger) {
	registerAbbreviateTitle(srv, reg, logger)
	registerAbbreviateCompany(srv, reg, logger)
	registerListLocales(srv, reg)
}

func registerAbbreviateTitle(srv *server.MCPServer, reg *abbrev.Registry, logger *slog.Logger) {
	tool := mcp.NewTool("abbreviate_title",
		mcp.WithDescription("Shorten a job title with locale-specific rules (Chief Financial Officer -> CFO, Directeur Général -> DG). Unknown locales use English rules."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The job title to abbreviate")),
		mcp.WithString("locale", mcp.Description("Locale tag (en, fr, es, it, pt, de, ru, zh, ja, ko, he, ar). Default en")),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "title")(titleEndpoint(reg)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		text, ok := args["text"].(string)
		if !ok {
			return nil, fmt.Errorf("text is required")
		}
		locale, _ := args["locale"].(string)
		return &kit.MCPDecodeResult{Request: &titleReq{Text: text, Locale: locale}}, nil
	})
}

func registerAbbreviateCompany(srv *server.MCPServer, reg *abbrev.Registry, logger *slog.Logger) {
	tool := mcp.NewTool("abbreviate_company",
		mcp.WithDescription("Shorten a legal company name: strip the legal-form suffix and noise words, then keep or synthesize an acronym."),
		mcp.WithString("name", mcp.Required(), mcp.Description("The company name to abbreviate")),
		mcp.WithString("locale", mcp.Description("Locale tag selecting suffix and noise tables. Default en; unknown locales use empty tables")),
		mcp.WithBoolean("propose_acronym", mcp.Description("Synthesize an acronym for names of three or more words (default true)")),
		mcp.WithBoolean("verbose", mcp.Description("Include the per-stage trace")),
	)

	kit.RegisterMCPTool(srv, tool, kit.Logging(logger, "company")(companyEndpoint(reg)), func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		name, ok := args["name"].(string)
		if !ok {
			return nil, fmt.Errorf("name is required")
		}
		locale, _ := args["locale"].(string)
		propose := true
		if v, ok := args["propose_acronym"].(bool); ok {
			propose = v
		}
		verbose, _ := args["verbose"].(bool)
		return &kit.MCPDecodeResult{Request: &companyReq{
			Name:           name,
			Locale:         locale,
			ProposeAcronym: propose,
			Verbose:        verbose,
		}}, nil
	})
}

func registerListLocales(srv *server.MCPServer, reg *abbrev.Registry) {
	tool := mcp.NewTool("list_locales",
		mcp.WithDescription("List the loaded locales with their rule packs and table sizes."),
	)

	kit.RegisterMCPTool(srv, tool, listLocalesEndpoint(reg), func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
