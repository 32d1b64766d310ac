package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/schemagraph/internal/diagram"
	"github.com/mvp-joe/schemagraph/internal/scanner"
	"github.com/mvp-joe/schemagraph/internal/schema"
	"github.com/mvp-joe/schemagraph/internal/source"
)

// Scanner runs a scan over a source.
type Scanner interface {
	Scan(ctx context.Context, src source.Source) (*scanner.Result, error)
}

// Opener resolves the path argument of a tool call to a source.
type Opener func(ctx context.Context, path string) (source.Source, error)

// OpenLocal opens path as a local directory.
func OpenLocal(ctx context.Context, path string) (source.Source, error) {
	return source.NewLocal(path)
}

// ExtractResponse is the JSON result of schema_extract.
type ExtractResponse struct {
	Status    scanner.Status `json:"status"`
	Models    []schema.Model `json:"models"`
	Selected  int            `json:"selected"`
	Scanned   int            `json:"scanned"`
	Truncated bool           `json:"truncated"`
}

// AddSchemaExtractTool registers the schema_extract tool with an MCP server.
func AddSchemaExtractTool(s *server.MCPServer, sc Scanner, open Opener) {
	tool := mcp.NewTool(
		"schema_extract",
		mcp.WithDescription("Extract Mongoose models from a repository. Returns every model with its fields, types, required flags, defaults, enum values and refs to other models."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Repository to scan: a local directory, or owner/repo on GitHub when the server allows it")),
		mcp.WithString("format",
			mcp.Description("Result format: 'json' (default) for models, or 'dot' for a Graphviz relationship diagram")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSchemaExtractHandler(sc, open))
}

func createSchemaExtractHandler(sc Scanner, open Opener) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		format, err := parseStringArg(argsMap, "format", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "dot" {
			return mcp.NewToolResultError(fmt.Sprintf("invalid format: %s (must be 'json' or 'dot')", format)), nil
		}

		result, errResult := scan(ctx, argsMap, sc, open)
		if errResult != nil {
			return errResult, nil
		}

		if format == "dot" {
			var buf bytes.Buffer
			if err := diagram.Build(result.Models).DOT(&buf); err != nil {
				return nil, fmt.Errorf("failed to render diagram: %w", err)
			}
			return mcp.NewToolResultText(buf.String()), nil
		}

		return marshalToolResponse(ExtractResponse{
			Status:    result.Status,
			Models:    result.Models,
			Selected:  result.Selected,
			Scanned:   result.Scanned,
			Truncated: result.Truncated,
		})
	}
}

// AddSchemaDiagramTool registers the schema_diagram tool with an MCP server.
func AddSchemaDiagramTool(s *server.MCPServer, sc Scanner, open Opener) {
	tool := mcp.NewTool(
		"schema_diagram",
		mcp.WithDescription("Build the relationship diagram of a repository's Mongoose models. Returns nodes (models), edges (ref fields pointing at other models) and refs to models that were not found."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Repository to scan: a local directory, or owner/repo on GitHub when the server allows it")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSchemaDiagramHandler(sc, open))
}

func createSchemaDiagramHandler(sc Scanner, open Opener) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		result, errResult := scan(ctx, argsMap, sc, open)
		if errResult != nil {
			return errResult, nil
		}

		return marshalToolResponse(diagram.Build(result.Models))
	}
}

// scan opens the path argument and scans it. Failures are reported as tool
// errors so the client sees them.
func scan(ctx context.Context, argsMap map[string]interface{}, sc Scanner, open Opener) (*scanner.Result, *mcp.CallToolResult) {
	path, err := parseStringArg(argsMap, "path", true)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}

	src, err := open(ctx, path)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to open %s: %v", path, err))
	}

	result, err := sc.Scan(ctx, src)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to scan %s: %v", path, err))
	}
	return result, nil
}
