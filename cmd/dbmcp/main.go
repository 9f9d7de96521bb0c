// dbmcp serves the row store's operations as MCP tools over stdio. The API
// process (or any MCP client) spawns it as a subprocess; credentials arrive
// through the environment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"college_pathfinder/config"
	"college_pathfinder/db"
	"college_pathfinder/logger"
	"college_pathfinder/models"
)

type toolEntry struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

// registry maps tool names to their typed handlers. It is populated once at
// startup; the call_tool meta-tool dispatches through it by lookup.
var (
	registry  = map[string]toolEntry{}
	toolOrder []string
)

func register(tool mcp.Tool, handler server.ToolHandlerFunc) {
	registry[tool.Name] = toolEntry{tool: tool, handler: handler}
	toolOrder = append(toolOrder, tool.Name)
}

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	if err := db.Init(cfg); err != nil {
		logger.Error("Row store initialization failed", "error", err)
		os.Exit(1)
	}

	registerRowTools()
	registerMetaTools()

	s := server.NewMCPServer(
		"college-pathfinder-db",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	for _, name := range toolOrder {
		entry := registry[name]
		s.AddTool(entry.tool, entry.handler)
	}

	if err := server.ServeStdio(s); err != nil {
		logger.Error("Tool server stopped", "error", err)
		os.Exit(1)
	}
}

func registerRowTools() {
	register(
		mcp.NewTool("select",
			mcp.WithDescription("Select all rows from a table."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			rows, err := db.Store.Select(table)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(rows)
		},
	)

	register(
		mcp.NewTool("select_where",
			mcp.WithDescription("Select rows from a table matching equality conditions."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithObject("conditions", mcp.Required(), mcp.Description("Column to value equality filters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			rows, err := db.Store.SelectWhere(table, objectArg(req, "conditions"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(rows)
		},
	)

	register(
		mcp.NewTool("num_rows",
			mcp.WithDescription("Count rows in a table, optionally filtered by equality conditions."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithObject("conditions", mcp.Description("Column to value equality filters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			count, err := db.Store.NumRows(table, objectArg(req, "conditions"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string]any{"count": count})
		},
	)

	register(
		mcp.NewTool("insert",
			mcp.WithDescription("Insert one or more rows into a table."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithArray("rows", mcp.Required(), mcp.Description("Rows to insert")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			inserted, err := db.Store.Insert(table, req.GetArguments()["rows"])
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(inserted)
		},
	)

	register(
		mcp.NewTool("update",
			mcp.WithDescription("Update rows matching equality conditions."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithObject("row", mcp.Required(), mcp.Description("Column to new value assignments")),
			mcp.WithObject("conditions", mcp.Required(), mcp.Description("Column to value equality filters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			updated, err := db.Store.Update(table, objectArg(req, "row"), objectArg(req, "conditions"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(updated)
		},
	)

	register(
		mcp.NewTool("delete",
			mcp.WithDescription("Delete rows matching equality conditions."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithObject("conditions", mcp.Required(), mcp.Description("Column to value equality filters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := db.Store.Delete(table, objectArg(req, "conditions")); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string]any{"deleted": true})
		},
	)

	register(
		mcp.NewTool("upsert",
			mcp.WithDescription("Insert rows, merging with existing rows on conflict."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithArray("rows", mcp.Required(), mcp.Description("Rows to upsert")),
			mcp.WithString("on_conflict", mcp.Description("Comma-separated conflict key columns")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			upserted, err := db.Store.Upsert(table, req.GetArguments()["rows"], req.GetString("on_conflict", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(upserted)
		},
	)

	register(
		mcp.NewTool("check_value_exists",
			mcp.WithDescription("Check whether any row holds the given value in a column."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithString("column", mcp.Required(), mcp.Description("Column name")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Value to look for")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			column, err := req.RequireString("column")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			exists, err := db.Store.CheckValueExists(table, column, req.GetArguments()["value"])
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string]any{"exists": exists})
		},
	)

	register(
		mcp.NewTool("get_column_value",
			mcp.WithDescription("Fetch a single column value from the first row matching the conditions."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
			mcp.WithString("column", mcp.Required(), mcp.Description("Column name")),
			mcp.WithObject("conditions", mcp.Required(), mcp.Description("Column to value equality filters")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			column, err := req.RequireString("column")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			value, err := db.Store.GetColumnValue(table, column, objectArg(req, "conditions"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(map[string]any{"value": value})
		},
	)

	register(
		mcp.NewTool("get_table_columns",
			mcp.WithDescription("List the column names of a table, sampled from its first row."),
			mcp.WithString("table", mcp.Required(), mcp.Description("Table name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			table, err := req.RequireString("table")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			columns, err := db.Store.GetTableColumns(table)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(columns)
		},
	)

	register(
		mcp.NewTool("get_user_programs",
			mcp.WithDescription("List the programs offered by a user's saved colleges."),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User ID")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			userID, err := req.RequireString("user_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			programs, err := db.Store.ProgramsForUser(userID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(programs)
		},
	)
}

func registerMetaTools() {
	register(
		mcp.NewTool("list_tools",
			mcp.WithDescription("Describe every registered tool with its argument schema."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			catalog := make([]map[string]any, 0, len(toolOrder))
			for _, name := range toolOrder {
				entry := registry[name]
				catalog = append(catalog, map[string]any{
					"name":         entry.tool.Name,
					"description":  entry.tool.Description,
					"input_schema": entry.tool.InputSchema,
				})
			}
			return jsonResult(catalog)
		},
	)

	register(
		mcp.NewTool("call_tool",
			mcp.WithDescription("Invoke a registered tool by name. Failures come back as a payload with success=false instead of a protocol error."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Tool name")),
			mcp.WithObject("arguments", mcp.Description("Arguments for the target tool")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			entry, ok := registry[name]
			if !ok || name == "call_tool" {
				return jsonResult(map[string]any{
					"success":   false,
					"error":     fmt.Sprintf("unknown tool %q", name),
					"tool_name": name,
				})
			}

			inner := mcp.CallToolRequest{}
			inner.Params.Name = name
			inner.Params.Arguments = objectArg(req, "arguments")

			result, err := entry.handler(ctx, inner)
			if err != nil {
				return jsonResult(map[string]any{
					"success":   false,
					"error":     err.Error(),
					"tool_name": name,
				})
			}
			if result.IsError {
				return jsonResult(map[string]any{
					"success":   false,
					"error":     textContent(result),
					"tool_name": name,
				})
			}
			return jsonResult(map[string]any{
				"success":   true,
				"result":    textContent(result),
				"tool_name": name,
			})
		},
	)
}

func objectArg(req mcp.CallToolRequest, key string) models.Row {
	if m, ok := req.GetArguments()[key].(map[string]any); ok {
		return m
	}
	return models.Row{}
}

func textContent(result *mcp.CallToolResult) string {
	for _, item := range result.Content {
		if text, ok := mcp.AsTextContent(item); ok {
			return text.Text
		}
	}
	return ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
