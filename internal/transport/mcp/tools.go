package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.srv.AddTool(mcp.Tool{
		Name:        "retrieve_memories",
		Description: "Retrieve stored memories most relevant to a query, the current context, or the active application. Returns both individual insights and consolidated summaries.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Explicit search query; takes priority over context",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Free text describing the current activity",
				},
				"app_name": map[string]interface{}{
					"type":        "string",
					"description": "Active application name, used as a retrieval fallback",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of memories to return (default: 5)",
					"default":     5,
				},
			},
		},
	}, s.retrieveMemories)

	s.srv.AddTool(mcp.Tool{
		Name:        "search_memories",
		Description: "Full-text search over stored insight content and captured context.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (minimum 3 characters)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results (default: 20)",
					"default":     20,
				},
			},
			Required: []string{"query"},
		},
	}, s.searchMemories)

	s.srv.AddTool(mcp.Tool{
		Name:        "memory_stats",
		Description: "Get memory statistics: totals, average relevance and top topics.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.memoryStats)

	s.srv.AddTool(mcp.Tool{
		Name:        "add_journal_entry",
		Description: "Add a journal entry. The entry is stored and also indexed as a memory so it participates in retrieval.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Entry title",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Entry body",
				},
				"mood": map[string]interface{}{
					"type":        "string",
					"description": "Optional mood label",
				},
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional tags",
				},
			},
			Required: []string{"title", "content"},
		},
	}, s.addJournalEntry)

	s.srv.AddTool(mcp.Tool{
		Name:        "journal_entries",
		Description: "List journal entries, newest first, optionally filtered by mood or tag.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of entries (default: 50)",
					"default":     50,
				},
				"offset": map[string]interface{}{
					"type":        "number",
					"description": "Number of entries to skip",
				},
				"mood": map[string]interface{}{
					"type":        "string",
					"description": "Filter by exact mood",
				},
				"tag": map[string]interface{}{
					"type":        "string",
					"description": "Filter by tag substring",
				},
			},
		},
	}, s.journalEntries)
}

func (s *Server) retrieveMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	contextText := request.GetString("context", "")
	appName := request.GetString("app_name", "")
	limit := request.GetInt("limit", 5)

	memories, err := s.system.RetrieveRelevant(ctx, query, contextText, appName, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"count":    len(memories),
		"memories": memories,
	})
}

func (s *Server) searchMemories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", 20)

	insights, err := s.system.SearchMemories(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"count":   len(insights),
		"results": insights,
	})
}

func (s *Server) memoryStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.system.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func (s *Server) addJournalEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}
	mood := request.GetString("mood", "")
	tags := request.GetStringSlice("tags", nil)

	id, err := s.system.AddJournalEntry(ctx, title, content, mood, tags)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add entry failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

func (s *Server) journalEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 50)
	offset := request.GetInt("offset", 0)
	mood := request.GetString("mood", "")
	tag := request.GetString("tag", "")

	entries, err := s.system.JournalEntries(ctx, limit, offset, mood, tag)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list entries failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
