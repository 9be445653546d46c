package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "promemoria"
	serverVersion = "1.0.0"
)

// Server exposes the store's command surface as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	store     *Store
	loc       *time.Location
}

// NewServer creates a new MCP server backed by the given store. Dates passed
// to add_reminder are interpreted in loc.
func NewServer(store *Store, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		store: store,
		loc:   loc,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	userID := mcp.WithNumber("user_id", mcp.Required(), mcp.Description("Chat user identifier"))

	s.mcpServer.AddTool(
		mcp.NewTool("list_todos",
			mcp.WithDescription("List the user's to-do items in insertion order"),
			userID,
		),
		s.handleListTodos,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_remembers",
			mcp.WithDescription("List the user's things to remember in insertion order"),
			userID,
		),
		s.handleListRemembers,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List every scheduled reminder of the user with its notification stage"),
			userID,
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Schedule a reminder. The category is inferred from the text when omitted."),
			userID,
			mcp.WithString("text", mcp.Required(), mcp.Description("What to remind")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Date: DD/MM/YYYY, DD-MM-YYYY, DD.MM.YYYY or YYYY-MM-DD")),
			mcp.WithString("time", mcp.Required(), mcp.Description("Time: HH:MM, HH.MM or HH:MM:SS")),
			mcp.WithString("category", mcp.Description("task or remember (default: classified from text)")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("acknowledge_reminders",
			mcp.WithDescription("Acknowledge all pending reminders of the user, stopping further notifications"),
			userID,
		),
		s.handleAcknowledge,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("clear_user",
			mcp.WithDescription("Delete every reminder and list item of the user"),
			userID,
		),
		s.handleClearUser,
	)
}

func requireUserID(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	idFloat := req.GetFloat("user_id", -1)
	if idFloat < 0 {
		return 0, mcp.NewToolResultError("user_id is required and must be a positive number")
	}
	return int64(idFloat), nil
}

func jsonResult(v any, empty string, n int) *mcp.CallToolResult {
	if n == 0 {
		return mcp.NewToolResultText(empty)
	}
	output, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(output))
}

func (s *Server) handleListTodos(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResult := requireUserID(req)
	if errResult != nil {
		return errResult, nil
	}
	items := s.store.Tasks(userID)
	return jsonResult(items, "No to-do items.", len(items)), nil
}

func (s *Server) handleListRemembers(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResult := requireUserID(req)
	if errResult != nil {
		return errResult, nil
	}
	items := s.store.Remembers(userID)
	return jsonResult(items, "Nothing to remember.", len(items)), nil
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResult := requireUserID(req)
	if errResult != nil {
		return errResult, nil
	}
	reminders := s.store.ListByUser(userID)
	return jsonResult(reminders, "No reminders found.", len(reminders)), nil
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResult := requireUserID(req)
	if errResult != nil {
		return errResult, nil
	}

	text := req.GetString("text", "")
	dateStr := req.GetString("date", "")
	timeStr := req.GetString("time", "")
	category := Category(req.GetString("category", ""))

	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	if category == "" {
		category = Classify(text)
	}
	if !category.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid category %q (use task or remember)", category)), nil
	}

	dueAt, err := ParseDateTime(dateStr, timeStr, s.loc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date/time %q %q: %v", dateStr, timeStr, err)), nil
	}

	id, err := s.store.CreateReminder(ctx, userID, text, category, dueAt)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	added, err := s.store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read reminder: %v", err)), nil
	}
	output, _ := json.MarshalIndent(added, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleAcknowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResult := requireUserID(req)
	if errResult != nil {
		return errResult, nil
	}

	n, err := s.store.MarkAcknowledged(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to acknowledge reminders: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d reminder(s) acknowledged.", n)), nil
}

func (s *Server) handleClearUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, errResult := requireUserID(req)
	if errResult != nil {
		return errResult, nil
	}

	if err := s.store.ClearUser(ctx, userID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to clear user: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("All data for user %d deleted.", userID)), nil
}
