package reminder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestServer_AddAndList(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	srv := NewServer(store, time.UTC)

	res, err := srv.handleAddReminder(ctx, callTool("add_reminder", map[string]any{
		"user_id": float64(11),
		"text":    "devo comprare il latte",
		"date":    "25/12/2024",
		"time":    "14:30",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var added Reminder
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &added))
	assert.Equal(t, CategoryTask, added.Category)
	assert.True(t, time.Date(2024, time.December, 25, 14, 30, 0, 0, time.UTC).Equal(added.DueAt))

	res, err = srv.handleListTodos(ctx, callTool("list_todos", map[string]any{"user_id": float64(11)}))
	require.NoError(t, err)
	var items []Item
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "devo comprare il latte", items[0].Text)

	res, err = srv.handleListRemembers(ctx, callTool("list_remembers", map[string]any{"user_id": float64(11)}))
	require.NoError(t, err)
	assert.Equal(t, "Nothing to remember.", resultText(t, res))
}

func TestServer_AddReminder_Errors(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	srv := NewServer(store, time.UTC)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing user", map[string]any{"text": "x", "date": "25/12/2024", "time": "14:30"}},
		{"missing text", map[string]any{"user_id": float64(1), "date": "25/12/2024", "time": "14:30"}},
		{"bad date", map[string]any{"user_id": float64(1), "text": "x", "date": "abc", "time": "14:30"}},
		{"bad category", map[string]any{"user_id": float64(1), "text": "x", "date": "25/12/2024", "time": "14:30", "category": "todo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleAddReminder(ctx, callTool("add_reminder", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
	assert.Empty(t, store.ListByUser(1))
}

func TestServer_AcknowledgeAndClear(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	srv := NewServer(store, time.UTC)

	_, err := store.CreateReminder(ctx, 4, "compleanno", CategoryRemember, time.Now())
	require.NoError(t, err)

	res, err := srv.handleAcknowledge(ctx, callTool("acknowledge_reminders", map[string]any{"user_id": float64(4)}))
	require.NoError(t, err)
	assert.Equal(t, "1 reminder(s) acknowledged.", resultText(t, res))

	res, err = srv.handleListReminders(ctx, callTool("list_reminders", map[string]any{"user_id": float64(4)}))
	require.NoError(t, err)
	var reminders []Reminder
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &reminders))
	require.Len(t, reminders, 1)
	assert.True(t, reminders[0].Acknowledged)

	res, err = srv.handleClearUser(ctx, callTool("clear_user", map[string]any{"user_id": float64(4)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Empty(t, store.ListByUser(4))
}
