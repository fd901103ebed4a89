package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultid/internal/backfill"
	"github.com/starford/vaultid/internal/editor"
	"github.com/starford/vaultid/internal/index"
	"github.com/starford/vaultid/internal/models"
	"github.com/starford/vaultid/internal/noteservice"
	"github.com/starford/vaultid/internal/scheme"
	"github.com/starford/vaultid/internal/settings"
	"github.com/starford/vaultid/internal/storage"
	"github.com/starford/vaultid/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	testutil.WriteNotes(t, store, map[string]string{
		"a.md":      "---\nnanoid: V1StGXR8_Z5jdHi6B-myT\n---\n# A\n",
		"b.md":      "# B\n",
		"notes.txt": "skip",
	})
	db := testutil.TestDB(t)
	if err := index.Sync(db, store, testutil.Discard()); err != nil {
		t.Fatal(err)
	}

	reg := scheme.Default()
	engine := backfill.NewService(store, db, editor.New(store, db, testutil.Discard()), reg,
		backfill.WithLogger(testutil.Discard()))
	st := settings.NewStore(filepath.Join(vaultDir, ".vaultid.json"), reg)
	if err := st.Save(settings.Settings{IDType: scheme.NanoID, AutoAssignOnCreate: true}); err != nil {
		t.Fatal(err)
	}

	svc := noteservice.NewService(engine, st, nil, testutil.Discard())
	return New(svc, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_schemes":
		result, err = srv.listSchemes(ctx, req)
	case "get_stats":
		result, err = srv.getStats(ctx, req)
	case "assign_id":
		result, err = srv.assignID(ctx, req)
	case "bulk_ids":
		result, err = srv.bulkIDs(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListSchemes(t *testing.T) {
	srv, _ := testServer(t)

	var list []noteservice.SchemeInfo
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_schemes", nil))), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 5 {
		t.Fatalf("schemes = %d, want 5", len(list))
	}
	for _, s := range list {
		if s.Active != (s.Tag == scheme.NanoID) {
			t.Errorf("%s active = %v", s.Tag, s.Active)
		}
	}
}

func TestGetStats(t *testing.T) {
	srv, _ := testServer(t)

	var rep noteservice.StatsReport
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "get_stats", nil))), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Total != 2 || rep.Counts[scheme.NanoID] != 1 || rep.Percent != 50 {
		t.Errorf("stats = %+v", rep)
	}
}

func TestAssignID(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "assign_id", map[string]any{"path": "b.md"})
	if r.IsError {
		t.Fatalf("assign failed: %s", resultText(r))
	}
	var res noteservice.AssignResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if !res.Assigned || res.Scheme != scheme.NanoID {
		t.Errorf("result = %+v", res)
	}
	data, _ := store.Read("b.md")
	if !strings.HasPrefix(string(data), "---\nnanoid: ") {
		t.Errorf("note = %q", data)
	}

	r = callTool(t, srv, "assign_id", map[string]any{"path": "a.md", "force": true})
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if !res.Assigned {
		t.Error("forced assign did not write")
	}
	data, _ = store.Read("a.md")
	if strings.Contains(string(data), "V1StGXR8_Z5jdHi6B-myT") {
		t.Errorf("old id kept: %q", data)
	}
}

func TestAssignID_Errors(t *testing.T) {
	srv, _ := testServer(t)

	if r := callTool(t, srv, "assign_id", map[string]any{}); !r.IsError {
		t.Error("expected error without path")
	}
	if r := callTool(t, srv, "assign_id", map[string]any{"path": "nope.md"}); !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestBulkIDs(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "bulk_ids", map[string]any{"operation": "add", "scheme": "ulid"})
	if r.IsError {
		t.Fatalf("bulk failed: %s", resultText(r))
	}
	var res models.BulkResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.Changed != 2 || res.Scheme != "ulid" || res.Operation != models.OperationAdd {
		t.Errorf("result = %+v", res)
	}

	r = callTool(t, srv, "bulk_ids", map[string]any{"operation": "remove"})
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.Changed != 1 || res.Scheme != scheme.NanoID {
		t.Errorf("remove active = %+v", res)
	}
}

func TestBulkIDs_Errors(t *testing.T) {
	srv, _ := testServer(t)

	for _, args := range []map[string]any{
		{},
		{"operation": "rename"},
		{"operation": "add", "scheme": "snowflake"},
	} {
		if r := callTool(t, srv, "bulk_ids", args); !r.IsError {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestContractResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != contractURI || !strings.Contains(tc.Text, "force: true") {
		t.Errorf("unexpected resource: %+v", contents)
	}
}
