package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/studymatch/internal/matchmaker"
	"github.com/kalambet/studymatch/internal/profile"
	"github.com/kalambet/studymatch/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Directory *profile.Directory
	Matcher   *matchmaker.Service
}

// NewMCPServer creates an MCP server with the matching tools and directory
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"studymatch",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("studymatch finds compatible study partners, groups and resources for a student."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("find_study_partners",
			mcp.WithDescription("Return the students most compatible with the given student, best first."),
			mcp.WithString("student_id", mcp.Description("ID of the student to match"), mcp.Required()),
		),
		mcpFindPartners(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_groups",
			mcp.WithDescription("Recommend study groups whose subject and level fit the student."),
			mcp.WithString("student_id", mcp.Description("ID of the student"), mcp.Required()),
		),
		mcpRecommendGroups(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_resources",
			mcp.WithDescription("Recommend learning resources the student has not used yet."),
			mcp.WithString("student_id", mcp.Description("ID of the student"), mcp.Required()),
		),
		mcpRecommendResources(deps),
	)

	s.AddTool(
		mcp.NewTool("rate_resource",
			mcp.WithDescription("Record a student's 1-5 rating of a resource."),
			mcp.WithString("student_id", mcp.Description("ID of the rating student"), mcp.Required()),
			mcp.WithString("resource_id", mcp.Description("ID of the rated resource"), mcp.Required()),
			mcp.WithNumber("rating", mcp.Description("Rating from 1 to 5"), mcp.Required()),
			mcp.WithString("comments", mcp.Description("Optional free-text comments")),
		),
		mcpRateResource(deps),
	)

	s.AddTool(
		mcp.NewTool("group_availability",
			mcp.WithDescription("List the weekly time windows in which members of a study group are free together."),
			mcp.WithString("group_id", mcp.Description("ID of the study group"), mcp.Required()),
		),
		mcpGroupAvailability(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"studymatch://students",
			"Student Directory",
			mcp.WithResourceDescription("One-line summary of every registered student"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStudents(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"studymatch://groups",
			"Study Groups",
			mcp.WithResourceDescription("All study groups as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceGroups(deps),
	)

	return s
}

func mcpFindPartners(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("student_id")
		if err != nil {
			return mcpError("student_id is required"), nil
		}

		matches, err := deps.Matcher.FindPartners(ctx, id)
		if err != nil {
			return mcpLookupError("matching", id, err), nil
		}
		return mcpJSON(matches), nil
	}
}

func mcpRecommendGroups(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("student_id")
		if err != nil {
			return mcpError("student_id is required"), nil
		}

		recs, err := deps.Matcher.RecommendGroups(ctx, id)
		if err != nil {
			return mcpLookupError("group recommendation", id, err), nil
		}
		return mcpJSON(recs), nil
	}
}

func mcpRecommendResources(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("student_id")
		if err != nil {
			return mcpError("student_id is required"), nil
		}

		recs, err := deps.Matcher.RecommendResources(ctx, id)
		if err != nil {
			return mcpLookupError("resource recommendation", id, err), nil
		}
		return mcpJSON(recs), nil
	}
}

func mcpRateResource(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		studentID, err := req.RequireString("student_id")
		if err != nil {
			return mcpError("student_id is required"), nil
		}
		resourceID, err := req.RequireString("resource_id")
		if err != nil {
			return mcpError("resource_id is required"), nil
		}
		rating, err := req.RequireInt("rating")
		if err != nil {
			return mcpError("rating is required"), nil
		}
		if rating < 1 || rating > 5 {
			return mcpError(fmt.Sprintf("rating must be between 1 and 5, got %d", rating)), nil
		}

		err = deps.Store.RateResource(storage.Interaction{
			StudentID:  studentID,
			ResourceID: resourceID,
			Rating:     rating,
			Comments:   req.GetString("comments", ""),
			ViewedAt:   time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return mcpError(err.Error()), nil
			}
			return mcpError(fmt.Sprintf("failed to save rating: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Rated %s %d/5", resourceID, rating)), nil
	}
}

func mcpGroupAvailability(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("group_id")
		if err != nil {
			return mcpError("group_id is required"), nil
		}

		windows, err := groupAvailability(deps.Store, id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("group %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("availability failed: %v", err)), nil
		}
		return mcpJSON(windows), nil
	}
}

func mcpResourceStudents(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		students, err := deps.Directory.All()
		if err != nil {
			return nil, fmt.Errorf("failed to list students: %w", err)
		}

		type studentSummary struct {
			ID      string `json:"id"`
			Summary string `json:"summary"`
		}

		summaries := make([]studentSummary, len(students))
		for i, st := range students {
			summaries[i] = studentSummary{ID: st.ID, Summary: profile.Summary(st)}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal students: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceGroups(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		groups, err := deps.Store.ListGroups(storage.GroupFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to list groups: %w", err)
		}

		b, err := json.Marshal(groups)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal groups: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpLookupError(what, studentID string, err error) *mcp.CallToolResult {
	if errors.Is(err, storage.ErrNotFound) {
		return mcpError(fmt.Sprintf("student %s not found", studentID))
	}
	return mcpError(fmt.Sprintf("%s failed: %v", what, err))
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal results: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
