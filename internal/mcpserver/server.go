// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notebox tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/noteservice"
	"github.com/starford/notebox/internal/pager"
	"github.com/starford/notebox/internal/search"
)

const guideURI = "notebox://guide"

// Server wraps the MCP server with notebox tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// noteView is a note as returned to tools; image bytes are replaced by a flag.
type noteView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	HasImage  bool   `json:"has_image"`
}

type pageView struct {
	Notes   []noteView `json:"notes"`
	Page    int        `json:"page"`
	Pages   int        `json:"pages"`
	Total   int        `json:"total"`
	HasNext bool       `json:"has_next"`
}

// New creates a new MCP server with all notebox tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notebox",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by creation/update date, title substring or content substring. "+
			"Matching is case-insensitive; wildcard characters are literal."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(string(search.Date), string(search.Title), string(search.Text)),
			mcp.Description("Which field to match")),
		mcp.WithString("value", mcp.Required(), mcp.Description("YYYY-MM-DD for Date, otherwise a substring")),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read one note by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes in creation order, one page at a time."),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Read the guide first via the get_guide tool or the "+guideURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-blank title")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("image_path", mcp.Description("Optional server-side path to a png, jpg, jpeg or gif file")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace title, content and image of a note. Omitting image_path removes the image."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-blank title")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("image_path", mcp.Description("Optional server-side path to a png, jpg, jpeg or gif file")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by id. Deleting a missing note succeeds."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("attach_image",
		mcp.WithDescription("Attach an image to an existing note from a data: URI or an http(s) URL. "+
			"Title and content are kept."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/png;base64,... or https://...")),
		mcp.WithString("filename", mcp.Description("Optional file name; its extension decides the format")),
	), s.attachImage)

	s.mcp.AddTool(mcp.NewTool("get_guide",
		mcp.WithDescription("Returns the notebox usage guide: note fields, search kinds and image rules."),
	), s.getGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "notebox Guide",
			mcp.WithResourceDescription("Note fields, search kinds, paging and image rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toView(n models.Note) noteView {
	return noteView{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: n.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		HasImage:  n.HasImage(),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func pageResult(p pager.Page[models.Note], err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, apperr.ErrNoResults) {
		return mcp.NewToolResultText("No notes found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view := pageView{Notes: make([]noteView, len(p.Items)), Page: p.Number, Pages: p.Pages, Total: p.TotalItems, HasNext: p.HasNext}
	for i, n := range p.Items {
		view.Notes[i] = toView(n)
	}
	return jsonResult(view)
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return int64(id), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return pageResult(s.svc.SearchPage(ctx, search.ParseKind(kind), value, req.GetInt("page", 1), 0))
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(toView(note))
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return pageResult(s.svc.ListPage(ctx, req.GetInt("page", 1), 0))
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.CreateNote(ctx, title, req.GetString("content", ""), req.GetString("image_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.UpdateNote(ctx, id, title, req.GetString("content", ""), req.GetString("image_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNote(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) getGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(Guide), nil
}

func (s *Server) readGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     Guide,
		},
	}, nil
}
