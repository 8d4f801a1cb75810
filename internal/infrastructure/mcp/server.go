// Package mcp exposes the clarification workflow to MCP clients, so the AI
// agent driving a spec-driven session can locate, scan, ask, and integrate
// answers through tools instead of shelling out.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/hammaadworks/specialized-spec-kit/internal/infrastructure/discovery"
	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
	"github.com/hammaadworks/specialized-spec-kit/pkg/storage"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

type Server struct {
	mcpServer  *mcp.Server
	clarifySvc *application.ClarifyService
	auditSvc   *application.AuditService
	root       string
}

// mcpErr returns a user-friendly error for MCP clients. Internal details are
// omitted — only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(root string) (*Server, error) {
	repo := storage.NewFilesystemRepository(root)
	audit := application.NewAuditService(repo)

	info := mcp.ServerInfo{
		Name:    "speckit",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Speckit MCP Server"),
			mcp.WithDescription("Speckit exposes deterministic spec coverage scanning and the one-question-at-a-time clarification loop to MCP clients."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use clarify_status to inspect coverage, clarify_next_question to fetch the single outstanding question, and clarify_answer to integrate an accepted answer."),
		),
		clarifySvc: application.NewClarifyService(repo, audit),
		auditSvc:   audit,
		root:       root,
	}

	s.registerTools()
	return s, nil
}

type specArgs struct {
	Spec string `json:"spec" jsonschema:"description=Spec file path; empty runs the discovery step"`
}

type answerArgs struct {
	Spec       string `json:"spec" jsonschema:"description=Spec file path; empty runs the discovery step"`
	QuestionID string `json:"question_id" jsonschema:"description=ID of the outstanding question being answered"`
	Answer     string `json:"answer" jsonschema:"description=Option key or short answer (max 5 words)"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("clarify_status").
		Description("Scan the feature spec and return category coverage (Clear/Partial/Missing)").
		Handler(s.handleStatus)

	s.mcpServer.Tool("clarify_next_question").
		Description("Return the single outstanding clarification question, ranked by impact × uncertainty").
		Handler(s.handleNextQuestion)

	s.mcpServer.Tool("clarify_answer").
		Description("Validate and integrate one accepted answer into the spec, persisting atomically").
		Handler(s.handleAnswer)

	s.mcpServer.Tool("clarify_timeline").
		Description("Return the recorded clarification session events").
		Handler(s.handleTimeline)
}

func (s *Server) resolveSpec(ctx context.Context, spec string) (string, error) {
	if spec != "" {
		return spec, nil
	}
	repo := storage.NewFilesystemRepository(s.root)
	script := ""
	if settings, err := repo.LoadSettings(); err == nil {
		script = settings.DiscoveryScript
	}
	fc, err := discovery.NewLocator(s.root, script).Resolve(ctx)
	if err != nil {
		return "", err
	}
	return fc.SpecPath, nil
}

func (s *Server) handleStatus(ctx context.Context, args specArgs) (any, error) {
	specPath, err := s.resolveSpec(ctx, args.Spec)
	if err != nil {
		return nil, mcpErr("Failed to locate the feature spec. Run the prerequisite setup step first.")
	}
	results, err := s.clarifySvc.Status(specPath)
	if err != nil {
		return nil, mcpErr("Failed to scan the spec. Check that the file is readable markdown.")
	}
	return results, nil
}

func (s *Server) handleNextQuestion(ctx context.Context, args specArgs) (any, error) {
	specPath, err := s.resolveSpec(ctx, args.Spec)
	if err != nil {
		return nil, mcpErr("Failed to locate the feature spec. Run the prerequisite setup step first.")
	}
	q, ok, err := s.clarifySvc.NextQuestion(specPath)
	if err != nil {
		return nil, mcpErr("Failed to compute the next question.")
	}
	if !ok {
		return map[string]any{"done": true, "message": "no critical ambiguities remain"}, nil
	}
	return q, nil
}

func (s *Server) handleAnswer(ctx context.Context, args answerArgs) (any, error) {
	specPath, err := s.resolveSpec(ctx, args.Spec)
	if err != nil {
		return nil, mcpErr("Failed to locate the feature spec. Run the prerequisite setup step first.")
	}
	report, err := s.clarifySvc.AnswerOnce(ctx, specPath, args.QuestionID, args.Answer)
	if err != nil {
		var rejected *coverage.ErrAnswerRejected
		if errors.As(err, &rejected) {
			return nil, mcpErr("Answer rejected: " + rejected.Reason + ". Pick a listed option or answer in 5 words or fewer.")
		}
		return nil, mcpErr("Failed to integrate the answer: " + err.Error())
	}
	return report, nil
}

func (s *Server) handleTimeline(ctx context.Context, args struct{}) (any, error) {
	events, err := s.auditSvc.GetTimeline()
	if err != nil {
		return nil, mcpErr("Failed to load the session timeline.")
	}
	return events, nil
}

func (s *Server) Start() error {
	return s.StartStdio()
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) StartHTTP(addr string) error {
	return s.ServeHTTP(context.Background(), addr)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}
