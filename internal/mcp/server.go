// Package mcp exposes experiment design, effect analysis and Monte Carlo
// capability simulation as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"sigma-mcp/internal/config"
	"sigma-mcp/internal/simulation"
	"sigma-mcp/internal/study"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const serverName = "sigma-mcp"

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Version is reported to clients during initialization.
	Version string
	// Store keeps the studies. Nil creates an empty store.
	Store *study.Store
	// Simulation holds iteration, worker and histogram defaults.
	Simulation config.SimulationConfig
}

// Server wraps the MCP SDK server with the tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	store    *study.Store
	engine   *simulation.Engine
	settings config.SimulationConfig

	mu    sync.RWMutex
	tools []string
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	settings := withDefaults(deps.Simulation)
	store := deps.Store
	if store == nil {
		store = study.NewStore()
	}

	s := &Server{
		inner: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
		store:    store,
		engine:   &simulation.Engine{Workers: settings.Workers, Seed: settings.Seed, MaxIterations: settings.MaxIterations},
		settings: settings,
	}
	s.registerTools()
	return s
}

func withDefaults(c config.SimulationConfig) config.SimulationConfig {
	if c.Iterations <= 0 {
		c.Iterations = simulation.DefaultIterations
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.HistogramBins <= 0 {
		c.HistogramBins = simulation.DefaultBinCount
	}
	return c
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)
	return names
}

// Run serves MCP on stdin/stdout until the context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves MCP on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	log.Info().Strs("tools", s.ListToolNames()).Msg("MCP server ready")
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolCreateStudy, createStudyDescription, s.handleCreateStudy)
	addTool(s, ToolListStudies, listStudiesDescription, s.handleListStudies)
	addTool(s, ToolGetStudy, getStudyDescription, s.handleGetStudy)
	addTool(s, ToolRegenerateDesign, regenerateDesignDescription, s.handleRegenerateDesign)
	addTool(s, ToolRecordOutputs, recordOutputsDescription, s.handleRecordOutputs)
	addTool(s, ToolAnalyzeEffects, analyzeEffectsDescription, s.handleAnalyzeEffects)
	addTool(s, ToolEvaluateFormula, evaluateFormulaDescription, s.handleEvaluateFormula)
	addTool(s, ToolRunSimulation, runSimulationDescription, s.handleRunSimulation)
	addTool(s, ToolOptimizeStudy, optimizeStudyDescription, s.handleOptimizeStudy)
	addTool(s, ToolDeleteStudy, deleteStudyDescription, s.handleDeleteStudy)
}

func addTool[In any](
	s *Server,
	name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withLogging(name, handler))

	s.mu.Lock()
	s.tools = append(s.tools, name)
	s.mu.Unlock()
}

// withLogging records the outcome and latency of every tool call.
func withLogging[In any](
	name string,
	handler func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()
		result, output, err := handler(ctx, req, input)

		ev := log.Debug()
		if err != nil || (result != nil && result.IsError) {
			ev = log.Warn()
			if result != nil && len(result.Content) > 0 {
				if text, ok := result.Content[0].(*mcpsdk.TextContent); ok {
					ev = ev.Str("error", text.Text)
				}
			}
		}
		ev.Str("tool", name).Dur("elapsed", time.Since(start)).Msg("Tool call")
		return result, output, err
	}
}
