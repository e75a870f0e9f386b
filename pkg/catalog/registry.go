package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// ActionContext is the information a bound strategy needs to do its job.
// It is a narrow view over the run's ToolContext (defined in pkg/runconfig)
// so that pkg/catalog does not import the orchestration packages that
// depend on it.
type ActionContext struct {
	ToolName   string
	ActionName string
	Files      []string
	WorkingDir string
	Config     map[string]any
	Stdout     []byte
	Stderr     []byte
	ExitCode   int
}

// CommandBuilder constructs the argv for an action invocation. Catalog
// documents reference builders by strategy id (spec §9: "Dynamic strategy
// dispatch" is realized in Go as a static, named registry rather than
// runtime code loading).
type CommandBuilder interface {
	Build(ctx context.Context, actx ActionContext) ([]string, error)
}

// Parser turns raw process output into diagnostics.
type Parser interface {
	Parse(ctx context.Context, actx ActionContext) ([]diagnostic.RawDiagnostic, error)
}

// Formatter rewrites file content in place (fix-style actions that don't
// round-trip through the diagnostic pipeline).
type Formatter interface {
	Format(ctx context.Context, actx ActionContext) error
}

// PostProcessor runs after an action completes, regardless of parser
// involvement (e.g. trimming a generated report, updating a cache index).
type PostProcessor interface {
	PostProcess(ctx context.Context, actx ActionContext) error
}

// Installer materializes a missing tool runtime (spec §4.7 auto-install).
type Installer interface {
	Install(ctx context.Context, tool Tool) error
}

// Registry is the static set of named strategy implementations available
// to bind against catalog StrategyRefs. It is built once at process start
// and is safe for concurrent read access thereafter.
type Registry struct {
	mu             sync.RWMutex
	commandBuilders map[string]CommandBuilder
	parsers         map[string]Parser
	formatters      map[string]Formatter
	postProcessors  map[string]PostProcessor
	installers      map[string]Installer
}

// NewRegistry returns an empty Registry ready for registration.
func NewRegistry() *Registry {
	return &Registry{
		commandBuilders: make(map[string]CommandBuilder),
		parsers:         make(map[string]Parser),
		formatters:      make(map[string]Formatter),
		postProcessors:  make(map[string]PostProcessor),
		installers:      make(map[string]Installer),
	}
}

func (r *Registry) RegisterCommandBuilder(id string, b CommandBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commandBuilders[id] = b
}

func (r *Registry) RegisterParser(id string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[id] = p
}

func (r *Registry) RegisterFormatter(id string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[id] = f
}

func (r *Registry) RegisterPostProcessor(id string, p PostProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postProcessors[id] = p
}

func (r *Registry) RegisterInstaller(id string, i Installer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installers[id] = i
}

func (r *Registry) CommandBuilder(id string) (CommandBuilder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.commandBuilders[id]
	if !ok {
		return nil, fmt.Errorf("catalog: no command builder registered for strategy %q", id)
	}
	return b, nil
}

func (r *Registry) Parser(id string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[id]
	if !ok {
		return nil, fmt.Errorf("catalog: no parser registered for strategy %q", id)
	}
	return p, nil
}

func (r *Registry) Formatter(id string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[id]
	if !ok {
		return nil, fmt.Errorf("catalog: no formatter registered for strategy %q", id)
	}
	return f, nil
}

func (r *Registry) PostProcessor(id string) (PostProcessor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.postProcessors[id]
	if !ok {
		return nil, fmt.Errorf("catalog: no post-processor registered for strategy %q", id)
	}
	return p, nil
}

func (r *Registry) Installer(id string) (Installer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.installers[id]
	if !ok {
		return nil, fmt.Errorf("catalog: no installer registered for strategy %q", id)
	}
	return i, nil
}

// Has reports whether a strategy id of the given kind is registered, used
// by the loader to surface a CatalogIntegrityError at load time rather than
// a dispatch-time panic at execution time.
func (r *Registry) Has(kind StrategyKind, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case KindCommand:
		_, ok := r.commandBuilders[id]
		return ok
	case KindParser:
		_, ok := r.parsers[id]
		return ok
	case KindFormatter:
		_, ok := r.formatters[id]
		return ok
	case KindPostProcess:
		_, ok := r.postProcessors[id]
		return ok
	case KindInstaller:
		_, ok := r.installers[id]
		return ok
	default:
		return false
	}
}
