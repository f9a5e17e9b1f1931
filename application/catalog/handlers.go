package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// Handler executes one tool invocation against its bound module.
type Handler func(ctx context.Context, args map[string]any) (entities.InvocationResult, error)

// HTTPGuard is the host-side authority for outbound HTTP tools. Each flow
// runs the guest's stage-one validation itself and returns the fetched
// body; the handler owns the presentation.
type HTTPGuard interface {
	Get(ctx context.Context, guest Guest, validateExport, url string) (string, error)
	Fetch(ctx context.Context, guest Guest, validateExport, processExport, url string) (string, error)
}

// FileGuard is the host-side authority for filesystem tools. Read returns
// the file content; Write returns a short result line.
type FileGuard interface {
	Read(ctx context.Context, guest Guest, validateExport, path string) (string, error)
	Write(ctx context.Context, guest Guest, validateExport, path, content string) (string, error)
}

// ShellGuard is the host-side authority for shell tools. Execute returns
// the full report text. A nil allowed list means the guard's default.
type ShellGuard interface {
	Execute(ctx context.Context, guest Guest, validateExport, command string, allowed []string) (string, error)
}

// ShellPolicy resolves the command allow-list bound into a module's shell
// tool at build time.
type ShellPolicy interface {
	AllowedCommands(module, export string) []string
}

// Recommender scores the catalog against a task description and renders
// the recommendation document.
type Recommender interface {
	Recommend(task string, tools []entities.ToolDescriptor) (string, error)
}

// Dependencies supplies the collaborators bound into handlers. Only the
// ones a discovered tool actually needs must be set; binding a guarded
// tool with its guard missing is a build error.
type Dependencies struct {
	HTTP        HTTPGuard
	Files       FileGuard
	Shell       ShellGuard
	ShellPolicy ShellPolicy
	Recommender Recommender
}

func (b *builder) bind(e entry, tools []entities.ToolDescriptor) (Handler, error) {
	switch e.act {
	case actionTwoInt:
		return b.bindTwoInt(e), nil
	case actionNoArgs:
		return b.bindNoArgs(e), nil
	case actionText:
		return b.bindText(e), nil
	case actionValidateURL:
		return b.bindValidateURL(e), nil
	case actionHTTPGet:
		return b.bindHTTPGet(e)
	case actionFileRead:
		return b.bindFileRead(e)
	case actionFileWrite:
		return b.bindFileWrite(e)
	case actionShell:
		return b.bindShell(e)
	case actionRecommend:
		return b.bindRecommend(e, tools)
	case actionFetch:
		return b.bindFetch(e)
	default:
		return nil, fmt.Errorf("tool %q has no bindable action", e.tool.Name)
	}
}

func (b *builder) bindTwoInt(e entry) Handler {
	m, direct := e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		a, err := intArg(args, "a")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		bv, err := intArg(args, "b")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		result, err := m.CallTwoInt32(ctx, direct.Export, a, bv)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf("WASM calculation result: %d (from %s::%s)",
			result, direct.Module, direct.Export)), nil
	}
}

func (b *builder) bindNoArgs(e entry) Handler {
	m, direct := e.module, e.direct
	return func(ctx context.Context, _ map[string]any) (entities.InvocationResult, error) {
		result, err := m.CallNoArgs(ctx, direct.Export)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf("WASM result: %d (from %s::%s)",
			result, direct.Module, direct.Export)), nil
	}
}

func (b *builder) bindText(e entry) Handler {
	m, direct := e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		data, err := stringArg(args, "data", "Missing or invalid parameter 'data'")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		result, err := m.CallWithInput(ctx, direct.Export, []byte(data))
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf("WASM processing result: %d (from %s::%s)",
			result, direct.Module, direct.Export)), nil
	}
}

func (b *builder) bindValidateURL(e entry) Handler {
	m, direct := e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		url, err := stringArg(args, "url", "Missing or invalid parameter 'url'")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		result, err := m.CallWithInput(ctx, direct.Export, []byte(url))
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf("URL validation result: %d (1=valid, 0=invalid)", result)), nil
	}
}

func (b *builder) bindHTTPGet(e entry) (Handler, error) {
	if b.deps.HTTP == nil {
		return nil, fmt.Errorf("tool %q needs an HTTP guard", e.tool.Name)
	}
	guard, m, direct := b.deps.HTTP, e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		url, err := stringArg(args, "url", "Missing URL parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		content, err := guard.Get(ctx, m, direct.Export, url)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf(
			"HTTP GET successful!\nURL: %s\nContent length: %d bytes\n\nContent preview (first 500 chars):\n%s",
			url, len(content), preview(content, 500))), nil
	}, nil
}

func (b *builder) bindFileRead(e entry) (Handler, error) {
	if b.deps.Files == nil {
		return nil, fmt.Errorf("tool %q needs a file guard", e.tool.Name)
	}
	guard, m, direct := b.deps.Files, e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		path, err := stringArg(args, "path", "Missing path parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		content, err := guard.Read(ctx, m, direct.Export, path)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf(
			"File read successful!\nPath: %s\nContent length: %d bytes\n\nContent:\n%s",
			path, len(content), content)), nil
	}, nil
}

func (b *builder) bindFileWrite(e entry) (Handler, error) {
	if b.deps.Files == nil {
		return nil, fmt.Errorf("tool %q needs a file guard", e.tool.Name)
	}
	guard, m, direct := b.deps.Files, e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		path, err := stringArg(args, "path", "Missing path parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		content, err := stringArg(args, "content", "Missing content parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		result, err := guard.Write(ctx, m, direct.Export, path, content)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf(
			"File write successful!\nPath: %s\nContent length: %d bytes\nResult: %s",
			path, len(content), result)), nil
	}, nil
}

func (b *builder) bindShell(e entry) (Handler, error) {
	if b.deps.Shell == nil {
		return nil, fmt.Errorf("tool %q needs a shell guard", e.tool.Name)
	}
	guard, m, direct := b.deps.Shell, e.module, e.direct
	var allowed []string
	if b.deps.ShellPolicy != nil {
		allowed = b.deps.ShellPolicy.AllowedCommands(direct.Module, direct.Export)
	}
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		command, err := stringArg(args, "command", "Missing command parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		report, err := guard.Execute(ctx, m, direct.Export, command, allowed)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(report), nil
	}, nil
}

func (b *builder) bindRecommend(e entry, tools []entities.ToolDescriptor) (Handler, error) {
	if b.deps.Recommender == nil {
		return nil, fmt.Errorf("tool %q needs a recommender", e.tool.Name)
	}
	rec, m, direct := b.deps.Recommender, e.module, e.direct
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		task, err := stringArg(args, "task", "Missing task parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		accepted, err := m.CallWithInput(ctx, direct.Export, []byte(task))
		if err != nil {
			return entities.InvocationResult{}, err
		}
		if accepted != 1 {
			return entities.InvocationResult{}, errors.New("Task rejected by WASM validation")
		}
		doc, err := rec.Recommend(task, tools)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return entities.InvocationResult{Text: doc, Structured: json.RawMessage(doc)}, nil
	}, nil
}

func (b *builder) bindFetch(e entry) (Handler, error) {
	if b.deps.HTTP == nil {
		return nil, fmt.Errorf("tool %q needs an HTTP guard", e.tool.Name)
	}
	guard, m := b.deps.HTTP, e.module
	validate, process := e.virtual.Steps[0].Export, e.virtual.Steps[1].Export
	return func(ctx context.Context, args map[string]any) (entities.InvocationResult, error) {
		url, err := stringArg(args, "url", "Missing URL parameter")
		if err != nil {
			return entities.InvocationResult{}, err
		}
		content, err := guard.Fetch(ctx, m, validate, process, url)
		if err != nil {
			return entities.InvocationResult{}, err
		}
		return textResult(fmt.Sprintf("URL: %s\n\nContent (first 500 chars):\n%s",
			url, preview(content, 500))), nil
	}, nil
}

// intArg coerces an argument to i32. JSON numbers must be integral; the
// value wraps like an i64 to i32 narrowing.
func intArg(args map[string]any, key string) (int32, error) {
	switch n := args[key].(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("Missing or invalid parameter '%s'", key)
		}
		return int32(int64(n)), nil
	case int:
		return int32(n), nil
	case int32:
		return n, nil
	case int64:
		return int32(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("Missing or invalid parameter '%s'", key)
		}
		return int32(i), nil
	default:
		return 0, fmt.Errorf("Missing or invalid parameter '%s'", key)
	}
}

// stringArg fetches a required string argument, failing with the exact
// message the protocol promises for that parameter.
func stringArg(args map[string]any, key, missing string) (string, error) {
	value, ok := args[key].(string)
	if !ok {
		return "", errors.New(missing)
	}
	return value, nil
}

// preview caps text at n bytes, marking the cut with an ellipsis.
func preview(text string, n int) string {
	if len(text) > n {
		return text[:n] + "..."
	}
	return text
}

func textResult(text string) entities.InvocationResult {
	return entities.InvocationResult{Text: text}
}
