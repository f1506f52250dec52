package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// ExecuteScript runs script as the body of a function called with args. The
// runtime exposes a read-only document and location for the target context.
// The result is passed through JSON so only serializable values come back.
func (b *Backend) ExecuteScript(ctx context.Context, t backend.Target, script string, args []any) (any, error) {
	b.mu.Lock()
	bc, err := b.context(t)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	title, href := bc.doc.title(), bc.doc.url.String()
	b.mu.Unlock()

	vm := goja.New()
	if err := vm.Set("document", map[string]any{"title": title, "URL": href}); err != nil {
		return nil, fmt.Errorf("failed to bind document: %w", err)
	}
	if err := vm.Set("location", map[string]any{"href": href}); err != nil {
		return nil, fmt.Errorf("failed to bind location: %w", err)
	}
	if args == nil {
		args = []any{}
	}
	if err := vm.Set("__args", args); err != nil {
		return nil, fmt.Errorf("failed to bind arguments: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("script not started: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	v, err := vm.RunString("JSON.stringify((function() {\n" + script + "\n}).apply(null, __args))")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("script interrupted: %w", ctxErr)
			}
		}
		return nil, fmt.Errorf("%w: %s", backend.ErrScript, err.Error())
	}
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal([]byte(v.String()), &result); err != nil {
		return nil, fmt.Errorf("%w: result is not serializable: %v", backend.ErrScript, err)
	}
	return result, nil
}
