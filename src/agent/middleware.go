package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loxresearch/genie/src/aisdk"
)

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger *slog.Logger) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			start := time.Now()
			logger.Debug("executing tool", "tool", call.Function.Name, "params", string(call.Function.Arguments))
			result, err := next(ctx, call)
			switch {
			case err != nil:
				logger.Warn("tool execution failed", "tool", call.Function.Name, "error", err, "duration", time.Since(start))
			case result != nil && result.IsError:
				logger.Warn("tool reported an error", "tool", call.Function.Name, "error", string(result.Content), "duration", time.Since(start))
			default:
				logger.Debug("tool execution completed", "tool", call.Function.Name, "duration", time.Since(start))
			}
			return result, err
		}
	}
}

// TimeoutMiddleware bounds every tool call by d.
func TimeoutMiddleware(d time.Duration) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			if d <= 0 {
				return next(ctx, call)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, call)
		}
	}
}

// RecoverMiddleware turns a panicking tool into an error response.
func RecoverMiddleware() ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (resp *aisdk.ToolResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					err = fmt.Errorf("tool %s panicked: %v", call.Function.Name, r)
				}
			}()
			return next(ctx, call)
		}
	}
}
