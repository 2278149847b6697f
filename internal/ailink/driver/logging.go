package driver

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

type loggingDriver struct {
	next   Driver
	logger *logging.Logger
}

// WithLogging wraps a driver so every call is logged and traced.
// Prompt text and image bytes are only counted, never logged.
func WithLogging(next Driver, logger *logging.Logger) Driver {
	if next == nil {
		return nil
	}
	return &loggingDriver{next: next, logger: logger}
}

func (l *loggingDriver) Name() string {
	return l.next.Name()
}

func (l *loggingDriver) Capabilities() Capabilities {
	return l.next.Capabilities()
}

// Unwrap returns the decorated driver.
func (l *loggingDriver) Unwrap() Driver {
	return l.next
}

func (l *loggingDriver) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := l.next.Complete(ctx, req)
	elapsed := time.Since(start)

	entry := TraceEntry{
		Timestamp:  start,
		Driver:     l.next.Name(),
		DurationMs: elapsed.Milliseconds(),
	}
	if req != nil {
		entry.Model = req.Model
		entry.Operation = req.PromptSlug
		entry.Images = req.ImageCount()
		for _, msg := range req.Messages {
			entry.PromptChars += len(msg.Text())
		}
	}

	fields := []zap.Field{
		zap.String("driver", entry.Driver),
		zap.String("model", entry.Model),
		zap.String("operation", entry.Operation),
		zap.Int("images", entry.Images),
		zap.Duration("duration", elapsed),
	}

	if err != nil {
		entry.Error = err.Error()
		Trace(entry)
		if l.logger != nil {
			l.logger.Warn("Model invocation failed", append(fields, zap.Error(err))...)
		}
		return nil, err
	}

	if text, textErr := resp.Text(); textErr == nil {
		entry.OutputChars = len(text)
	}
	entry.FinishReason = resp.FinishReason
	if resp.Usage != nil {
		entry.InputTokens = resp.Usage.PromptTokens
		entry.OutputTokens = resp.Usage.CompletionTokens
		fields = append(fields,
			zap.Int("input_tokens", resp.Usage.PromptTokens),
			zap.Int("output_tokens", resp.Usage.CompletionTokens))
	}
	Trace(entry)

	if l.logger != nil {
		l.logger.Info("Model invocation completed", append(fields, zap.String("finish_reason", resp.FinishReason))...)
	}
	return resp, nil
}
