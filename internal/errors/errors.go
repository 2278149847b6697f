package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/metrics"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/observability"
	"github.com/areaoforigin/narrator/internal/server/middleware"
)

// Error codes carried in envelopes and response bodies.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnresolvableImage  = "UNRESOLVABLE_IMAGE"
	CodeModelError         = "MODEL_ERROR"
	CodeStorageError       = "STORAGE_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// User Errors (400-level)
func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeMethodNotAllowed, message)
}

func NewPayloadTooLargeError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodePayloadTooLarge, message)
}

// Server Errors (500-level)
func NewInternalError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInternal, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope("CONFIG_INVALID", message)
}

// WrapConfigInvalid reports a configuration failure caused by err.
func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, NewConfigInvalidError(message), err)
}

// WrapInternal reports err as an internal failure of the running request.
func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, NewInternalError(message), err)
}

func wrap(ctx context.Context, env *errors.ErrorEnvelope, cause error) *errors.ErrorEnvelope {
	env = withCorrelation(ctx, env)
	if cause != nil {
		env = annotate(env, map[string]interface{}{"wrapped_error": cause.Error()})
	}
	return env
}

// annotate adds context fields, leaving env unchanged if gofulmen rejects them.
func annotate(env *errors.ErrorEnvelope, fields map[string]interface{}) *errors.ErrorEnvelope {
	if updated, err := env.WithContext(fields); err == nil {
		return updated
	}
	return env
}

// FromDomain converts a service error into an envelope. The message carries
// the cause, since callers only ever see the flattened error string.
func FromDomain(ctx context.Context, err error) *errors.ErrorEnvelope {
	var nerr *narrator.Error
	if !stderrors.As(err, &nerr) {
		return withCorrelation(ctx, asEnvelope(err))
	}

	env := errors.NewErrorEnvelope(codeForKind(nerr.Kind), nerr.Message())
	env = withCorrelation(ctx, env)

	fields := map[string]interface{}{
		"operation": nerr.Op,
		"kind":      nerr.Kind.String(),
	}
	if nerr.Err != nil {
		fields["wrapped_error"] = nerr.Err.Error()
	}
	if perr, ok := driver.AsProviderError(err); ok {
		fields["provider"] = perr.Provider
		if perr.StatusCode > 0 {
			fields["provider_status"] = perr.StatusCode
		}
	}
	env = annotate(env, fields)

	severity := errors.SeverityLow
	switch nerr.Kind {
	case narrator.KindModel, narrator.KindStorage:
		severity = errors.SeverityHigh
	case narrator.KindInternal:
		severity = errors.SeverityCritical
	}
	if updated, serr := env.WithSeverity(severity); serr == nil {
		env = updated
	}
	return env
}

func codeForKind(kind narrator.Kind) string {
	switch kind {
	case narrator.KindInvalidInput:
		return CodeInvalidInput
	case narrator.KindUnresolvable:
		return CodeUnresolvableImage
	case narrator.KindModel:
		return CodeModelError
	case narrator.KindStorage:
		return CodeStorageError
	default:
		return CodeInternal
	}
}

// withCorrelation stamps env with the request ID, or a fallback ID when the
// error did not come from a request.
func withCorrelation(ctx context.Context, env *errors.ErrorEnvelope) *errors.ErrorEnvelope {
	if env.CorrelationID == "" {
		id := ""
		if ctx != nil {
			id = middleware.GetRequestID(ctx)
		}
		if id == "" {
			id = "fallback-" + errors.GenerateCorrelationID()
		}
		env = env.WithCorrelationID(id)
	}
	return env.WithTraceID(env.CorrelationID)
}

// asEnvelope returns the envelope inside err, or a high-severity internal
// envelope carrying its text.
func asEnvelope(err error) *errors.ErrorEnvelope {
	var env *errors.ErrorEnvelope
	switch {
	case err == nil:
		env = errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	case stderrors.As(err, &env) && env != nil:
		return env
	}
	env = annotate(errors.NewErrorEnvelope(CodeInternal, err.Error()), map[string]interface{}{"wrapped_error": err.Error()})
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput, CodeUnresolvableImage, "VALIDATION_FAILED":
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case "EXTERNAL_SERVICE_ERROR":
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorResponse is the body written for every failed request.
type HTTPErrorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// RespondWithError writes err as a flat JSON error body, logging it and
// counting it against the matched route.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := context.Background()
	endpoint := "unknown"
	if r != nil {
		ctx = r.Context()
		if rc := chi.RouteContext(ctx); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
	}

	env := FromDomain(ctx, err)
	status := HTTPStatusFromCode(env.Code)
	logHTTPError(env, status)
	metrics.RecordErrorResponse(env.Code, status, endpoint)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error:     env.Message,
		Code:      env.Code,
		RequestID: env.CorrelationID,
		Details:   env.Details,
	})
}

func logHTTPError(env *errors.ErrorEnvelope, status int) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}

	fields := make([]zap.Field, 0, len(env.Context)+3)
	fields = append(fields,
		zap.String("error_code", env.Code),
		zap.Int("http_status", status),
		zap.String("request_id", env.CorrelationID),
	)
	if env.Severity != "" {
		fields = append(fields, zap.String("severity", string(env.Severity)))
	}
	for k, v := range env.Context {
		fields = append(fields, zap.Any(k, v))
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(env.Message, fields...)
	case env.Severity == errors.SeverityMedium:
		logger.Warn(env.Message, fields...)
	default:
		logger.Info(env.Message, fields...)
	}
}
