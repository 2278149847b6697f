package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/narrator"
)

// ExitCodeFor maps a failed command's error onto a foundry exit code. An
// envelope that carries its own exit code wins; narrator failures map by
// kind so scripts can tell a bad argument from an unreachable model.
func ExitCodeFor(err error) foundry.ExitCode {
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) {
		if envelope.ExitCode != nil {
			return *envelope.ExitCode
		}
		if envelope.Code == "CONFIG_INVALID" {
			return foundry.ExitConfigInvalid
		}
	}

	var nerr *narrator.Error
	if !stderrors.As(err, &nerr) {
		return foundry.ExitFailure
	}
	switch nerr.Kind {
	case narrator.KindInvalidInput:
		return foundry.ExitInvalidArgument
	case narrator.KindUnresolvable:
		return foundry.ExitDataInvalid
	case narrator.KindModel, narrator.KindStorage:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}

// Exit terminates the process for a command that returned err.
func Exit(err error) {
	ExitWithCodeStderr(ExitCodeFor(err), "Command failed", err)
}

// ExitWithCode logs msg with the exit code's catalog metadata and exits.
// A nil logger writes to stderr instead.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	fields := []zap.Field{zap.Int("exit_code", exitCode)}
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fields = append(fields,
			zap.String("exit_name", info.Name),
			zap.String("exit_category", info.Category))
	}
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID))
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
		if envelope.Original != nil {
			fields = append(fields, zap.Any("cause", envelope.Original))
		}
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	logger.Error(msg, fields...)
	os.Exit(exitCode)
}

// ExitWithCodeStderr is ExitWithCode for failures before any logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	fmt.Fprintln(os.Stderr, fatalLine(msg, err))
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	}
	os.Exit(exitCode)
}

func fatalLine(msg string, err error) string {
	if err == nil {
		return "FATAL: " + msg
	}
	return fmt.Sprintf("FATAL: %s: %v", msg, err)
}
