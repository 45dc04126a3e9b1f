package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// ExitWithCode logs the failure with foundry exit code metadata and
// terminates the process. A nil logger falls back to plain stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		// Unknown code; does not happen with foundry constants.
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatalStderr(msg, err)
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_description", info.Description),
		zap.String("exit_category", info.Category),
	}
	fields, err = appendEnvelopeFields(fields, err)
	fields = append(fields, zap.Error(err))

	logger.Error(msg, fields...)
	os.Exit(info.Code)
}

// ExitWithCodeStderr handles failures before any logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	writeFatalStderr(msg, err)
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}

// appendEnvelopeFields promotes envelope metadata into log fields and
// unwraps the original error so zap.Error reports the root cause.
func appendEnvelopeFields(fields []zap.Field, err error) ([]zap.Field, error) {
	envelope, ok := err.(*errors.ErrorEnvelope)
	if !ok {
		return fields, err
	}

	fields = append(fields,
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
		zap.String("trace_id", envelope.TraceID),
	)
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if original, ok := envelope.Original.(error); ok && original != nil {
		err = original
	}
	return fields, err
}

func writeFatalStderr(msg string, err error) {
	if err == nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
		return
	}

	envelope, ok := err.(*errors.ErrorEnvelope)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
		return
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %v (correlation: %s, trace: %s)\n",
		msg, envelope.Code, envelope.Message, envelope.CorrelationID, envelope.TraceID)
	if original, ok := envelope.Original.(error); ok && original != nil {
		fmt.Fprintf(os.Stderr, "Underlying error: %v\n", original)
	}
}
