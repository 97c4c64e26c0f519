package common

import (
	"context"
	"io"
	"time"

	"skillmatch/internal/errors"
)

// OperationFunc produces the result a command prints
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs operation and writes its result in the configured format.
// Results go to the output file when one is set, otherwise to out.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	out io.Writer,
	cmdConfig CommandConfig,
	name string,
	operation OperationFunc[Output],
) error {
	outputHandler := NewOutputHandlerWithWriter(logger, out)

	if err := ValidateOutputFormat(cmdConfig.OutputFormat, outputHandler.GetSupportedFormats()); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, err.Error(), nil)
	}

	start := time.Now()
	if logger != nil {
		logger.Debug("Running command", "command", name, "format", cmdConfig.OutputFormat)
	}

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	if logger != nil {
		logger.Debug("Command finished", "command", name, "duration", time.Since(start).String())
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
