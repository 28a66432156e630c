package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
)

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type CommandError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error CommandError `json:"error"`
}

// WriteSuccess writes data wrapped in a success envelope.
func WriteSuccess(w io.Writer, pretty bool, data any) error {
	return writeJSON(w, pretty, SuccessEnvelope{Data: data})
}

// WriteError logs err, writes its public form to w and returns the process
// exit code for it. Untyped errors are reported as internal errors.
func WriteError(ctx context.Context, logg *logger.Logger, w io.Writer, err error) int {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodePolicy:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := ErrorEnvelope{
		Error: CommandError{
			Code:      string(typed.Code()),
			Message:   msg,
			Retryable: meta.Retryable,
		},
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		fields := map[string]any{
			"error":       dump.TopMessage,
			"error_chain": dump.Chain,
		}
		if dump.PGCode != "" {
			fields["pg_code"] = dump.PGCode
			fields["pg_message"] = dump.PGMessage
			fields["pg_table"] = dump.PGTable
		}
		logg.Error(logg.WithFields(ctx, fields), "command.error", err)
	}

	_ = writeJSON(w, true, payload)
	return meta.ExitCode
}

func writeJSON(w io.Writer, pretty bool, payload any) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(payload)
}
