package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventstream/internal/eventstream"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("CONFIGURATION_ERROR", "catalog invalid", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "CONFIGURATION_ERROR", resp.Error.Code)
	assert.Equal(t, "catalog invalid", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"file": "catalog.cue", "line": "42"}
	err := formatter.Error("ARGUMENT_ERROR", "bad key", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("appended 1 record")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "appended 1 record")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("CONFIGURATION_ERROR", "catalog invalid", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [CONFIGURATION_ERROR]")
	assert.Contains(t, buf.String(), "catalog invalid")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "catalog.cue"}
	err := formatter.Error("CONFIGURATION_ERROR", "catalog invalid", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [CONFIGURATION_ERROR]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "ARGUMENT_ERROR",
		Message: "append failed",
		Details: []string{"unknown stream: orders"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ARGUMENT_ERROR", decoded.Code)
	assert.Equal(t, "append failed", decoded.Message)
}

func TestOutputFormatter_JSONKeepsHTML(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"title": "Intro <1> & more"}))
	assert.Contains(t, buf.String(), "Intro <1> & more")
}

func TestOutputFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := WrapIndexError("query failed", eventstream.NewArgumentError("unknown stream %q", "orders"))
	require.NoError(t, formatter.Report(err))
	assert.Contains(t, buf.String(), "Error [ARGUMENT_ERROR]: query failed:")
	assert.Contains(t, buf.String(), `unknown stream "orders"`)
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "append failed", cause)

	assert.Equal(t, "append failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "flag missing", NewExitError(ExitCommandError, "flag missing").Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad"))))
}

func TestWrapIndexError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"argument", eventstream.NewArgumentError("bad"), ExitCommandError},
		{"configuration", eventstream.NewConfigurationError("idx", "bad"), ExitCommandError},
		{"bookmark", eventstream.NewInvalidBookmarkError("idx", eventstream.KindRelational, "nope"), ExitCommandError},
		{"unknown strategy", eventstream.NewUnknownStrategyError("idx", eventstream.KindMemory), ExitCommandError},
		{"backend", eventstream.NewBackendUnavailableError("idx", eventstream.KindRelational, context.DeadlineExceeded), ExitFailure},
		{"untyped", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapIndexError("failed", tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "INVALID_BOOKMARK", ErrorCode(eventstream.NewInvalidBookmarkError("", eventstream.KindColumnStore, "x")))
	assert.Equal(t, "ARGUMENT_ERROR", ErrorCode(WrapIndexError("failed", eventstream.NewArgumentError("bad"))))
	assert.Equal(t, "ERROR", ErrorCode(errors.New("plain")))
}
