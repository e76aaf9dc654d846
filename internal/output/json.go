package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetsight/cmd/version"
	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/dataset"
	"github.com/klytics/sheetsight/internal/formats/xlsx"
	"github.com/klytics/sheetsight/internal/service"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, missing or unreadable file, bad axis
	ExitSystemError = 2 // IO failure, store or provider error
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool   `json:"ok"`
	Command string `json:"command"`
	Version string `json:"version"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PrintJSON writes a success envelope to w.
func PrintJSON(w io.Writer, cmd string, data any) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintJSONError writes an error envelope to w.
func PrintJSONError(w io.Writer, cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	if encErr := encode(w, result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userErrors are failures caused by the input rather than the system.
var userErrors = []error{
	os.ErrNotExist,
	dataset.ErrEmptyDataset,
	service.ErrEmptyFile,
	service.ErrUnsupportedFormat,
	xlsx.ErrNoSheets,
	chart.ErrInvalidAxis,
	chart.ErrMissing3DAxis,
	chart.ErrInvalidKind,
	chart.ErrInvalidAggregation,
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return ExitUserError
		}
	}
	return ExitSystemError
}
