package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
)

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuccess(&buf, false, map[string]string{"hello": "world"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var body SuccessEnvelope
	if err := json.NewDecoder(&buf).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteSuccessPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSuccess(&buf, true, []int{1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"data\"") {
		t.Fatalf("expected indented output, got %q", buf.String())
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	var buf bytes.Buffer
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	code := WriteError(context.Background(), nil, &buf, fmt.Errorf("patch: %w", err))

	if code != 2 {
		t.Fatalf("expected exit code 2 but got %d", code)
	}

	var body ErrorEnvelope
	if err := json.NewDecoder(&buf).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) || body.Error.Message != "bad input" {
		t.Fatalf("unexpected error %+v", body.Error)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorHidesNotFoundDetails(t *testing.T) {
	var buf bytes.Buffer
	err := pkgerrors.New(pkgerrors.CodeNotFound, "item not found").WithDetails(map[string]any{"id": "x"})
	if code := WriteError(context.Background(), nil, &buf, err); code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	var body ErrorEnvelope
	if err := json.NewDecoder(&buf).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Details != nil {
		t.Fatalf("details must not leak for not found, got %v", body.Error.Details)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	var buf, logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "responses-test", Output: &logs})
	code := WriteError(context.Background(), logg, &buf, errors.New("boom"))

	if code != 1 {
		t.Fatalf("expected exit code 1 but got %d", code)
	}
	var body ErrorEnvelope
	if err := json.NewDecoder(&buf).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) || body.Error.Message != "internal error" {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
	if strings.Contains(buf.String(), "boom") {
		t.Fatalf("internal cause leaked to output: %s", buf.String())
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Fatalf("expected cause in logs, got %s", logs.String())
	}
}
