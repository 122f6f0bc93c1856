package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeMalformed, status: http.StatusInternalServerError, publicMsg: "stored record is malformed"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeWalksWrappedChain(t *testing.T) {
	inner := New(CodeMalformed, "referral row has negative earnings")
	wrapped := fmt.Errorf("load referral: %w", inner)

	if !IsCode(wrapped, CodeMalformed) {
		t.Fatalf("expected malformed code to be found through wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Fatalf("malformed must not be reported as not found")
	}
	if IsCode(nil, CodeMalformed) {
		t.Fatalf("nil error carries no code")
	}
}

func TestWrapUntyped(t *testing.T) {
	if WrapUntyped(CodeDependency, nil, "x") != nil {
		t.Fatalf("nil error should stay nil")
	}
	typed := New(CodeValidation, "bad")
	if got := WrapUntyped(CodeDependency, typed, "x"); got != typed {
		t.Fatalf("typed error should pass through, got %v", got)
	}
	plain := fmt.Errorf("db down")
	got := WrapUntyped(CodeDependency, plain, "query failed")
	if !IsCode(got, CodeDependency) {
		t.Fatalf("expected dependency code, got %v", got)
	}
}

func TestWrapUntypedMapsContextErrorsToDependency(t *testing.T) {
	err := WrapUntyped(CodeInternal, fmt.Errorf("query: %w", context.DeadlineExceeded), "load summary")
	if !IsCode(err, CodeDependency) {
		t.Fatalf("expected dependency code, got %v", err)
	}
	if !stdErrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("deadline cause lost")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatalf("nil is not retryable")
	}
	if Retryable(Newf(CodeValidation, "reason too long (%d)", 201)) {
		t.Fatalf("validation errors are final")
	}
	if !Retryable(Wrap(CodeDependency, stdErrors.New("conn reset"), "save")) {
		t.Fatalf("dependency errors are retryable")
	}
	if !Retryable(stdErrors.New("untyped")) {
		t.Fatalf("untyped errors are treated as internal")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("conn reset"), "save referral")
	if got, want := err.Error(), "DEPENDENCY_ERROR: save referral: conn reset"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDumpCollectsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_referral_tracking_pair", TableName: "referral_tracking"}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "track referral")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if d.PG == nil || d.PG.Constraint != "idx_referral_tracking_pair" {
		t.Fatalf("pg info missing: %+v", d.PG)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d", len(d.Chain))
	}
	if d.Fields()["pg_code"] != "23505" {
		t.Fatalf("pg_code not rendered")
	}
}

func TestDumpFlagsContextErrors(t *testing.T) {
	d := Dump(WrapUntyped(CodeInternal, context.Canceled, "refresh"))
	if !d.Canceled || d.TimedOut {
		t.Fatalf("unexpected flags %+v", d)
	}
	if _, ok := d.Fields()["pg_code"]; ok {
		t.Fatalf("pg fields must be absent without a pg error")
	}
}
