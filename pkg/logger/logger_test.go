package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	pkgerrors "github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/errors"
)

func TestWithFieldsFlowThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "rewards", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithUserID(context.Background(), "user-1")
	ctx = logg.WithReferralID(ctx, "ref-1")
	logg.Info(ctx, "commission.recorded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "rewards" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["user_id"] != "user-1" || entry["referral_id"] != "ref-1" {
		t.Fatalf("expected context fields, got %v", entry)
	}
	if entry["message"] != "commission.recorded" {
		t.Fatalf("unexpected message %v", entry["message"])
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "rewards", Output: &buf})

	logg.Error(context.Background(), "boom", nil)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack field on error log")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatalf("empty level should default to info")
	}
	if ParseLevel("DEBUG") != zerolog.DebugLevel {
		t.Fatalf("expected debug level")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatalf("unknown level should default to info")
	}
}

func TestErrorCarriesTypedCode(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "rewards", Format: FormatJSON, Output: &buf})

	logg.Error(context.Background(), "referral.save_failed", pkgerrors.New(pkgerrors.CodeDependency, "db down"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["error_code"] != string(pkgerrors.CodeDependency) {
		t.Fatalf("expected error_code, got %v", entry["error_code"])
	}
	if entry["instance"] == "" {
		t.Fatalf("expected instance field")
	}
}

func TestNopWritesNothing(t *testing.T) {
	logg := Nop()
	ctx := logg.WithFields(context.Background(), map[string]any{"a": 1})
	logg.Error(ctx, "ignored", nil)
	logg.Info(ctx, "ignored")
}
