package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestClassifyWrapsTransientErrors(t *testing.T) {
	cases := []error{
		context.DeadlineExceeded,
		fmt.Errorf("exec: %w", context.DeadlineExceeded),
		errors.New("database is locked"),
	}
	for _, err := range cases {
		got := Classify(err)
		if !errors.Is(got, ErrStorageUnavailable) {
			t.Fatalf("expected storage unavailable for %v, got %v", err, got)
		}
	}
}

func TestClassifyKeepsPermanentErrors(t *testing.T) {
	err := errors.New("no such column: rent")
	if got := Classify(err); got != err {
		t.Fatalf("expected error unchanged, got %v", got)
	}
	if Classify(nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm duplicate to match")
	}
	if !IsDuplicateKey(errors.New("UNIQUE constraint failed: payments.receipt_number")) {
		t.Fatalf("expected sqlite message to match")
	}
	if IsDuplicateKey(errors.New("foreign key mismatch")) {
		t.Fatalf("unexpected match")
	}
}
