package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"newsdiet/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFeedFetch, "fetch", "download", "status 503", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFeedFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "download", "status 503"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatalOnlyForStorage(t *testing.T) {
	storage := services.Wrap(services.ErrStorage, "store", "insert", "", errors.New("disk full"))
	if !services.IsFatal(storage) {
		t.Fatal("expected storage error to be fatal")
	}
	if !services.IsFatal(fmt.Errorf("cycle: %w", storage)) {
		t.Fatal("expected wrapped storage error to be fatal")
	}
	for _, marker := range []error{services.ErrFeedFetch, services.ErrModelOutput, services.ErrTimeout} {
		if services.IsFatal(services.Wrap(marker, "x", "y", "z", nil)) {
			t.Fatalf("expected %v to be non-fatal", marker)
		}
	}
}

func TestFailureKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrStorage, "", "", "", nil), "storage"},
		{services.Wrap(services.ErrTimeout, "", "", "", nil), "timeout"},
		{context.DeadlineExceeded, "timeout"},
		{services.Wrap(services.ErrFeedFetch, "", "", "", nil), "fetch"},
		{services.Wrap(services.ErrModelOutput, "", "", "", nil), "model_output"},
		{services.Wrap(services.ErrValidation, "", "", "", nil), "invalid"},
		{services.Wrap(services.ErrNotFound, "", "", "", nil), "not_found"},
		{context.Canceled, "canceled"},
		{errors.New("other"), "failed"},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
