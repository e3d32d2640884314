package rvrerr

import (
	"errors"
	"testing"
)

func TestIsMatchesOwnKind(t *testing.T) {
	err := New(DecodeFailure, "illegal encoding at 0x1000")
	if !Is(err, DecodeFailure) {
		t.Fatalf("expected Is to match DecodeFailure")
	}
	if Is(err, ElfRejected) {
		t.Fatalf("expected Is not to match a different kind")
	}
}

func TestWrapPreservesCauseAndKind(t *testing.T) {
	cause := errors.New("mmap failed")
	err := Wrap(LoadError, cause, "dlopen artifact.so")
	if !Is(err, LoadError) {
		t.Fatalf("expected wrapped error to match LoadError")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(LoadError, nil, "no-op") != nil {
		t.Fatalf("expected Wrap(nil) to return nil")
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(CfgInconsistency, "dangling successor %#x", uint64(0x2000))
	if !Is(err, CfgInconsistency) {
		t.Fatalf("expected Newf error to match CfgInconsistency")
	}
	want := "cfg_inconsistency: dangling successor 0x2000"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestKindStringCoversAllValues(t *testing.T) {
	for k, want := range map[Kind]string{
		ElfRejected:      "elf_rejected",
		DecodeFailure:    "decode_failure",
		CfgInconsistency: "cfg_inconsistency",
		BackendEmit:      "backend_emit",
		LoadError:        "load_error",
		ExecutionExit:    "execution_exit",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("plain"), DecodeFailure) {
		t.Fatalf("expected a plain error never to match a Kind")
	}
}
