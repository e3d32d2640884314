package rvrlog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithPCFormatsHex(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(&buf)

	WithPC(l, 0x1000).Info("decoded")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if fields["pc"] != "0x1000" {
		t.Fatalf("expected pc field 0x1000, got %v", fields["pc"])
	}
}

func TestWithBlockFormatsHex(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(&buf)

	WithBlock(l, 0x2004).Info("merged")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if fields["block"] != "0x2004" {
		t.Fatalf("expected block field 0x2004, got %v", fields["block"])
	}
}

func TestWithOpIDFormatsExtIndex(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(&buf)

	WithOpID(l, 0, 42).Info("lifted")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if fields["opid"] != "0:42" {
		t.Fatalf("expected opid field 0:42, got %v", fields["opid"])
	}
}

func TestNewSetsLevel(t *testing.T) {
	if New(false).Level != logrus.InfoLevel {
		t.Fatalf("expected default level Info")
	}
	if New(true).Level != logrus.DebugLevel {
		t.Fatalf("expected verbose level Debug")
	}
}
