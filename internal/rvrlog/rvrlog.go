// Package rvrlog wraps sirupsen/logrus with the field vocabulary the
// compiler pipeline shares (pc, block, opid, backend), replacing the
// teacher's bare fmt.Printf progress lines (grounded on the ambient use
// of logrus in other_examples/27ad74f9_moby-moby...machine.go's
// dependency tree) with structured, leveled logging.
package rvrlog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is a thin alias so callers don't import logrus directly.
type Logger = logrus.FieldLogger

// New constructs the default text-formatted logger used across the
// CLI, CFG builder, emitter, and runner.
func New(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// WithPC returns a logger annotated with the instruction address under
// consideration, the field every decode/lift/CFG log line carries.
func WithPC(l Logger, pc uint64) Logger {
	return l.WithField("pc", fmt.Sprintf("%#x", pc))
}

// WithBlock annotates a logger with the basic block start address.
func WithBlock(l Logger, blockStart uint64) Logger {
	return l.WithField("block", fmt.Sprintf("%#x", blockStart))
}

// WithOpID annotates a logger with the decoded opcode's catalog index,
// useful for tracing a specific instruction form through the pipeline.
func WithOpID(l Logger, ext uint8, idx uint16) Logger {
	return l.WithField("opid", fmt.Sprintf("%d:%d", ext, idx))
}
