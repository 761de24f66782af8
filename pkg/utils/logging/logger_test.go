package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/dormouselabs/dormouse/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", buf)
	gt.V(t, logger).NotNil()

	logger.Info("test message")
	gt.S(t, buf.String()).Contains("test message")
}

func TestNewWithDifferentLevels(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"DEBUG", true, true},   // Case-insensitive
		{"invalid", false, true}, // Defaults to info
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)

			logger.Debug("debug message")
			logger.Info("info message")

			output := buf.String()
			gt.Equal(t, tc.expectDebug, bytes.Contains([]byte(output), []byte("debug message")))
			gt.Equal(t, tc.expectInfo, bytes.Contains([]byte(output), []byte("info message")))
		})
	}
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", buf)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("from context")
	gt.S(t, buf.String()).Contains("from context")

	// Without an attached logger, From falls back to the default.
	gt.V(t, logging.From(context.Background())).NotNil()
}
