package openxml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	emitAll := func(l *Logger) {
		l.Debug("debug message")
		l.Info("info message")
		l.Warn("warn message")
		l.Error("error message")
	}

	tests := []struct {
		name           string
		level          LogLevel
		setupFunc      func(*Logger)
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:      "debug level shows all messages",
			level:     LogDebug,
			setupFunc: emitAll,
			expectedOutput: []string{
				"level=DEBUG", "debug message",
				"level=INFO", "info message",
				"level=WARN", "warn message",
				"level=ERROR", "error message",
			},
		},
		{
			name:           "info level hides debug messages",
			level:          LogInfo,
			setupFunc:      emitAll,
			expectedOutput: []string{"level=INFO", "level=WARN", "level=ERROR"},
			notExpected:    []string{"level=DEBUG", "debug message"},
		},
		{
			name:           "warn level shows only warnings and errors",
			level:          LogWarn,
			setupFunc:      emitAll,
			expectedOutput: []string{"level=WARN", "level=ERROR"},
			notExpected:    []string{"level=DEBUG", "level=INFO"},
		},
		{
			name:           "error level shows only errors",
			level:          LogError,
			setupFunc:      emitAll,
			expectedOutput: []string{"level=ERROR", "error message"},
			notExpected:    []string{"level=DEBUG", "level=INFO", "level=WARN"},
		},
		{
			name:        "off level shows nothing",
			level:       LogOff,
			setupFunc:   emitAll,
			notExpected: []string{"level="},
		},
		{
			name:  "structured fields",
			level: LogDebug,
			setupFunc: func(l *Logger) {
				l.WithFields(Fields{
					"component": "store",
					"part":      "xl/workbook.xml",
				}).Debug("flushed %d bytes", 42)
			},
			expectedOutput: []string{
				"level=DEBUG",
				`msg="flushed 42 bytes"`,
				"component=store",
				"part=xl/workbook.xml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			tt.setupFunc(logger)

			output := buf.String()
			for _, expected := range tt.expectedOutput {
				assert.Contains(t, output, expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, output, notExpected)
			}
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, LogDebug))

	Debug("test debug")
	Info("test info")
	Warn("test warn")
	Error("test error")
	WithField("package", "p1").Info("scoped")

	output := buf.String()
	for _, expected := range []string{
		`level=DEBUG msg="test debug"`,
		`level=INFO msg="test info"`,
		`level=WARN msg="test warn"`,
		`level=ERROR msg="test error"`,
		"msg=scoped package=p1",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestLoggerLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogDebug)
	child := logger.WithField("k", "v")
	assert.True(t, child.IsDebugMode())

	logger.SetLevel(LogWarn)
	assert.Equal(t, LogWarn, child.Level())
	assert.False(t, logger.IsDebugMode())

	child.Info("hidden")
	child.Slog().Warn("shown", "n", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=v n=1")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogDebug},
		{"INFO", LogInfo},
		{"warn", LogWarn},
		{"warning", LogWarn},
		{" error ", LogError},
		{"off", LogOff},
		{"verbose", LogInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
	assert.Equal(t, "OFF", LogOff.String())
	assert.Equal(t, "UNKNOWN", LogLevel(9).String())
}

func TestUpdateLoggerFromConfig(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	logger := NewLogger(nil, LogInfo)
	SetLogger(logger)
	UpdateLoggerFromConfig(&Config{LogLevel: "error"})
	require.Equal(t, LogError, logger.Level())
}
