package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newBufferLogger(verbose bool) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	var logs, out bytes.Buffer
	base := logrus.New()
	base.SetOutput(&logs)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &Logger{entry: logrus.NewEntry(base), verbose: verbose, out: &out}, &logs, &out
}

func TestProgressOnlyWhenVerbose(t *testing.T) {
	quiet, _, quietOut := newBufferLogger(false)
	quiet.Progress("🔍", "step %d", 1)
	quiet.ProgressAlways("✅", "done")
	if got := quietOut.String(); got != "✅ done\n" {
		t.Errorf("quiet output = %q", got)
	}

	loud, _, loudOut := newBufferLogger(true)
	loud.Progress("🔍", "step %d", 1)
	if got := loudOut.String(); got != "🔍 step 1\n" {
		t.Errorf("verbose output = %q", got)
	}
}

func TestWithFieldAttachesContext(t *testing.T) {
	log, logs, _ := newBufferLogger(true)
	log.WithField("request_id", "abc").Warn("slow %s", "poll")

	line := logs.String()
	if !strings.Contains(line, "request_id=abc") || !strings.Contains(line, "slow poll") {
		t.Errorf("log line = %q", line)
	}
}

func TestInfoOnlyWhenVerbose(t *testing.T) {
	log, logs, _ := newBufferLogger(false)
	log.Info("hidden")
	if logs.Len() != 0 {
		t.Errorf("Info logged in quiet mode: %q", logs.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"WARN":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"loud":  logrus.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
