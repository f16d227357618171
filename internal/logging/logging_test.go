package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggerFactoryWithConfig(&buf, LevelInfo)

	logger := factory.CreateLogger("conn")
	Info(logger, "hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "component=conn")
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "key=value")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggerFactoryWithConfig(&buf, LevelWarn)
	logger := factory.CreateLogger("test")

	Debug(logger, "hidden")
	Warn(logger, "visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestCustomLevelNames(t *testing.T) {
	var buf bytes.Buffer
	factory := NewLoggerFactoryWithConfig(&buf, LevelTrace)
	logger := factory.CreateLogger("test")

	Trace(logger, "deep detail")
	assert.Contains(t, buf.String(), "level=TRACE")
}
