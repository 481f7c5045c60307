package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestBadgerAdapterForwardsToLogrus(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	adapter := NewBadgerAdapter(logrus.NewEntry(logger).WithField("component", "badgerdb"))
	adapter.Errorf("error %s", "one")
	adapter.Warningf("warning %s", "two")
	adapter.Infof("info %s", "three")
	adapter.Debugf("debug %s", "four")

	out := buf.String()
	assert.Contains(t, out, "error one")
	assert.Contains(t, out, "warning two")
	assert.Contains(t, out, "info three")
	assert.Contains(t, out, "debug four")
	assert.Contains(t, out, "component=badgerdb")
}
