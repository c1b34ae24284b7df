package testutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/poslist/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/poslist/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Warn("skipped")
	logger.Warn("skipped")
	assert.True(t, logger.HasMessage("warn", "skipped"))
	assert.Equal(t, 2, logger.Count("warn", "skipped"))
	assert.Equal(t, 2, logger.CountLevel("warn"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestAtomRecord_Columns(t *testing.T) {
	line := testutil.AtomRecord{
		Serial: 7, Name: "CA", ResName: "SER", Chain: 'A', ResSeq: 23,
		X: 1.5, Y: -2.25, Z: 10,
	}.Line()

	assert.Equal(t, "ATOM", strings.TrimSpace(line[0:6]))
	assert.Equal(t, "7", strings.TrimSpace(line[6:11]))
	assert.Equal(t, "CA", strings.TrimSpace(line[12:16]))
	assert.Equal(t, "SER", line[17:20])
	assert.Equal(t, byte('A'), line[21])
	assert.Equal(t, "23", strings.TrimSpace(line[22:26]))
	assert.Equal(t, "1.500", strings.TrimSpace(line[30:38]))
	assert.Equal(t, "-2.250", strings.TrimSpace(line[38:46]))
	assert.Equal(t, "10.000", strings.TrimSpace(line[46:54]))
	assert.Equal(t, "C", strings.TrimSpace(line[76:78]))
}

func TestPDBBuilder_String(t *testing.T) {
	text := testutil.NewPDB().Chain('A', 1, 0, "GLY", "ALA").HetAtom('A', 100, "HOH", "O", 0, 0, 0).String()
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[2], "HETATM"))
	assert.Equal(t, "END", lines[3])
}
