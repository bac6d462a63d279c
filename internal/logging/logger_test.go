package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", -1, true},
		{"", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestShouldLogRespectsLevel(t *testing.T) {
	l := &Logger{level: WARN, name: "test"}

	assert.False(t, l.shouldLog(DEBUG))
	assert.False(t, l.shouldLog(INFO))
	assert.True(t, l.shouldLog(WARN))
	assert.True(t, l.shouldLog(ERROR))
	assert.True(t, l.shouldLog(FATAL))
}

func TestWithFieldReturnsNewLogger(t *testing.T) {
	base := &Logger{level: INFO, name: "test", fields: map[string]interface{}{}}

	child := base.WithField("component", "collector")
	grandchild := child.WithField("session", "abc")

	assert.Empty(t, base.fields)
	assert.Len(t, child.fields, 1)
	assert.Len(t, grandchild.fields, 2)
	assert.Equal(t, "collector", grandchild.fields["component"])
}

func TestWithFieldsMerges(t *testing.T) {
	base := &Logger{level: INFO, name: "test", fields: map[string]interface{}{"a": 1}}

	child := base.WithFields(Field("b", 2), Field("a", 3))
	assert.Equal(t, 3, child.fields["a"])
	assert.Equal(t, 2, child.fields["b"])
	assert.Equal(t, 1, base.fields["a"])
}

func TestWithNameResetsFields(t *testing.T) {
	base := (&Logger{level: DEBUG, name: "old", fields: map[string]interface{}{"a": 1}}).WithName("new")
	assert.Equal(t, "new", base.name)
	assert.Empty(t, base.fields)
	assert.Equal(t, DEBUG, base.level)
}

func TestFatalUsesExitFunc(t *testing.T) {
	originalExit := exitFunc
	defer func() { exitFunc = originalExit }()

	var exitCode int
	exitFunc = func(code int) { exitCode = code }

	l := &Logger{level: FATAL, name: "test"}
	l.Fatal("unrecoverable")

	assert.Equal(t, 1, exitCode)
}

func TestGetLoggerInheritsGlobalLevel(t *testing.T) {
	require.NoError(t, Initialize("warn"))
	l := GetLogger("sub")
	assert.Equal(t, WARN, l.level)
	assert.Equal(t, "sub", l.name)
}

func TestGetTimestampOverride(t *testing.T) {
	t.Setenv("LOG_TIMESTAMP", "fixed-ts")
	assert.Equal(t, "fixed-ts", GetTimestamp())
}

func TestCloneFields(t *testing.T) {
	assert.NotNil(t, cloneFields(nil))

	src := map[string]interface{}{"k": "v"}
	dst := cloneFields(src)
	dst["k"] = "changed"
	assert.Equal(t, "v", src["k"])
}
