package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsError(t *testing.T) {
	c := New(DefaultConfig())

	tests := []struct {
		name string
		line string
		want bool
	}{
		{"plain error", "Error: timeout on line 5\n", true},
		{"upper case", "BUILD ERROR\n", true},
		{"error with dots", "e.r.r.o.r happened\n", true},
		{"error inside word", "errors were reported\n", false},
		{"error prefix word", "myerror\n", false},
		{"error followed by colon", "make: *** [all] error:2\n", true},
		{"fail substring", "Compilation failure\n", true},
		{"fail inside word", "unfailing\n", true},
		{"no keyword", "Linking target app.elf\n", false},
		{"empty", "", false},
		{"zero errors summary", "    0 Error(s)\n", false},
		{"pdFAIL macro", "if (ret == pdFAIL) { error(); }\n", false},
		{"data verify comment", "/* data verify failed */ error\n", false},
		{"blacklist is case sensitive", "0 ERROR(S) and an error\n", true},
		{"ten errors contains blacklisted text", "10 Error(s)\n", false},
		{"2 Error(s)", "2 Error(s)\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsError(tt.line))
		})
	}
}

func TestBlacklistPrecedence(t *testing.T) {
	c := New(DefaultConfig())
	for _, b := range DefaultBlacklist {
		line := "error " + b + "\n"
		assert.False(t, c.Classify(line).IsError, "line %q should be suppressed", line)
	}
}

func TestCustomBlacklist(t *testing.T) {
	cfg := Config{Blacklist: []string{"warning-as-error"}}
	c := New(cfg)

	assert.False(t, c.IsError("flag warning-as-error set\n"))
	assert.True(t, c.IsError("if (x == pdFAIL)\n"))

	cfg.Blacklist[0] = "changed"
	assert.False(t, c.IsError("flag warning-as-error set\n"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Error: timeout on line 5\n", "Error:timeoutonline\n"},
		{"Error: timeout on line 9\n", "Error:timeoutonline\n"},
		{"\tfail 0x1F at 12:30\n", "failxFat:\n"},
		{"", ""},
		{"no-digits", "no-digits"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"Error 42 at\tline 7\n", "  ", "abc", "1 2 3"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := New(DefaultConfig())
	line := "ld: error 12: undefined reference\n"

	first := c.Classify(line)
	second := c.Classify(line)

	assert.Equal(t, first, second)
	assert.True(t, first.IsError)
	assert.Equal(t, line, first.Line)
	assert.Equal(t, "ld:error:undefinedreference\n", first.Normalized)
}
