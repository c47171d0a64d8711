package exec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFilter() *CommandFilter {
	return NewCommandFilter(
		[]string{"env", "printenv", "docker", "curl"},
		[]string{"/etc/passwd", "../../", "docker.sock"},
	)
}

func TestCommandFilter_AllowsBenignCommands(t *testing.T) {
	filter := testFilter()

	for _, cmd := range []string{
		"ls -la",
		"cat dockerfile_helpers.py", // "docker" is a word rule, not a substring rule
		"grep -r environment .",     // "env" inside a longer word
		"python manage.py runserver",
		"echo 'documentation://curly'", // "curl" inside a longer word
	} {
		assert.NoError(t, filter.Check(cmd), "command should pass: %q", cmd)
	}
}

func TestCommandFilter_BlocksDeniedWords(t *testing.T) {
	filter := testFilter()

	tests := []struct {
		command string
		rule    string
	}{
		{"docker ps", "docker"},
		{"DOCKER ps", "docker"},           // case insensitive
		{"sudo Docker inspect db", "docker"},
		{"env", "env"},
		{"printenv SECRET", "printenv"},
		{"curl http://169.254.169.254/", "curl"},
	}
	for _, tt := range tests {
		err := filter.Check(tt.command)
		require.Error(t, err, "command should be blocked: %q", tt.command)

		var blocked *BlockedCommandError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, tt.rule, blocked.Rule)
		assert.True(t, errors.Is(err, ErrCommandBlocked))
	}
}

func TestCommandFilter_BlocksDeniedFragments(t *testing.T) {
	filter := testFilter()

	for _, cmd := range []string{
		"cat /etc/passwd",
		"cat /ETC/PASSWD",
		"less ../../secrets.txt",
		"ls -la /var/run/Docker.sock",
	} {
		assert.Error(t, filter.Check(cmd), "command should be blocked: %q", cmd)
	}
}

func TestCommandFilter_EmptyRuleSets(t *testing.T) {
	filter := NewCommandFilter(nil, nil)
	assert.NoError(t, filter.Check("docker run --privileged"))
}
