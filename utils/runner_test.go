package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner(t *testing.T) {
	r := &ShellRunner{}

	t.Run("stdout only", func(t *testing.T) {
		out, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
		require.NoError(t, err)
		assert.Equal(t, "out\n", out)
	})

	t.Run("error carries stderr", func(t *testing.T) {
		_, err := r.Run(context.Background(), "sh", "-c", "echo 'No such map netgroup' >&2; exit 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No such map netgroup")
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := r.Run(context.Background(), "definitely-not-a-real-binary-1111")
		assert.Error(t, err)
	})
}

func TestMockRunner(t *testing.T) {
	m := &MockRunner{RunFn: func(bin string, args []string) (string, error) {
		return bin + ":" + args[0], nil
	}}

	out, err := m.Run(context.Background(), "ypcat", "-k", "netgroup")
	require.NoError(t, err)
	assert.Equal(t, "ypcat:-k", out)
	assert.Equal(t, []string{"ypcat"}, m.Bins)
	assert.Equal(t, [][]string{{"-k", "netgroup"}}, m.Calls)
}
