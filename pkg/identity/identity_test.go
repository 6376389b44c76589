package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestReadTrims(t *testing.T) {
	dir := t.TempDir()
	r := Reader{
		MachineIDPath: writeFile(t, dir, "machine-id", "0123456789abcdef\n"),
		HostnamePath:  writeFile(t, dir, "hostname", "  node-1\n"),
	}
	id, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, Identity{MachineID: "0123456789abcdef", Hostname: "node-1"}, id)
}

func TestReadMissing(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		reader Reader
	}{
		{"machine id", Reader{
			MachineIDPath: filepath.Join(dir, "absent"),
			HostnamePath:  writeFile(t, dir, "hostname", "node-1"),
		}},
		{"hostname", Reader{
			MachineIDPath: writeFile(t, dir, "machine-id", "abc"),
			HostnamePath:  filepath.Join(dir, "absent"),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.reader.Read()
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.IdentityRead))
		})
	}
}
