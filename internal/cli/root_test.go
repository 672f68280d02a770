package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "logout"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, name := range []string{"login", "stock", "sales", "cash", "report", "receipts", "purchases"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
		id      int64
		qty     float64
		price   float64
	}{
		{name: "valid", spec: "1:50:2.5", id: 1, qty: 50, price: 2.5},
		{name: "decimal qty", spec: "12:0.5:10", id: 12, qty: 0.5, price: 10},
		{name: "too few parts", spec: "1:50", wantErr: true},
		{name: "not a number", spec: "a:b:c", wantErr: true},
		{name: "empty", spec: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, qty, price, err := parseLine(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitCommandError, GetExitCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.qty, qty)
			assert.Equal(t, tt.price, price)
		})
	}
}
