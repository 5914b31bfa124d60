package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripYAML = `
expenses:
  - payer: alice
    amount: 90
    description: hotel
    split_equally: [alice, bob, cleo]
  - payer: bob
    amount: "60"
    splits:
      - {member: alice, share: 20}
      - {member: bob, share: 20}
      - {member: cleo, share: 20}
names:
  alice: Alice
  cleo: Cleo
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSettle(t *testing.T) {
	path := writeTemp(t, "trip.yaml", tripYAML)

	out, err := runCommand(t, "settle", "-f", path)
	require.NoError(t, err)
	// Alice +40, Bob +10, Cleo -50
	assert.Equal(t, "Cleo -> Alice 40.00\nCleo -> bob 10.00\n", out)
}

func TestSettle_JSONInputAndNamesFile(t *testing.T) {
	path := writeTemp(t, "trip.json", `{
  "expenses": [
    {"payer": "u1", "amount": "300", "split_equally": ["u1", "u2", "u3"]}
  ],
  "settlements": [
    {"from": "u2", "to": "u1", "amount": "100"}
  ]
}`)
	names := writeTemp(t, "names.yaml", "u1: Alice\nu3: Cleo\n")

	out, err := runCommand(t, "settle", "-f", path, "--names", names)
	require.NoError(t, err)
	assert.Equal(t, "Cleo -> Alice 100.00\n", out)
}

func TestSettle_Explain(t *testing.T) {
	path := writeTemp(t, "trip.yaml", tripYAML)

	out, err := runCommand(t, "settle", "-f", path, "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleo pays Alice 40.00.")
	assert.Contains(t, out, "Cleo pays bob 10.00.")
}

func TestSettle_AllSettled(t *testing.T) {
	path := writeTemp(t, "even.yaml", `
expenses:
  - {payer: a, amount: 10, split_equally: [a, b]}
  - {payer: b, amount: 10, split_equally: [a, b]}
`)
	out, err := runCommand(t, "settle", "-f", path)
	require.NoError(t, err)
	assert.Equal(t, "All settled.\n", out)

	out, err = runCommand(t, "settle", "-f", path, "--explain")
	require.NoError(t, err)
	assert.Equal(t, "No settlements needed. Everyone is already balanced.\n", out)
}

func TestSettle_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "shares do not add up",
			content: "expenses:\n  - {payer: a, amount: 10, splits: [{member: b, share: 9}]}\n",
			wantErr: "shares sum to 9, expected 10",
		},
		{
			name:    "missing payer",
			content: "expenses:\n  - {amount: 10, split_equally: [a]}\n",
			wantErr: "payer is required",
		},
		{
			name:    "no split",
			content: "expenses:\n  - {payer: a, amount: 10}\n",
			wantErr: "splits or split_equally is required",
		},
		{
			name:    "self settlement",
			content: "settlements:\n  - {from: a, to: a, amount: 5}\n",
			wantErr: "two different members",
		},
		{
			name:    "not a number",
			content: "expenses:\n  - {payer: a, amount: lots, split_equally: [a]}\n",
			wantErr: "parsing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "bad.yaml", tt.content)
			_, err := runCommand(t, "settle", "-f", path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := runCommand(t, "settle")
	assert.Error(t, err, "--file is required")

	_, err = runCommand(t, "settle", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBalances(t *testing.T) {
	path := writeTemp(t, "trip.yaml", tripYAML)

	out, err := runCommand(t, "balances", "-f", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"MEMBER", "PAID", "OWED", "NET"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Alice", "90.00", "50.00", "40.00"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"bob", "60.00", "50.00", "10.00"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"Cleo", "0.00", "50.00", "-50.00"}, strings.Fields(lines[3]))
}

func TestSplit(t *testing.T) {
	out, err := runCommand(t, "split", "--amount", "100", "--members", "alice,bob,cleo")
	require.NoError(t, err)
	assert.Equal(t, "alice 33.34\nbob 33.33\ncleo 33.33\n", out)

	out, err = runCommand(t, "split", "--amount", "90", "--members", "alice,bob", "--weights", "2,1")
	require.NoError(t, err)
	assert.Equal(t, "alice 60.00\nbob 30.00\n", out)

	_, err = runCommand(t, "split", "--amount", "90", "--members", "alice,bob", "--weights", "2")
	assert.Error(t, err)

	_, err = runCommand(t, "split", "--amount", "ten", "--members", "alice")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "settlectl version dev")
}
