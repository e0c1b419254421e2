package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSource(t *testing.T) {
	a, err := HashSource([]byte(`widget "Text" { text = "A" }`))
	require.NoError(t, err)
	b, err := HashSource([]byte(`widget "Text" { text = "A" }`))
	require.NoError(t, err)
	c, err := HashSource([]byte(`widget "Text" { text = "B" }`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.String(), 16)
}

func TestMachineDecl_Next(t *testing.T) {
	m := &MachineDecl{
		Name:    "toggle",
		States:  []string{"off", "on"},
		Initial: "off",
		Transitions: []Transition{
			{Event: "click", From: "off", To: "on"},
			{Event: "click", From: "on", To: "off"},
		},
	}

	next, ok := m.Next("off", "click")
	require.True(t, ok)
	assert.Equal(t, "on", next)

	_, ok = m.Next("on", "hover")
	assert.False(t, ok)

	assert.True(t, m.HasState("on"))
	assert.False(t, m.HasState("maybe"))
}

func TestDiagnostics(t *testing.T) {
	ds := Diagnostics{
		{Severity: SeverityWarning, Line: 1, Column: 1, Message: "unused"},
		{Severity: SeverityError, Line: 3, Column: 7, Message: "bad"},
	}
	assert.True(t, ds.HasErrors())
	assert.Len(t, ds.Errors(), 1)
	assert.Equal(t, "1:1: warning: unused; 3:7: error: bad", ds.String())
	assert.False(t, ds[:1].HasErrors())
}
