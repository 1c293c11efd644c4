package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Text
	}{
		{`"moderado"`, "moderado"},
		{`10`, "10"},
		{`12.5`, "12.5"},
		{`true`, "true"},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Percent
	}{
		{`25`, 25},
		{`"25"`, 25},
		{`"25%"`, 25},
		{`"25,5"`, 25.5},
		{`" 7,25 % "`, 7.25},
		{`""`, 0},
		{`null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var got Percent
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.InDelta(t, float64(tt.want), float64(got), 1e-9)
		})
	}
}

func TestPercent_UnmarshalJSON_UnparseableIsZero(t *testing.T) {
	for _, raw := range []string{`"muito"`, `"20-25%"`, `"n/a"`} {
		t.Run(raw, func(t *testing.T) {
			p := Percent(99)
			require.NoError(t, json.Unmarshal([]byte(raw), &p))
			assert.Zero(t, float64(p))
		})
	}
}

func TestDiagnosis_MissingSections(t *testing.T) {
	var empty Diagnosis
	assert.Len(t, empty.MissingSections(), 14)
	assert.Equal(t, "ips", empty.MissingSections()[0])
	assert.Equal(t, "followUp", empty.MissingSections()[13])

	var d Diagnosis
	require.NoError(t, json.Unmarshal([]byte(`{
		"ips": {"perfil": "arrojado"},
		"alertasCriticos": ["Concentração em um único emissor"],
		"movimentacoes": [],
		"followUp": ["Possui seguro de vida?"]
	}`), &d))

	missing := d.MissingSections()
	assert.NotContains(t, missing, "ips")
	assert.NotContains(t, missing, "alertasCriticos")
	assert.NotContains(t, missing, "followUp")
	assert.Contains(t, missing, "movimentacoes")
	assert.Len(t, missing, 11)
}

func TestParsedStatement_HasBalances(t *testing.T) {
	assert.False(t, ParsedStatement{}.HasBalances())
	assert.Equal(t, int64(3), InputFile{Data: []byte("abc")}.Size())
}
