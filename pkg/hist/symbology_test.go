package hist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickvault/pkg/core"
)

func TestSymbologyResolve(t *testing.T) {
	api := &fakeAPI{body: sampleResolutionJSON}
	client := newTestClient(api)

	res, err := client.SymbologyResolve(context.Background(), SymbologyParams{
		Dataset:   "GLBX.MDP3",
		Symbols:   []string{"ES.c.0", "NQ.c.0", "WHEAT"},
		STypeIn:   core.STypeSmart,
		STypeOut:  core.STypeProductID,
		StartDate: "2024-07-01",
		EndDate:   "2024-07-08",
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/symbology.resolve", api.path)
	assert.Equal(t, map[string]string{
		"dataset":       "GLBX.MDP3",
		"stype_in":      "smart",
		"stype_out":     "product_id",
		"start_date":    "2024-07-01",
		"end_date":      "2024-07-08",
		"default_value": "",
		"symbols":       "ES.c.0,NQ.c.0,WHEAT",
	}, api.query)

	require.Len(t, res.Mappings, 2)
	assert.Equal(t, "ESU4", res.Mappings["ES.c.0"][0].Symbol)
	assert.Equal(t, []string{"ES.c.0"}, res.Partial)
	assert.Equal(t, []string{"WHEAT"}, res.NotFound)
}

// The gateway distinguishes an absent default_value from an empty one, so
// both end_date and default_value are always sent, even when empty.
func TestSymbologyResolve_AlwaysSendsRangeAndDefault(t *testing.T) {
	api := &fakeAPI{body: `{"result": {}, "partial": [], "not_found": []}`}
	client := newTestClient(api)

	_, err := client.SymbologyResolve(context.Background(), SymbologyParams{
		Dataset:   "GLBX.MDP3",
		Symbols:   []string{"ESU4"},
		StartDate: "2024-07-01",
	})
	require.NoError(t, err)

	assert.Contains(t, api.query, "end_date")
	assert.Contains(t, api.query, "default_value")
	assert.Empty(t, api.query["end_date"])
}

func TestSymbologyResolve_Validation(t *testing.T) {
	tests := []struct {
		name      string
		params    SymbologyParams
		wantParam string
	}{
		{
			name:      "missing dataset",
			params:    SymbologyParams{Symbols: []string{"ESU4"}, StartDate: "2024-07-01"},
			wantParam: "Dataset",
		},
		{
			name:      "missing symbols",
			params:    SymbologyParams{Dataset: "GLBX.MDP3", StartDate: "2024-07-01"},
			wantParam: "Symbols",
		},
		{
			name:      "missing start date",
			params:    SymbologyParams{Dataset: "GLBX.MDP3", Symbols: []string{"ESU4"}},
			wantParam: "StartDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(&fakeAPI{body: `{}`})

			_, err := client.SymbologyResolve(context.Background(), tt.params)
			var invalid *core.InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "SYMBOLOGY_RESOLVE", invalid.Op)
			assert.Equal(t, tt.wantParam, invalid.Param)
		})
	}
}

func TestSymbologyResolve_EmptyResolution(t *testing.T) {
	client := newTestClient(&fakeAPI{body: `{"result": {}, "partial": [], "not_found": []}`})

	res, err := client.SymbologyResolve(context.Background(), SymbologyParams{
		Dataset:   "GLBX.MDP3",
		Symbols:   []string{"ESU4"},
		StartDate: "2024-07-01",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Mappings)
	assert.Empty(t, res.Partial)
	assert.Empty(t, res.NotFound)
}
