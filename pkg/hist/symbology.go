package hist

import (
	"context"

	"tickvault/pkg/core"
	"tickvault/pkg/dynjson"
)

// SymbologyParams describes a symbology resolution request.
type SymbologyParams struct {
	// Dataset is the dataset code to resolve against.
	Dataset string `validate:"required"`
	// Symbols are the symbols to resolve.
	Symbols []string `validate:"required,min=1"`
	// STypeIn is the symbology type of Symbols.
	STypeIn core.SType
	// STypeOut is the symbology type to resolve into.
	STypeOut core.SType
	// StartDate is the inclusive first day of the range, an ISO 8601 date.
	StartDate string `validate:"required"`
	// EndDate is the exclusive last day of the range, an ISO 8601 date.
	// Empty resolves StartDate's day only.
	EndDate string
	// DefaultValue fills days a symbol does not resolve on.
	DefaultValue string
}

// SymbologyResolve maps symbols from one symbology type to another over a
// date range. Symbols that resolve for only part of the range are listed
// in Partial, symbols that never resolve in NotFound.
func (c *Client) SymbologyResolve(ctx context.Context, params SymbologyParams) (*core.SymbologyResolution, error) {
	const op = core.OpSymbologyResolve
	if err := validateParams(op, &params); err != nil {
		return nil, err
	}

	query := map[string]string{
		"dataset":       params.Dataset,
		"stype_in":      params.STypeIn.String(),
		"stype_out":     params.STypeOut.String(),
		"start_date":    params.StartDate,
		"end_date":      params.EndDate,
		"default_value": params.DefaultValue,
	}
	setIfNotEmptyList(query, "symbols", params.Symbols)

	doc, err := c.api.GetJSON(ctx, op, pathSymbologyResolve, query)
	if err != nil {
		return nil, err
	}
	return parseSymbologyResolution(dynjson.Op(op.String()), doc)
}
