package hist

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"

	"tickvault/pkg/core"
	"tickvault/pkg/dynjson"
)

// MetadataListPublishers maps publisher names to their numeric identifiers.
func (c *Client) MetadataListPublishers(ctx context.Context) (map[string]int32, error) {
	const op = core.OpListPublishers
	doc, err := c.api.GetJSON(ctx, op, pathListPublishers, nil)
	if err != nil {
		return nil, err
	}

	root := dynjson.Op(op.String())
	fields, err := root.Fields(doc)
	if err != nil {
		return nil, err
	}
	publishers := make(map[string]int32, len(fields))
	for name := range fields {
		id, err := root.Uint(doc, name)
		if err != nil {
			return nil, err
		}
		if id > math.MaxInt32 {
			return nil, &core.TypeMismatchError{
				Path:     root.Path(),
				Expected: "32-bit publisher id",
				Actual:   dynjson.KindUint.String(),
				Value:    strconv.FormatUint(id, 10),
				Key:      name,
			}
		}
		publishers[name] = int32(id)
	}
	return publishers, nil
}

// MetadataListDatasets lists the dataset codes available over the given
// date range. Dates are ISO 8601 days; either may be empty to leave that
// end of the range open.
func (c *Client) MetadataListDatasets(ctx context.Context, startDate, endDate string) ([]string, error) {
	const op = core.OpListDatasets
	query := map[string]string{}
	setIfNotEmpty(query, "start_date", startDate)
	setIfNotEmpty(query, "end_date", endDate)

	doc, err := c.api.GetJSON(ctx, op, pathListDatasets, query)
	if err != nil {
		return nil, err
	}
	return dynjson.Op(op.String()).AsStrings(doc)
}

// MetadataListSchemas lists the schemas available for a dataset over the
// given date range. Dates are ISO 8601 days and optional.
func (c *Client) MetadataListSchemas(ctx context.Context, dataset, startDate, endDate string) ([]core.Schema, error) {
	const op = core.OpListSchemas
	if err := requireArg(op, "dataset", dataset); err != nil {
		return nil, err
	}
	query := map[string]string{"dataset": dataset}
	setIfNotEmpty(query, "start_date", startDate)
	setIfNotEmpty(query, "end_date", endDate)

	doc, err := c.api.GetJSON(ctx, op, pathListSchemas, query)
	if err != nil {
		return nil, err
	}

	root := dynjson.Op(op.String())
	names, err := root.AsStrings(doc)
	if err != nil {
		return nil, err
	}
	schemas := make([]core.Schema, len(names))
	for i, name := range names {
		if schemas[i], err = enumText[core.Schema](root, name, strconv.Itoa(i)); err != nil {
			return nil, err
		}
	}
	return schemas, nil
}

// schemaPrices decodes one feed mode's schema-to-price object.
func schemaPrices(c dynjson.Ctx, doc dynjson.Value) (core.PriceBySchema, error) {
	bySchema, err := c.Fields(doc)
	if err != nil {
		return nil, err
	}
	prices := make(core.PriceBySchema, len(bySchema))
	for name := range bySchema {
		schema, err := enumText[core.Schema](c, name, name)
		if err != nil {
			return nil, err
		}
		price, err := c.Decimal(doc, name)
		if err != nil {
			return nil, err
		}
		prices[schema] = price
	}
	return prices, nil
}

// MetadataListUnitPrices lists the unit prices of a dataset in US dollars
// per gigabyte, for every feed mode and schema.
func (c *Client) MetadataListUnitPrices(ctx context.Context, dataset string) (core.PriceByFeedMode, error) {
	const op = core.OpListUnitPrices
	if err := requireArg(op, "dataset", dataset); err != nil {
		return nil, err
	}

	doc, err := c.api.GetJSON(ctx, op, pathListUnitPrices, map[string]string{"dataset": dataset})
	if err != nil {
		return nil, err
	}

	root := dynjson.Op(op.String())
	byMode, err := root.Fields(doc)
	if err != nil {
		return nil, err
	}
	prices := make(core.PriceByFeedMode, len(byMode))
	for name := range byMode {
		mode, err := enumText[core.FeedMode](root, name, name)
		if err != nil {
			return nil, err
		}
		modeDoc, err := root.Object(doc, name)
		if err != nil {
			return nil, err
		}
		modePrices, err := schemaPrices(root.At(name), modeDoc)
		if err != nil {
			return nil, err
		}
		prices[mode] = modePrices
	}
	return prices, nil
}

// MetadataListUnitPricesForMode lists the unit prices of a dataset for one
// feed mode, keyed by schema. The response is keyed by the mode even when
// filtered, so the mode's entry is required.
func (c *Client) MetadataListUnitPricesForMode(ctx context.Context, dataset string, mode core.FeedMode) (core.PriceBySchema, error) {
	const op = core.OpListUnitPrices
	if err := requireArg(op, "dataset", dataset); err != nil {
		return nil, err
	}

	query := map[string]string{"dataset": dataset, "mode": mode.String()}
	doc, err := c.api.GetJSON(ctx, op, pathListUnitPrices, query)
	if err != nil {
		return nil, err
	}

	root := dynjson.Op(op.String())
	modeDoc, err := root.Object(doc, mode.String())
	if err != nil {
		return nil, err
	}
	return schemaPrices(root.At(mode.String()), modeDoc)
}

// MetadataListUnitPricesForSchema lists the unit prices of a dataset for
// one schema, keyed by feed mode.
func (c *Client) MetadataListUnitPricesForSchema(ctx context.Context, dataset string, schema core.Schema) (map[core.FeedMode]apd.Decimal, error) {
	const op = core.OpListUnitPrices
	if err := requireArg(op, "dataset", dataset); err != nil {
		return nil, err
	}

	query := map[string]string{"dataset": dataset, "schema": schema.String()}
	doc, err := c.api.GetJSON(ctx, op, pathListUnitPrices, query)
	if err != nil {
		return nil, err
	}

	root := dynjson.Op(op.String())
	byMode, err := root.Fields(doc)
	if err != nil {
		return nil, err
	}
	prices := make(map[core.FeedMode]apd.Decimal, len(byMode))
	for name := range byMode {
		mode, err := enumText[core.FeedMode](root, name, name)
		if err != nil {
			return nil, err
		}
		modeDoc, err := root.Object(doc, name)
		if err != nil {
			return nil, err
		}
		price, err := root.At(name).Decimal(modeDoc, schema.String())
		if err != nil {
			return nil, err
		}
		prices[mode] = price
	}
	return prices, nil
}

// MetadataUnitPrice returns the unit price of one dataset, feed mode, and
// schema combination, in US dollars per gigabyte.
func (c *Client) MetadataUnitPrice(ctx context.Context, dataset string, mode core.FeedMode, schema core.Schema) (apd.Decimal, error) {
	const op = core.OpListUnitPrices
	if err := requireArg(op, "dataset", dataset); err != nil {
		return apd.Decimal{}, err
	}

	query := map[string]string{
		"dataset": dataset,
		"mode":    mode.String(),
		"schema":  schema.String(),
	}
	doc, err := c.api.GetJSON(ctx, op, pathListUnitPrices, query)
	if err != nil {
		return apd.Decimal{}, err
	}
	return dynjson.Op(op.String()).AsDecimal(doc)
}

// BillableSizeParams bounds a MetadataGetBillableSize query.
type BillableSizeParams struct {
	// Dataset is the dataset code to price.
	Dataset string `validate:"required"`
	// Symbols restricts the size to the given instruments, all when empty.
	Symbols []string
	// Schema selects the record schema.
	Schema core.Schema
	// Start is the inclusive start of the range.
	Start time.Time `validate:"required"`
	// End is the exclusive end of the range, open ended when zero.
	End time.Time
	// Limit caps the number of records, zero meaning no cap.
	Limit uint64
	// STypeIn is the symbology type of Symbols.
	STypeIn core.SType
}

// MetadataGetBillableSize computes the number of bytes a matching
// timeseries or batch request would be billed for.
func (c *Client) MetadataGetBillableSize(ctx context.Context, params BillableSizeParams) (uint64, error) {
	const op = core.OpGetBillableSize
	if err := validateParams(op, &params); err != nil {
		return 0, err
	}

	query := map[string]string{
		"dataset":  params.Dataset,
		"schema":   params.Schema.String(),
		"stype_in": params.STypeIn.String(),
	}
	setIfNotEmpty(query, "start", fmtTime(params.Start))
	setIfNotEmpty(query, "end", fmtTime(params.End))
	setIfPositive(query, "limit", params.Limit)
	setIfNotEmptyList(query, "symbols", params.Symbols)

	doc, err := c.api.GetJSON(ctx, op, pathGetBillableSize, query)
	if err != nil {
		return 0, err
	}
	return dynjson.Op(op.String()).AsUint(doc)
}

// CostParams bounds a MetadataGetCost query.
type CostParams struct {
	// Dataset is the dataset code to price.
	Dataset string `validate:"required"`
	// Mode is the feed mode to price under.
	Mode core.FeedMode
	// Symbols restricts the cost to the given instruments, all when empty.
	Symbols []string
	// Schema selects the record schema.
	Schema core.Schema
	// Start is the inclusive start of the range.
	Start time.Time `validate:"required"`
	// End is the exclusive end of the range, open ended when zero.
	End time.Time
	// Limit caps the number of records, zero meaning no cap.
	Limit uint64
	// STypeIn is the symbology type of Symbols.
	STypeIn core.SType
}

// MetadataGetCost computes the cost of a matching request in US dollars.
func (c *Client) MetadataGetCost(ctx context.Context, params CostParams) (apd.Decimal, error) {
	const op = core.OpGetCost
	if err := validateParams(op, &params); err != nil {
		return apd.Decimal{}, err
	}

	query := map[string]string{
		"dataset":  params.Dataset,
		"mode":     params.Mode.String(),
		"schema":   params.Schema.String(),
		"stype_in": params.STypeIn.String(),
	}
	setIfNotEmpty(query, "start", fmtTime(params.Start))
	setIfNotEmpty(query, "end", fmtTime(params.End))
	setIfPositive(query, "limit", params.Limit)
	setIfNotEmptyList(query, "symbols", params.Symbols)

	doc, err := c.api.GetJSON(ctx, op, pathGetCost, query)
	if err != nil {
		return apd.Decimal{}, err
	}
	return dynjson.Op(op.String()).AsDecimal(doc)
}
