package hist

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tickvault/pkg/core"
)

// Gateway endpoint paths.
const (
	pathBatchSubmitJob   = "/v1/batch.submit_job"
	pathBatchListJobs    = "/v1/batch.list_jobs"
	pathListPublishers   = "/v1/metadata.list_publishers"
	pathListDatasets     = "/v1/metadata.list_datasets"
	pathListSchemas      = "/v1/metadata.list_schemas"
	pathListUnitPrices   = "/v1/metadata.list_unit_prices"
	pathGetBillableSize  = "/v1/metadata.get_billable_size"
	pathGetCost          = "/v1/metadata.get_cost"
	pathSymbologyResolve = "/v1/symbology.resolve"
	pathTimeseriesStream = "/v1/timeseries.stream"
)

// encodingTVZ is the only record encoding this client requests for batch
// jobs.
const encodingTVZ = "tvz"

var validate = validator.New()

// validateParams checks a params struct and converts the first violation
// into an InvalidArgumentError naming the field.
func validateParams(op core.Operation, params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &core.InvalidArgumentError{
			Op:     op.String(),
			Param:  verrs[0].Field(),
			Detail: "failed on the '" + verrs[0].Tag() + "' rule",
		}
	}
	return err
}

// requireArg rejects an empty required scalar argument.
func requireArg(op core.Operation, param, value string) error {
	if value == "" {
		return &core.InvalidArgumentError{Op: op.String(), Param: param, Detail: "must not be empty"}
	}
	return nil
}

func setIfNotEmpty(params map[string]string, key, value string) {
	if value != "" {
		params[key] = value
	}
}

func setIfNotEmptyList(params map[string]string, key string, values []string) {
	if len(values) > 0 {
		params[key] = strings.Join(values, ",")
	}
}

func setIfPositive(params map[string]string, key string, value uint64) {
	if value > 0 {
		params[key] = strconv.FormatUint(value, 10)
	}
}

// fmtTime renders a request timestamp. The zero time renders empty so the
// parameter can be omitted.
func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
