package page

import (
	"fmt"
)


const MergeAppend = "append"
const MergePrepend = "prepend"
const MergeExtend = "extend"
const MergeAddChartData = "addChartData"


// merges `data` into the value at an `updatePath` path. `existing` is nil when the path is missing.
// Implementations must not mutate `existing`.
type MergeFunction func(existing any, data any) (any, error)


func NewMergeRegistry() *Registry[MergeFunction] {
	merges := NewRegistry[MergeFunction]()
	merges.MustRegister(MergeAppend, mergeAppend)
	merges.MustRegister(MergePrepend, mergePrepend)
	merges.MustRegister(MergeExtend, mergeExtend)
	merges.MustRegister(MergeAddChartData, mergeAddChartData)
	return merges
}


func listTarget(existing any) ([]any, error) {
	switch v := existing.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: expected list, found %T", ErrMergeTarget, existing)
	}
}

func mergeAppend(existing any, data any) (any, error) {
	list, err := listTarget(existing)
	if err != nil {
		return nil, err
	}
	next := make([]any, 0, len(list)+1)
	next = append(next, list...)
	next = append(next, data)
	return next, nil
}

func mergePrepend(existing any, data any) (any, error) {
	list, err := listTarget(existing)
	if err != nil {
		return nil, err
	}
	next := make([]any, 0, len(list)+1)
	next = append(next, data)
	next = append(next, list...)
	return next, nil
}

func mergeExtend(existing any, data any) (any, error) {
	list, err := listTarget(existing)
	if err != nil {
		return nil, err
	}
	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: extend expects a list, found %T", ErrMergeData, data)
	}
	next := make([]any, 0, len(list)+len(items))
	next = append(next, list...)
	next = append(next, items...)
	return next, nil
}


// Chart data is a map of title -> {title, type, series: [{name, data}]}.
// The payload is a list of {title, type, series}.
// A payload series with the name of an existing series extends that series' data in place.
// Other payload series are appended. Series absent from the payload are kept as is.
func mergeAddChartData(existing any, data any) (any, error) {
	var charts map[string]any
	switch v := existing.(type) {
	case nil:
		charts = map[string]any{}
	case map[string]any:
		charts = cloneMap(v)
	default:
		return nil, fmt.Errorf("%w: expected chart map, found %T", ErrMergeTarget, existing)
	}

	configs, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: chart data expects a list, found %T", ErrMergeData, data)
	}

	for _, configValue := range configs {
		config, ok := configValue.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: chart config %T", ErrMergeData, configValue)
		}
		title, ok := config["title"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: chart title %T", ErrMergeData, config["title"])
		}
		payloadSeries, ok := config["series"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: chart series %T", ErrMergeData, config["series"])
		}

		var group map[string]any
		switch v := charts[title].(type) {
		case nil:
			group = map[string]any{
				"title":  title,
				"type":   config["type"],
				"series": []any{},
			}
		case map[string]any:
			group = cloneMap(v)
		default:
			return nil, fmt.Errorf("%w: chart group %T", ErrMergeTarget, v)
		}

		series, err := listTarget(group["series"])
		if err != nil {
			return nil, err
		}
		series = append([]any{}, series...)
		// payload series only match series present before this payload
		existingCount := len(series)

		for _, singleValue := range payloadSeries {
			single, ok := singleValue.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: series %T", ErrMergeData, singleValue)
			}
			i := seriesIndex(series[:existingCount], single["name"])
			if i < 0 {
				series = append(series, single)
				continue
			}
			merged, err := mergeExtend(series[i].(map[string]any)["data"], listOrEmpty(single["data"]))
			if err != nil {
				return nil, err
			}
			existingSingle := cloneMap(series[i].(map[string]any))
			existingSingle["data"] = merged
			series[i] = existingSingle
		}

		group["series"] = series
		charts[title] = group
	}
	return charts, nil
}

// series names are strings. A series without a string name never matches.
func seriesIndex(series []any, nameValue any) int {
	name, ok := nameValue.(string)
	if !ok {
		return -1
	}
	for i, singleValue := range series {
		if single, ok := singleValue.(map[string]any); ok {
			if existingName, ok := single["name"].(string); ok && existingName == name {
				return i
			}
		}
	}
	return -1
}

func listOrEmpty(v any) any {
	if v == nil {
		return []any{}
	}
	return v
}
