package search

import (
	"fmt"
	"time"

	"github.com/mapletenders/tenderindex/internal/domain/search/filter"
	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/repository/index"
)

// Default status window applied when the caller gives no status filter.
var defaultStatuses = []string{"active", "open"}

// compileFilters turns the fixed tender filter set into a conjunctive filter expression.
// Filters never affect scoring.
func compileFilters(f request.Filters) (filter.Expression, error) {
	var must []filter.Condition

	add := func(c filter.Condition, err error) error {
		if err != nil {
			return err
		}
		must = append(must, c)
		return nil
	}

	if len(f.Regions) > 0 {
		if err := add(regionsCondition(f.Regions)); err != nil {
			return filter.Expression{}, err
		}
	}
	if f.ProcurementMethod != "" {
		if err := add(filter.NewMatch(index.FieldProcurementMethod, f.ProcurementMethod)); err != nil {
			return filter.Expression{}, err
		}
	}
	if len(f.ProcurementCategories) > 0 {
		if err := add(filter.NewMatch(index.FieldCategory, f.ProcurementCategories...)); err != nil {
			return filter.Expression{}, err
		}
	}
	if len(f.NoticeTypes) > 0 {
		if err := add(filter.NewMatch(index.FieldNoticeType, f.NoticeTypes...)); err != nil {
			return filter.Expression{}, err
		}
	}
	if len(f.ContractingEntities) > 0 {
		if err := add(filter.NewMatch(index.FieldEntityTag, f.ContractingEntities...)); err != nil {
			return filter.Expression{}, err
		}
	}
	if f.HasStatusFilter() {
		if err := add(filter.NewMatch(index.FieldStatus, f.Statuses...)); err != nil {
			return filter.Expression{}, err
		}
	} else {
		if err := add(defaultStatusCondition()); err != nil {
			return filter.Expression{}, err
		}
	}

	if c, ok, err := dateRange(index.FieldClosingTS, f.ClosingAfter, f.ClosingBefore); err != nil {
		return filter.Expression{}, err
	} else if ok {
		must = append(must, c)
	}
	if c, ok, err := dateRange(index.FieldPublicationTS, f.PublicationAfter, f.PublicationBefore); err != nil {
		return filter.Expression{}, err
	} else if ok {
		must = append(must, c)
	}

	expr, err := filter.NewExpression(must, nil, nil)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("compile filters: %w", err)
	}
	return expr, nil
}

// regionsCondition matches any region against delivery, opportunity, or entity province.
func regionsCondition(regions []string) (filter.Condition, error) {
	fields := []string{
		index.FieldRegionsOfDelivery,
		index.FieldRegionsOfOpportunity,
		index.FieldEntityProvince,
	}
	conds := make([]filter.Condition, 0, len(fields))
	for _, field := range fields {
		c, err := filter.NewMatch(field, regions...)
		if err != nil {
			return filter.Condition{}, err
		}
		conds = append(conds, c)
	}
	return filter.NewAnyOf(conds...)
}

// defaultStatusCondition keeps active or open tenders and those with no status at all.
func defaultStatusCondition() (filter.Condition, error) {
	open, err := filter.NewMatch(index.FieldStatus, defaultStatuses...)
	if err != nil {
		return filter.Condition{}, err
	}
	missing, err := filter.NewMissing(index.FieldStatus)
	if err != nil {
		return filter.Condition{}, err
	}
	return filter.NewAnyOf(open, missing)
}

// dateRange builds an inclusive epoch-seconds range. A bare date as the upper bound
// covers that whole day.
func dateRange(field string, after, before *time.Time) (filter.Condition, bool, error) {
	if after == nil && before == nil {
		return filter.Condition{}, false, nil
	}

	var gte, lte *float64
	if after != nil {
		v := float64(after.Unix())
		gte = &v
	}
	if before != nil {
		end := *before
		if isMidnight(end) {
			end = end.Add(24*time.Hour - time.Second)
		}
		v := float64(end.Unix())
		lte = &v
	}

	r, err := filter.NewRangeFilter(nil, gte, nil, lte)
	if err != nil {
		return filter.Condition{}, false, err
	}
	c, err := filter.NewRange(field, r)
	if err != nil {
		return filter.Condition{}, false, err
	}
	return c, true, nil
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
