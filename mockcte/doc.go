// Package mockcte replaces real tables with literal-valued common table
// expressions so that production SQL can be executed against in-memory rows.
//
// Build renders rows as a CTE fragment:
//
//	with orders as (
//	    select 'North' as region, 100 as amount union all
//	    select 'South' as region, 200 as amount
//	)
//
// Merge splices such a fragment into a statement as its first CTE, joining an
// existing WITH list when the statement already has one.
package mockcte

import "github.com/shibukawa/ctemock"

// Errors returned by this package. They are the sentinels of the root package
// so callers can match either name with errors.Is.
var (
	ErrInvalidInput     = ctemock.ErrInvalidInput
	ErrUnsupportedValue = ctemock.ErrUnsupportedValue
)
