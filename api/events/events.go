// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/logdb"
)

var logger = log.WithContext("pkg", "events")

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	return &Events{
		db,
		logsLimit,
	}
}

// Filter query events with option
func (e *Events) filter(ctx context.Context, ef *EventFilter) ([]*FilteredEvent, error) {
	events, err := e.db.FilterEvents(ctx, convertEventFilter(ef))
	if err != nil {
		return nil, err
	}
	fes := make([]*FilteredEvent, len(events))
	for i, e := range events {
		fes[i] = convertEvent(e)
	}
	return fes, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return restutil.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return restutil.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	if filter.Range != nil {
		if filter.Range.Unit != "" && filter.Range.Unit != logdb.Block && filter.Range.Unit != logdb.Time {
			return restutil.BadRequest(fmt.Errorf("range.unit: unknown unit %q", filter.Range.Unit))
		}
		for name, v := range map[string]*uint64{"from": filter.Range.From, "to": filter.Range.To} {
			if v != nil && *v > math.MaxInt64 {
				return restutil.BadRequest(fmt.Errorf("range.%s exceeds the maximum allowed value of %d", name, int64(math.MaxInt64)))
			}
		}
		if filter.Range.From != nil && filter.Range.To != nil && *filter.Range.From > *filter.Range.To {
			return restutil.BadRequest(errors.New("filter.Range.To must be greater than or equal to filter.Range.From"))
		}
	}
	if filter.Order != "" && filter.Order != logdb.ASC && filter.Order != logdb.DESC {
		return restutil.BadRequest(fmt.Errorf("order: unknown order %q", filter.Order))
	}
	// reject null element in CriteriaSet, {} will be unmarshaled to default value and will be accepted/handled by the filter engine
	for i, criterion := range filter.CriteriaSet {
		if criterion == nil {
			return restutil.BadRequest(fmt.Errorf("criteriaSet[%d]: null not allowed", i))
		}
	}
	if filter.Options == nil {
		// one more than the limit tells whether more logs exist
		filter.Options = &Options{
			Offset: 0,
			Limit:  e.limit + 1,
		}
	}

	fes, err := e.filter(req.Context(), &filter)
	if err != nil {
		return err
	}

	// ensure the result size is less than the configured limit
	if len(fes) > int(e.limit) {
		return restutil.Forbidden(fmt.Errorf("the number of filtered logs exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}

	return restutil.WriteJSON(w, fes)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /logs/event").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
