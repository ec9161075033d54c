package engine

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mockhive/mockhive/pkg/httputil"
	"github.com/mockhive/mockhive/pkg/stateful"
)

// Query parameters with pagination meaning; everything else is an
// exact-match field filter.
var reservedQueryKeys = map[string]bool{
	"limit":  true,
	"offset": true,
}

// handleResource serves a CRUD hit: overrides, delay, error injection,
// then the collection operation. The record store and override state are
// the snapshots taken by handle, so a concurrent reload cannot swap them
// mid-request.
func (i *Instance) handleResource(w http.ResponseWriter, r *http.Request, match *ResourceMatch, body []byte, defaultDelay int, records *stateful.Store, overrides *overrideState) (proxied bool) {
	res := match.Config
	ov := overrides.resourceOverride(match.Name)
	eff := effectiveSettings(ov, res.DelayMs, res.ErrorRate, res.ErrorStatus, defaultDelay)

	if eff.disabled {
		httputil.WriteServiceUnavailable(w, "disabled", "resource disabled")
		return false
	}
	if eff.passthrough {
		return i.passthrough(w, r, body)
	}

	sleepContext(r.Context(), eff.delayMs)
	if injected(eff.errorRate) {
		httputil.WriteError(w, eff.errorStatus, "injected_failure", "failure injected by configuration")
		return false
	}

	coll, ok := records.Collection(match.Name)
	if !ok {
		httputil.WriteNotFound(w, "not_found", "unknown resource")
		return false
	}

	if match.Kind == ResourceCollection {
		i.serveCollection(w, r, coll, body)
	} else {
		i.serveItem(w, r, coll, match.ID, body)
	}
	return false
}

func (i *Instance) serveCollection(w http.ResponseWriter, r *http.Request, coll *stateful.Collection, body []byte) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		filters, limit, offset := parseListQuery(r)
		items, total := coll.List(filters, limit, offset)
		httputil.WriteOK(w, map[string]any{
			"items": items,
			"total": total,
		})

	case http.MethodPost:
		record, err := coll.Create(parseRecordBody(body))
		if err != nil {
			writeCollectionError(w, err)
			return
		}
		httputil.WriteCreated(w, record)
	}
}

func (i *Instance) serveItem(w http.ResponseWriter, r *http.Request, coll *stateful.Collection, id string, body []byte) {
	var (
		record map[string]any
		err    error
	)
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		record, err = coll.Get(id)
	case http.MethodPut:
		record, err = coll.Replace(id, parseRecordBody(body))
	case http.MethodPatch:
		record, err = coll.Patch(id, parseRecordBody(body))
	case http.MethodDelete:
		if err = coll.Delete(id); err == nil {
			httputil.WriteNoContent(w)
			return
		}
	}

	if err != nil {
		writeCollectionError(w, err)
		return
	}
	httputil.WriteOK(w, record)
}

func writeCollectionError(w http.ResponseWriter, err error) {
	var notFound *stateful.NotFoundError
	var conflict *stateful.ConflictError
	switch {
	case errors.As(err, &notFound):
		httputil.WriteNotFound(w, "not_found", notFound.Error())
	case errors.As(err, &conflict):
		httputil.WriteConflict(w, "conflict", conflict.Error())
	default:
		httputil.WriteInternalError(w, "internal_error", err.Error())
	}
}

// parseListQuery extracts pagination and field filters from the query
// string. Unknown keys filter on record fields by stringified equality.
func parseListQuery(r *http.Request) (filters map[string]string, limit, offset int) {
	for key, vals := range r.URL.Query() {
		if len(vals) == 0 {
			continue
		}
		if reservedQueryKeys[key] {
			n, err := strconv.Atoi(vals[0])
			if err != nil || n < 0 {
				continue
			}
			if key == "limit" {
				limit = n
			} else {
				offset = n
			}
			continue
		}
		if filters == nil {
			filters = make(map[string]string)
		}
		filters[key] = vals[0]
	}
	return filters, limit, offset
}

// parseRecordBody decodes a JSON object body. Malformed or non-object
// bodies degrade to an empty record rather than failing the request.
func parseRecordBody(body []byte) map[string]any {
	if len(body) == 0 {
		return map[string]any{}
	}
	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil || record == nil {
		return map[string]any{}
	}
	return record
}
