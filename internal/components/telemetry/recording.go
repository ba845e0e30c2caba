package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	REPORT_BROKEN ReportKind = iota
	REPORT_WARNING
	REPORT_DEBUG
	REPORT_COUNT
)

type Report struct {
	Kind   ReportKind
	ID     string
	Params []any
}

// RecordingAPI keeps every report in memory so tests can assert on them.
type RecordingAPI struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *RecordingAPI) record(kind ReportKind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.record(REPORT_BROKEN, id, params)
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.record(REPORT_WARNING, id, params)
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record(REPORT_DEBUG, msg, params)
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.record(REPORT_COUNT, id, []any{count})
}

func (r *RecordingAPI) Reports() []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Has returns true if a report of the given kind has an id ending with `suffix`,
// suffix matching lets callers ignore ScopedAPI namespaces.
func (r *RecordingAPI) Has(kind ReportKind, suffix string) bool {
	for _, report := range r.Reports() {
		if report.Kind == kind && strings.HasSuffix(report.ID, suffix) {
			return true
		}
	}
	return false
}
