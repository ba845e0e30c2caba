// Package airtabletest is an in-memory stand-in for the Airtable REST API. It
// understands equality formulas only.
package airtabletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"prospect-sync/internal/airtable"
)

type Call struct {
	Method string
	Table  string
	ID     string
	Query  string
	Offset string
	Fields map[string]any
}

// Failure makes the server answer a request with an error instead of handling it.
type Failure struct {
	StatusCode int
	Body       string
}

type Server struct {
	*httptest.Server

	APIKey string
	BaseID string
	// Fail is consulted before every request, returning nil handles it normally.
	Fail func(method, table string) *Failure
	// PageSize caps the records per list response, zero means 100.
	PageSize int
	// IgnoreMaxRecords answers list requests as if maxRecords was not sent.
	IgnoreMaxRecords bool

	mutex  sync.Mutex
	tables map[string][]airtable.Record
	calls  []Call
	nextID int
}

// NewServer starts a server serving one base with the given tables.
func NewServer(apiKey, baseID string, tables ...string) *Server {
	s := &Server{
		APIKey: apiKey,
		BaseID: baseID,
		tables: map[string][]airtable.Record{},
	}
	for _, t := range tables {
		s.tables[t] = []airtable.Record{}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// BaseURL is what airtable.Options.BaseURL should be set to.
func (s *Server) BaseURL() string {
	return s.URL + "/v0"
}

func (s *Server) Calls() []Call {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the calls with the given method made to `table`.
func (s *Server) CallsTo(method, table string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Table == table {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) Records(table string) []airtable.Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]airtable.Record, len(s.tables[table]))
	copy(out, s.tables[table])
	return out
}

// Seed inserts a record directly and returns its id.
func (s *Server) Seed(table string, fields map[string]any) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.insert(table, fields).ID
}

func (s *Server) insert(table string, fields map[string]any) airtable.Record {
	s.nextID++
	record := airtable.Record{
		ID:          fmt.Sprintf("rec%014d", s.nextID),
		CreatedTime: "2024-06-01T00:00:00.000Z",
		Fields:      fields,
	}
	s.tables[table] = append(s.tables[table], record)
	return record
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"type": errType, "message": message},
	})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v0/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		return
	}
	base, table := parts[0], parts[1]
	id := ""
	if len(parts) == 3 {
		id = parts[2]
	}

	query := r.URL.Query()
	call := Call{Method: r.Method, Table: table, ID: id, Query: query.Get("filterByFormula"), Offset: query.Get("offset")}
	if r.Method == http.MethodPost || r.Method == http.MethodPatch {
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST_UNKNOWN", err.Error())
			return
		}
		call.Fields = body.Fields
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.calls = append(s.calls, call)

	if s.Fail != nil {
		if failure := s.Fail(r.Method, table); failure != nil {
			w.Header().Set("content-type", "application/json")
			w.WriteHeader(failure.StatusCode)
			w.Write([]byte(failure.Body))
			return
		}
	}

	if r.Header.Get("authorization") != "Bearer "+s.APIKey {
		writeError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Authentication required")
		return
	}
	if base != s.BaseID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		return
	}
	records, ok := s.tables[table]
	if !ok {
		writeError(w, http.StatusNotFound, "TABLE_NOT_FOUND", fmt.Sprintf("Could not find table %s in application %s", table, base))
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		s.list(w, records, call.Query, call.Offset, query.Get("maxRecords"))
	case r.Method == http.MethodPost && id == "":
		writeJSON(w, http.StatusOK, s.insert(table, call.Fields))
	case r.Method == http.MethodPatch && id != "":
		s.patch(w, table, id, call.Fields)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
	}
}

var equalsFormulaRegex = regexp.MustCompile(`^\{([^}]+)\} = "((?:[^"\\]|\\.)*)"$`)

var formulaUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

func (s *Server) list(w http.ResponseWriter, records []airtable.Record, formula, offset, maxRecords string) {
	matched := []airtable.Record{}
	if formula == "" {
		matched = append(matched, records...)
	} else {
		groups := equalsFormulaRegex.FindStringSubmatch(formula)
		if groups == nil {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_FILTER_BY_FORMULA", "The formula for filtering records is invalid")
			return
		}
		field, value := groups[1], formulaUnescaper.Replace(groups[2])
		for _, record := range records {
			if fmt.Sprint(record.Fields[field]) == value {
				matched = append(matched, record)
			}
		}
	}

	if limit, err := strconv.Atoi(maxRecords); err == nil && limit > 0 && !s.IgnoreMaxRecords && len(matched) > limit {
		matched = matched[:limit]
	}

	// offsets are the index of the first record of the next page
	start := 0
	if offset != "" {
		var err error
		start, err = strconv.Atoi(offset)
		if err != nil || start < 0 || start > len(matched) {
			writeError(w, http.StatusUnprocessableEntity, "LIST_RECORDS_ITERATOR_NOT_AVAILABLE", "Invalid offset")
			return
		}
	}
	size := s.PageSize
	if size <= 0 {
		size = 100
	}
	end := min(start+size, len(matched))

	body := map[string]any{"records": matched[start:end]}
	if end < len(matched) {
		body["offset"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) patch(w http.ResponseWriter, table, id string, fields map[string]any) {
	for i, record := range s.tables[table] {
		if record.ID != id {
			continue
		}
		merged := map[string]any{}
		for k, v := range record.Fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		s.tables[table][i].Fields = merged
		writeJSON(w, http.StatusOK, s.tables[table][i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
}
