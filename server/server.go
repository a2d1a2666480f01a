// Package server contains route table plumbing shared by the HTTP wrappers.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"

	"goji.io"
	"goji.io/pat"
)

// RouteTable maps URL patterns to the handlers that serve them.
type RouteTable map[goji.Pattern]http.HandlerFunc

// HTTPer is an object which can layer its functionality onto a route table.
type HTTPer interface {
	// RT yields the route table, which may be modified before binding
	RT() RouteTable
}

// Bind attaches every route in the table to mux, plus a "list of routes"
// endpoint for discovery.
func (rt RouteTable) Bind(mux *goji.Mux) {
	for p, h := range rt {
		mux.HandleFunc(p, h)
	}
	mux.HandleFunc(pat.Get("/endpoints"), func(w http.ResponseWriter, r *http.Request) {
		EncodeJSON(w, rt.Endpoints())
	})
}

// Endpoints returns the sorted list of patterns bound by this table.
func (rt RouteTable) Endpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		routes = append(routes, fmt.Sprint(k))
	}
	sort.Strings(routes)
	return routes
}

// EncodeJSON writes v to w as JSON with the appropriate content type.
func EncodeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fstr := fmt.Sprintf("error encoding response to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}

// BoolT is a struct with a single Bool field for JSON requests and replies
type BoolT struct {
	Bool bool `json:"bool"`
}

// StrT is a struct with a single Str field for JSON requests and replies
type StrT struct {
	Str string `json:"str"`
}

// FloatT is a struct with a single F64 field for JSON requests and replies
type FloatT struct {
	F64 float64 `json:"f64"`
}
