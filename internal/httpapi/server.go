// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package httpapi exposes a read-only query surface over an
// indexstore.Store: /len, /key/{index}, /index/{key}, /stats.
package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"

	"github.com/erigontech/acctidx/indexstore"
)

// NewRouter builds the chi router serving store's query facade.
func NewRouter(store *indexstore.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/len", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]uint64{"len": store.Len()})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Stats())
	})

	r.Get("/key/{index}", func(w http.ResponseWriter, r *http.Request) {
		i, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(errors.Wrap(err, "invalid index").Error()))
			return
		}
		key, ok, err := store.Get(i)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
			return
		}
		if !ok {
			// §7: NotFound is not a user error; it surfaces as 200 with an
			// empty payload, matching the facade's Option::None semantics.
			writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": hex.EncodeToString(key)})
	})

	r.Get("/index/{key}", func(w http.ResponseWriter, r *http.Request) {
		key, err := hex.DecodeString(chi.URLParam(r, "key"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody(errors.Wrap(err, "invalid key").Error()))
			return
		}
		idx, ok, err := store.IndexOf(key)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
			return
		}
		if !ok {
			// §7: NotFound is not a user error; it surfaces as 200 with an
			// empty payload, matching the facade's Option::None semantics.
			writeJSON(w, http.StatusOK, map[string]uint64{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]uint64{"index": idx})
	})

	return r
}

func errBody(msg string) map[string]string { return map[string]string{"error": msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
