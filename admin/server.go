// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package admin wraps a store.Store with an HTTP debug/control surface:
// point CRUD over the key/value engine, Prometheus metrics, and bucket
// integrity checks, the same role netlog/transport plays over NetLog.
package admin

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/net/context"

	"github.com/generalzzd/0-db/data"
	"github.com/generalzzd/0-db/index"
	"github.com/generalzzd/0-db/store"
)

// Server implements an HTTP admin interface around a store.Store.
type Server struct {
	st      *store.Store
	metrics *Metrics
}

// NewServer builds an admin Server around st, registering its
// Prometheus collectors.
func NewServer(st *store.Store) *Server {
	return &Server{st: st, metrics: NewMetrics()}
}

// Handler returns the http.Handler to mount, e.g. under http.Handle.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", s.handleHealthz)
	router.GET("/stats", s.handleStats)
	router.PUT("/kv/:key", s.handlePut)
	router.GET("/kv/:key", s.handleGet)
	router.DELETE("/kv/:key", s.handleDelete)
	router.GET("/kv/:key/check", withCtx(s.handleCheck))
	router.GET("/buckets/:id/verify", s.handleVerifyChain)
	router.Handler("GET", "/metrics", s.metrics.Handler())
	return router
}

// ctxHandle is the signature of a context-aware httprouter handler.
type ctxHandle func(context.Context, http.ResponseWriter, *http.Request, httprouter.Params)

// withCtx injects a context that is canceled if the client disconnects
// mid-request, mirroring netlog/transport's withCtx wrapper around its
// scan endpoints.
func withCtx(handle ctxHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithCancel(r.Context())
		if cn, ok := w.(http.CloseNotifier); ok {
			clientGone := cn.CloseNotify()
			go func() {
				select {
				case <-ctx.Done():
				case <-clientGone:
					cancel()
				}
			}()
		}
		defer cancel()
		handle(ctx, w, r, ps)
	}
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	defer logClose(r.Body)

	value, err := ioutil.ReadAll(r.Body)
	if err != nil {
		JSONErrorResponse(w, ErrBadRequest)
		return
	}

	if err := s.st.Put([]byte(ps.ByName("key")), value); err != nil {
		s.metrics.errors.Inc()
		JSONErrorResponse(w, mapErr(err))
		return
	}

	s.metrics.inserts.Inc()
	w.WriteHeader(http.StatusCreated)
	JSONOKResponse(w, "stored")
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	value, err := s.st.Get([]byte(ps.ByName("key")))
	if err != nil {
		JSONErrorResponse(w, mapErr(err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(value); err != nil {
		log.Printf("error: failed to write HTTP response %s", err)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.st.Delete([]byte(ps.ByName("key"))); err != nil {
		JSONErrorResponse(w, mapErr(err))
		return
	}

	s.metrics.deletes.Inc()
	JSONOKResponse(w, "deleted")
}

func (s *Server) handleCheck(ctx context.Context, w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := s.st.Check([]byte(ps.ByName("key")))
	switch {
	case err == nil:
		JSONOKResponse(w, "ok")
	case ctx.Err() != nil:
		return
	default:
		if err == data.ErrIntegrityMismatch {
			s.metrics.integrityFail.Inc()
		}
		JSONErrorResponse(w, mapErr(err))
	}
}

func (s *Server) handleVerifyChain(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseBucketID(ps.ByName("id"))
	if err != nil || id >= uint32(s.st.BucketCount()) {
		JSONErrorResponse(w, ErrBadRequest)
		return
	}

	ok, length, verr := s.st.VerifyChain(id)
	JSONResponse(w, struct {
		OK     bool   `json:"ok"`
		Length int    `json:"length"`
		Error  string `json:"error,omitempty"`
	}{OK: ok, Length: length, Error: errString(verr)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	JSONOKResponse(w, "healthy")
}

// handleStats reports one BucketInfo per allocated bucket, the admin
// surface's window into hash-locality without exposing raw key bytes.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var buckets []index.BucketInfo
	s.st.Walk(func(bi index.BucketInfo) {
		buckets = append(buckets, bi)
	})
	JSONResponse(w, struct {
		Buckets []index.BucketInfo `json:"buckets"`
	}{Buckets: buckets})
}

func mapErr(err error) APIError {
	switch err {
	case store.ErrNotFound:
		return ErrKeyNotFound
	case data.ErrReadOnly:
		return ErrReadOnly
	case data.ErrIntegrityMismatch:
		return ErrIntegrityMismatch
	default:
		return ExtErr(err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// JSONErrorResponse transforms an error into a JSON HTTP response.
func JSONErrorResponse(w http.ResponseWriter, err error) {
	e := ExtErr(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.StatusCode())
	if encErr := json.NewEncoder(w).Encode(e); encErr != nil {
		log.Printf("error: encode error response: %s", encErr)
	}
}

// JSONResponse transforms payload into a JSON HTTP response.
func JSONResponse(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("error: encode response: %s", err)
	}
}

type successMsg struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// JSONOKResponse transforms a success message into a JSON HTTP response.
func JSONOKResponse(w http.ResponseWriter, message string) {
	JSONResponse(w, successMsg{OK: true, Message: message})
}

func logClose(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		log.Printf("error: %s", err)
	}
}
