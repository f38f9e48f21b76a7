// Copyright 2025 The Campaigner Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the contact store and the campaign pipeline
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/reliefops/campaigner/internal/campaign"
	"github.com/reliefops/campaigner/internal/model"
	"github.com/reliefops/campaigner/internal/store"
)

// maxImportBytes bounds a CSV upload.
const maxImportBytes = 8 << 20

// CampaignRunner runs one campaign per request.
type CampaignRunner interface {
	Run(ctx context.Context, req *campaign.Request) (*campaign.Result, error)
}

// Server routes the HTTP API.
type Server struct {
	store  *store.Store
	runner CampaignRunner
	log    *zap.Logger
	router *mux.Router
}

// New creates a Server over the store and campaign runner.
func New(st *store.Store, runner CampaignRunner, lg *zap.Logger) *Server {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &Server{store: st, runner: runner, log: lg, router: mux.NewRouter()}

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/contacts/", s.createContact).Methods(http.MethodPost)
	s.router.HandleFunc("/contacts/", s.listContacts).Methods(http.MethodGet)
	s.router.HandleFunc("/contacts/import", s.importContacts).Methods(http.MethodPost)
	s.router.HandleFunc("/contacts/{id:[0-9]+}", s.getContact).Methods(http.MethodGet)
	s.router.HandleFunc("/campaign/trigger/", s.triggerCampaign).Methods(http.MethodPost)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// contactRequest is the create-contact payload.
type contactRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	contact, err := s.store.Create(r.Context(), store.Contact{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	switch {
	case errors.Is(err, store.ErrDuplicateAddress), errors.Is(err, store.ErrNoAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.Error("create contact failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusCreated, contact)
	}
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact id")
		return
	}

	contact, err := s.store.Get(r.Context(), uint(id))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Contact not found")
	case err != nil:
		s.log.Error("get contact failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, contact)
	}
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list contacts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if contacts == nil {
		contacts = []store.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// importContacts accepts the CSV either as a multipart "file" field or
// as the raw request body.
func (s *Server) importContacts(w http.ResponseWriter, r *http.Request) {
	var src io.Reader = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart upload requires a \"file\" field")
			return
		}
		defer file.Close()
		src = file
	}

	report, err := s.store.ImportCSV(r.Context(), src)
	if err != nil {
		s.log.Error("csv import failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) triggerCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaign.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.runner.Run(r.Context(), &req)
	switch {
	case errors.Is(err, model.ErrUnavailable):
		// The pipeline could not research or draft; the result still
		// carries the failure details for the caller.
		if res != nil {
			writeJSON(w, http.StatusServiceUnavailable, res)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "LLM service is not available. Cannot generate campaign content.")
	case err != nil:
		s.log.Error("campaign trigger failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError mirrors the {"detail": ...} error shape of the original
// deployment so existing clients keep working.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
