package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cartoncaps/capper/internal/knowledge"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.knowledge.ListProducts(r.Context())
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	if products == nil {
		products = []knowledge.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := s.knowledge.GetProduct(r.Context(), id)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p knowledge.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		respondError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	created, err := s.knowledge.CreateProduct(r.Context(), p)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p knowledge.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.ID = id
	updated, err := s.knowledge.UpdateProduct(r.Context(), p)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.knowledge.DeleteProduct(r.Context(), id); err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := s.knowledge.ListFAQs(r.Context())
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	if faqs == nil {
		faqs = []knowledge.FAQ{}
	}
	respondJSON(w, http.StatusOK, faqs)
}

func (s *Server) handleGetFAQ(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	faq, err := s.knowledge.GetFAQ(r.Context(), id)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, faq)
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var f knowledge.FAQ
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
		respondError(w, http.StatusBadRequest, "question and answer must not be empty")
		return
	}
	created, err := s.knowledge.CreateFAQ(r.Context(), f)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var f knowledge.FAQ
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	f.ID = id
	updated, err := s.knowledge.UpdateFAQ(r.Context(), f)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.knowledge.DeleteFAQ(r.Context(), id); err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "faq deleted"})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.knowledge.ListRules(r.Context())
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	if rules == nil {
		rules = []knowledge.Rule{}
	}
	respondJSON(w, http.StatusOK, rules)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule knowledge.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(rule.Description) == "" {
		respondError(w, http.StatusBadRequest, "rule must not be empty")
		return
	}
	created, err := s.knowledge.CreateRule(r.Context(), rule)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var rule knowledge.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rule.ID = id
	updated, err := s.knowledge.UpdateRule(r.Context(), rule)
	if err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.knowledge.DeleteRule(r.Context(), id); err != nil {
		respondStoreError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "rule deleted"})
}
