package server

import (
	"net/http"
	"strings"

	"contentforge/internal/core"
	"contentforge/internal/llm"
	"contentforge/internal/store"

	"github.com/go-chi/chi/v5"
)

const defaultLinkLimit = 20

// handleTestKeys probes the supplied keys, falling back to saved ones.
func (s *Server) handleTestKeys(w http.ResponseWriter, r *http.Request) {
	var body apiKeys
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	results := s.articles.TestKeys(r.Context(), llm.Keys{Gemini: body.Gemini, OpenRouter: body.OpenRouter})
	s.respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

type settingBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.articles.Library().ListSettings(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	for k, v := range all {
		all[k] = store.DisplayValue(k, v)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"settings": all})
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := s.articles.Library().GetSetting(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, settingBody{Key: key, Value: store.DisplayValue(key, value)})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var body settingBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if key == "" {
		s.respondError(w, r, core.NewValidationError("key", "is required"))
		return
	}

	if err := s.articles.Library().SetSetting(r.Context(), key, body.Value); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, settingBody{Key: key, Value: store.DisplayValue(key, body.Value)})
}

func (s *Server) handleSearchLinks(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultLinkLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	links, err := s.articles.SearchLinks(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if links == nil {
		links = []core.InternalLink{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"links": links, "count": len(links)})
}

func (s *Server) handleImportSitemap(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SitemapURL string `json:"sitemapUrl"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(body.SitemapURL) == "" {
		s.respondError(w, r, core.NewValidationError("sitemapUrl", "is required"))
		return
	}

	res, err := s.articles.ImportSitemap(r.Context(), body.SitemapURL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}
