package fakeserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/srtctl/internal/model"
	"github.com/ppiankov/srtctl/internal/search"
)

// GetDictionary serves GET /dictionaries/{kind} and GET /dictionaries/search.
func (s *Server) GetDictionary(c *gin.Context) {
	name := c.Param("kind")
	if name == "search" {
		s.Search(c)
		return
	}
	kind, err := model.ParseKind(name)
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid dictionary type")
		return
	}
	c.JSON(http.StatusOK, s.Dictionary(kind))
}

// PostDictionary serves POST /dictionaries/{kind} and POST /dictionaries/update-term.
func (s *Server) PostDictionary(c *gin.Context) {
	name := c.Param("kind")
	if name == "update-term" {
		s.UpdateTerm(c)
		return
	}
	kind, err := model.ParseKind(name)
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid dictionary type")
		return
	}

	var body struct {
		PIN        string            `json:"pin"`
		Dictionary map[string]string `json:"dictionary"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.PIN != s.opts.PIN {
		abort(c, http.StatusForbidden, "Invalid PIN code")
		return
	}

	d := model.Dictionary{}
	for k, v := range body.Dictionary {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		if kind == model.KindProtection {
			v = ""
		}
		d[k] = v
	}

	s.mu.Lock()
	s.dicts[kind] = d
	s.writes++
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("%s dictionary updated", cases.Title(language.English).String(string(kind))),
		"count":   len(d),
	})
}

// UpdateTerm applies one add, update or delete. Add and update both set the term.
func (s *Server) UpdateTerm(c *gin.Context) {
	var body model.TermMutation
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.PIN != s.opts.PIN {
		abort(c, http.StatusForbidden, "Invalid PIN code")
		return
	}
	if body.Kind == "" || body.Term == "" || body.Action == "" {
		abort(c, http.StatusBadRequest, "Missing required parameters")
		return
	}
	kind, err := model.ParseKind(string(body.Kind))
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid dictionary type")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.dicts[kind]
	switch body.Action {
	case model.ActionAdd, model.ActionUpdate:
		value := body.Value
		if kind == model.KindProtection {
			value = ""
		}
		d[body.Term] = value
	case model.ActionDelete:
		if _, ok := d[body.Term]; !ok {
			abort(c, http.StatusNotFound, "Term not found")
			return
		}
		delete(d, body.Term)
	default:
		abort(c, http.StatusBadRequest, "Invalid action")
		return
	}
	s.writes++

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Term %s successfully", pastTense(body.Action)),
	})
}

// Search serves GET /dictionaries/search?q=&type=.
func (s *Server) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		abort(c, http.StatusBadRequest, "Search query is required")
		return
	}
	scope, err := model.ParseScope(c.DefaultQuery("type", "all"))
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid search type")
		return
	}

	s.mu.Lock()
	res := search.Filter(query, scope, s.dicts[model.KindCorrection], s.dicts[model.KindProtection])
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"query":   query,
		"results": res,
	})
}

func pastTense(a model.Action) string {
	switch a {
	case model.ActionAdd:
		return "added"
	case model.ActionUpdate:
		return "updated"
	default:
		return "deleted"
	}
}
