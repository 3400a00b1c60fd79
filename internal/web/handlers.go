package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
)

// searchHandler serves GET <list>/search?search_term= for one searchable type.
// A missing or blank term redirects to the list, as the HTML forms expect.
func (s *Server) searchHandler(entityType, listPath string) gin.HandlerFunc {
	st, ok := storage.LookupSearchableType(entityType)
	if !ok {
		panic("web: unknown searchable type " + entityType)
	}

	return func(c *gin.Context) {
		term := strings.TrimSpace(c.Query("search_term"))
		if term == "" {
			c.Redirect(http.StatusFound, listPath)
			return
		}

		items, total, err := st.Search(c.Request.Context(), s.store, term)
		switch {
		case err == nil:
		case search.IsUnavailable(err):
			c.JSON(http.StatusOK, gin.H{
				"count":            0,
				"data":             []search.Searchable{},
				"search_term":      term,
				"search_available": false,
			})
			return
		case errors.Is(err, search.ErrGatewayCall):
			s.logger.Warn("search failed", "entity_type", entityType, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "search_term": term})
			return
		default:
			s.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":            total,
			"data":             items,
			"search_term":      term,
			"search_available": true,
		})
	}
}

func (s *Server) handleListBreweries(c *gin.Context) {
	areas, err := s.store.ListBreweriesByArea(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

func (s *Server) handleGetBrewery(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := s.store.GetBrewery(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.Serialize())
}

func (s *Server) handleListBeers(c *gin.Context) {
	beers, err := s.store.ListBeers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"beers": beers})
}

type breweryRequest struct {
	Name        string `form:"name" json:"name" binding:"required"`
	Address     string `form:"address" json:"address"`
	Phone       string `form:"phone" json:"phone"`
	WebsiteLink string `form:"website_link" json:"website_link"`
	City        string `form:"city" json:"city" binding:"required"`
	State       string `form:"state" json:"state" binding:"required"`
}

func (s *Server) handleCreateBrewery(c *gin.Context) {
	var req breweryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brewery, err := s.store.CreateBrewery(c.Request.Context(), storage.NewBrewery{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		WebsiteLink: req.WebsiteLink,
		City:        req.City,
		State:       req.State,
	})
	s.respondWrite(c, http.StatusCreated, brewery, err)
}

type beerRequest struct {
	Name        string `form:"name" json:"name" binding:"required"`
	Description string `form:"description" json:"description" binding:"required"`
	BreweryID   uint   `form:"brewery_id" json:"brewery_id" binding:"required"`
	StyleID     uint   `form:"style_id" json:"style_id" binding:"required"`
}

func (s *Server) handleCreateBeer(c *gin.Context) {
	var req beerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	beer, err := s.store.CreateBeer(c.Request.Context(), storage.NewBeer{
		Name:        req.Name,
		Description: req.Description,
		BreweryID:   req.BreweryID,
		StyleID:     req.StyleID,
	})
	s.respondWrite(c, http.StatusCreated, beer, err)
}

func (s *Server) handleListDrinkers(c *gin.Context) {
	drinkers, err := s.store.ListDrinkers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drinkers": drinkers})
}

func (s *Server) handleGetDrinker(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := s.store.GetDrinker(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.Serialize())
}

type drinkerRequest struct {
	Name  string `form:"name" json:"name" binding:"required"`
	City  string `form:"city" json:"city" binding:"required"`
	State string `form:"state" json:"state" binding:"required"`
}

func (s *Server) handleCreateDrinker(c *gin.Context) {
	var req drinkerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := s.store.CreateDrinker(c.Request.Context(), storage.NewDrinker{
		Name:  req.Name,
		City:  req.City,
		State: req.State,
	})
	s.respondWrite(c, http.StatusCreated, serializeDrinker(d), err)
}

type drinkerUpdateRequest struct {
	Name string `form:"name" json:"name" binding:"required"`
}

func (s *Server) handleUpdateDrinker(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req drinkerUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := s.store.UpdateDrinker(c.Request.Context(), id, req.Name)
	s.respondWrite(c, http.StatusOK, serializeDrinker(d), err)
}

func (s *Server) handleDeleteDrinker(c *gin.Context) {
	if c.Request.Method == http.MethodPost && c.PostForm("_method") != http.MethodDelete {
		c.JSON(http.StatusBadRequest, gin.H{"error": "_method=DELETE is required"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	d, err := s.store.DeleteDrinker(c.Request.Context(), id)
	s.respondWrite(c, http.StatusOK, serializeDrinker(d), err)
}

func serializeDrinker(d *storage.Drinker) interface{} {
	if d == nil {
		return nil
	}
	return d.Serialize()
}

// respondWrite reports a write. A write whose index sync failed still
// happened, so it gets the success status plus a warning.
func (s *Server) respondWrite(c *gin.Context, status int, data interface{}, err error) {
	if err != nil && !errors.Is(err, storage.ErrIndexSync) {
		s.respondError(c, err)
		return
	}

	body := gin.H{"success": true, "data": data}
	if err != nil {
		s.logger.Warn("write committed but index is behind", "path", c.FullPath(), "error", err)
		body["warning"] = err.Error()
	}
	c.JSON(status, body)
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}
