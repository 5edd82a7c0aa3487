package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iceymoss/go-newsfeed/internal/engine"
	"github.com/iceymoss/go-newsfeed/internal/provider"
	"github.com/iceymoss/go-newsfeed/pkg/db/objects"
	xerrors "github.com/iceymoss/go-newsfeed/pkg/errors"
	"github.com/iceymoss/go-newsfeed/pkg/xerr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultStatsWindow = 24 * time.Hour

type handlers struct {
	scheduler  JobRunner
	aggregator Aggregator
	feed       Feed
	stats      ProviderStats
	logger     *zap.Logger
}

type pageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

type preferenceRequest struct {
	PreferredSources    []string `json:"preferred_sources" binding:"max=50,dive,max=255"`
	PreferredCategories []string `json:"preferred_categories" binding:"max=50,dive,max=255"`
	PreferredAuthors    []string `json:"preferred_authors" binding:"max=50,dive,max=255"`
}

type searchRequest struct {
	Query   string            `json:"query" binding:"required"`
	Filters map[string]string `json:"filters"`
}

func (h *handlers) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.scheduler.Jobs()})
}

func (h *handlers) runTask(c *gin.Context) {
	name := c.Param("name")
	err := h.scheduler.ManualRun(name)
	switch {
	case errors.Is(err, engine.ErrJobNotFound):
		fail(c, http.StatusNotFound, xerr.ErrResourceNotFound, err)
	case errors.Is(err, engine.ErrJobRunning):
		fail(c, http.StatusConflict, xerr.ErrBadRequest, err)
	case err != nil:
		fail(c, http.StatusInternalServerError, xerrors.CodeOf(err), err)
	default:
		c.JSON(http.StatusAccepted, gin.H{"message": "Triggered", "job": name})
	}
}

func (h *handlers) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.aggregator.Providers()})
}

func (h *handlers) providerStats(c *gin.Context) {
	since := time.Now().Add(-defaultStatsWindow)
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fail(c, http.StatusBadRequest, xerr.ErrInvalidInput, err)
			return
		}
		since = t
	}
	stats, err := h.stats.ProviderStats(c.Request.Context(), since)
	if err != nil {
		fail(c, http.StatusInternalServerError, xerr.DB_ERROR, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats, "since": since.UTC().Format(time.RFC3339)})
}

// fetchProvider 同步抓取单个 provider，请求体里的键值作为查询参数
func (h *handlers) fetchProvider(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.aggregator.Provider(name); !ok {
		fail(c, http.StatusNotFound, xerr.UNKNOWN_PROVIDER, errors.New("provider "+name+" is not registered"))
		return
	}
	params := provider.Params{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			fail(c, http.StatusBadRequest, xerr.REQUEST_PARAM_ERROR, err)
			return
		}
	}
	stored := h.aggregator.FetchFromProvider(c.Request.Context(), name, params)
	c.JSON(http.StatusOK, gin.H{"provider": name, "stored": stored})
}

func (h *handlers) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, xerr.REQUEST_PARAM_ERROR, err)
		return
	}
	stored := h.aggregator.SearchAcrossProviders(c.Request.Context(), req.Query, req.Filters)
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "stored": stored})
}

func (h *handlers) latest(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, xerr.REQUEST_PARAM_ERROR, err)
		return
	}
	page, err := h.feed.Latest(c.Request.Context(), q.Page, q.PerPage)
	if err != nil {
		fail(c, http.StatusInternalServerError, xerr.DB_ERROR, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) userFeed(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, xerr.REQUEST_PARAM_ERROR, err)
		return
	}
	page, err := h.feed.RankFeed(c.Request.Context(), userID, q.Page, q.PerPage)
	if err != nil {
		fail(c, http.StatusInternalServerError, xerr.DB_ERROR, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) getPreference(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	pref, err := h.feed.GetPreference(c.Request.Context(), userID)
	if err != nil {
		fail(c, http.StatusInternalServerError, xerr.DB_ERROR, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pref})
}

func (h *handlers) savePreference(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, xerr.REQUEST_PARAM_ERROR, err)
		return
	}
	pref := &objects.UserPreference{
		UserID:              userID,
		PreferredSources:    nonNil(req.PreferredSources),
		PreferredCategories: nonNil(req.PreferredCategories),
		PreferredAuthors:    nonNil(req.PreferredAuthors),
	}
	if err := h.feed.SavePreference(c.Request.Context(), pref); err != nil {
		fail(c, http.StatusInternalServerError, xerr.DB_ERROR, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pref})
}

func userParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, xerr.ErrInvalidInput, errors.New("invalid user id"))
		return 0, false
	}
	return uint(id), true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// fail 统一错误响应：{"code": 业务码, "error": 信息}
func fail(c *gin.Context, status, code int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"code": code, "error": err.Error()})
}
