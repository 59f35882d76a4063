package daemon

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsdiet/internal/api"
	"newsdiet/internal/logging"
	"newsdiet/internal/services"
)

const maxImportBytes = 1 << 20

type handlers struct {
	daemon *Daemon
	logger *slog.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:    "ok",
		Timestamp: api.FormatTime(time.Now()),
	})
}

func (h *handlers) status(c *gin.Context) {
	status, err := h.daemon.Status(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handlers) listArticles(c *gin.Context) {
	var query api.ArticleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, err)
		return
	}
	articles, err := h.daemon.Service().ListArticles(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (h *handlers) getArticle(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	article, err := h.daemon.Service().GetArticle(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *handlers) markRead(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req api.ReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	article, err := h.daemon.Service().MarkRead(c.Request.Context(), id, *req.IsRead)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *handlers) setStarred(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req api.StarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	article, err := h.daemon.Service().SetStarred(c.Request.Context(), id, *req.IsStarred)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *handlers) clearArticles(c *gin.Context) {
	removed, err := h.daemon.Service().ClearArticles(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, removed)
}

func (h *handlers) reprocess(c *gin.Context) {
	var req api.ReprocessRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.badRequest(c, err)
			return
		}
	}
	started, err := h.daemon.Reprocess(req.FeedID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, started)
}

func (h *handlers) refresh(c *gin.Context) {
	c.JSON(http.StatusAccepted, h.daemon.Refresh())
}

func (h *handlers) prune(c *gin.Context) {
	report, err := h.daemon.Prune(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) testNotification(c *gin.Context) {
	sent, detail, err := h.daemon.TestNotification(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.StartedResponse{Started: sent, Detail: detail})
}

func (h *handlers) listFeeds(c *gin.Context) {
	feeds, err := h.daemon.Service().ListFeeds(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, feeds)
}

func (h *handlers) addFeed(c *gin.Context) {
	var req api.CreateFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	feed, err := h.daemon.Service().AddFeed(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, feed)
}

// importFeeds accepts a YAML feed list as the raw request body.
func (h *handlers) importFeeds(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	entries, err := api.ParseFeedList(data)
	if err != nil {
		h.fail(c, err)
		return
	}
	report, err := h.daemon.Service().ImportFeeds(c.Request.Context(), entries)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) updateFeed(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req api.UpdateFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	feed, err := h.daemon.Service().UpdateFeed(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *handlers) removeFeed(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	removed, err := h.daemon.Service().RemoveFeed(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, removed)
}

func (h *handlers) getPreferences(c *gin.Context) {
	prefs, err := h.daemon.Service().Preferences(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *handlers) setPreferences(c *gin.Context) {
	var req api.Preferences
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	prefs, err := h.daemon.Service().SetPreferences(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *handlers) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
}

// fail answers with the status mapped from err. Server-side failures are
// logged; client mistakes are not.
func (h *handlers) fail(c *gin.Context, err error) {
	code := api.StatusCode(err)
	if code >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), h.logger), "api request failed", "api_request_failed",
			logging.String("path", c.FullPath()),
			logging.String("error_kind", services.FailureKind(err)),
			logging.Error(err),
		)
	}
	c.AbortWithStatusJSON(code, api.ErrorResponse{Error: err.Error()})
}
