package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"newsdiet/internal/api"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh starts an ingestion cycle unless one is running.
func (c *Client) Refresh() (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.call("Refresh", RefreshRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reprocess re-scores stored articles of feedID, or all when zero.
func (c *Client) Reprocess(feedID int64) (*ReprocessResponse, error) {
	var resp ReprocessResponse
	if err := c.call("Reprocess", ReprocessRequest{FeedID: feedID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Prune removes old unstarred articles.
func (c *Client) Prune() (*PruneResponse, error) {
	var resp PruneResponse
	if err := c.call("Prune", PruneRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ArticleList returns articles matching query.
func (c *Client) ArticleList(query api.ArticleQuery) ([]api.Article, error) {
	var resp ArticleListResponse
	if err := c.call("ArticleList", query, &resp); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// ArticleRead sets the read flag.
func (c *Client) ArticleRead(id int64, read bool) (api.Article, error) {
	var resp ArticleResponse
	err := c.call("ArticleRead", ArticleFlagRequest{ID: id, Value: read}, &resp)
	return resp.Article, err
}

// ArticleStar sets the starred flag.
func (c *Client) ArticleStar(id int64, starred bool) (api.Article, error) {
	var resp ArticleResponse
	err := c.call("ArticleStar", ArticleFlagRequest{ID: id, Value: starred}, &resp)
	return resp.Article, err
}

// ArticleClear removes every article.
func (c *Client) ArticleClear() (int64, error) {
	var resp RemovedResponse
	err := c.call("ArticleClear", ArticleClearRequest{}, &resp)
	return resp.Removed, err
}

// FeedList returns registered feeds.
func (c *Client) FeedList() ([]api.Feed, error) {
	var resp FeedListResponse
	if err := c.call("FeedList", FeedListRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Feeds, nil
}

// FeedAdd registers a feed.
func (c *Client) FeedAdd(req api.CreateFeedRequest) (api.Feed, error) {
	var resp FeedResponse
	err := c.call("FeedAdd", req, &resp)
	return resp.Feed, err
}

// FeedUpdate renames or toggles a feed.
func (c *Client) FeedUpdate(id int64, req api.UpdateFeedRequest) (api.Feed, error) {
	var resp FeedResponse
	err := c.call("FeedUpdate", FeedUpdateRequest{ID: id, UpdateFeedRequest: req}, &resp)
	return resp.Feed, err
}

// FeedRemove removes a feed and reports how many articles went with it.
func (c *Client) FeedRemove(id int64) (int64, error) {
	var resp RemovedResponse
	err := c.call("FeedRemove", FeedRemoveRequest{ID: id}, &resp)
	return resp.Removed, err
}

// FeedImport registers parsed feed list entries.
func (c *Client) FeedImport(entries []api.CreateFeedRequest) (api.ImportReport, error) {
	var resp FeedImportResponse
	err := c.call("FeedImport", FeedImportRequest{Entries: entries}, &resp)
	return resp, err
}

// Preferences returns stored preferences.
func (c *Client) Preferences() (api.Preferences, error) {
	var resp PreferencesResponse
	err := c.call("Preferences", PreferencesRequest{}, &resp)
	return resp, err
}

// SetPreferences replaces stored preferences.
func (c *Client) SetPreferences(prefs api.Preferences) (api.Preferences, error) {
	var resp PreferencesResponse
	err := c.call("SetPreferences", prefs, &resp)
	return resp, err
}
