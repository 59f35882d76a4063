package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"newsdiet/internal/api"
	"newsdiet/internal/daemon"
	"newsdiet/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI commands may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale socket may confuse the next CLI call"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.daemon.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.DaemonStatus = status
	return nil
}

func (s *service) Refresh(_ RefreshRequest, resp *RefreshResponse) error {
	*resp = s.daemon.Refresh()
	return nil
}

func (s *service) Reprocess(req ReprocessRequest, resp *ReprocessResponse) error {
	started, err := s.daemon.Reprocess(req.FeedID)
	if err != nil {
		return err
	}
	*resp = started
	return nil
}

func (s *service) Prune(_ PruneRequest, resp *PruneResponse) error {
	report, err := s.daemon.Prune(s.ctx)
	if err != nil {
		return err
	}
	*resp = report
	s.logger.Info("articles pruned via IPC",
		logging.String(logging.FieldEventType, "prune"),
		logging.Int64("removed_count", report.Removed),
	)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) ArticleList(req ArticleListRequest, resp *ArticleListResponse) error {
	articles, err := s.daemon.Service().ListArticles(s.ctx, req)
	if err != nil {
		return err
	}
	resp.Articles = articles
	return nil
}

func (s *service) ArticleRead(req ArticleFlagRequest, resp *ArticleResponse) error {
	article, err := s.daemon.Service().MarkRead(s.ctx, req.ID, req.Value)
	if err != nil {
		return err
	}
	resp.Article = article
	return nil
}

func (s *service) ArticleStar(req ArticleFlagRequest, resp *ArticleResponse) error {
	article, err := s.daemon.Service().SetStarred(s.ctx, req.ID, req.Value)
	if err != nil {
		return err
	}
	resp.Article = article
	return nil
}

func (s *service) ArticleClear(_ ArticleClearRequest, resp *RemovedResponse) error {
	removed, err := s.daemon.Service().ClearArticles(s.ctx)
	if err != nil {
		return err
	}
	*resp = removed
	s.logger.Info("articles cleared via IPC",
		logging.String(logging.FieldEventType, "articles_clear"),
		logging.Int64("removed_count", removed.Removed),
	)
	return nil
}

func (s *service) FeedList(_ FeedListRequest, resp *FeedListResponse) error {
	feeds, err := s.daemon.Service().ListFeeds(s.ctx)
	if err != nil {
		return err
	}
	resp.Feeds = feeds
	return nil
}

func (s *service) FeedAdd(req FeedAddRequest, resp *FeedResponse) error {
	feed, err := s.daemon.Service().AddFeed(s.ctx, req)
	if err != nil {
		return err
	}
	resp.Feed = feed
	return nil
}

func (s *service) FeedUpdate(req FeedUpdateRequest, resp *FeedResponse) error {
	feed, err := s.daemon.Service().UpdateFeed(s.ctx, req.ID, req.UpdateFeedRequest)
	if err != nil {
		return err
	}
	resp.Feed = feed
	return nil
}

func (s *service) FeedRemove(req FeedRemoveRequest, resp *RemovedResponse) error {
	removed, err := s.daemon.Service().RemoveFeed(s.ctx, req.ID)
	if err != nil {
		return err
	}
	*resp = removed
	return nil
}

func (s *service) FeedImport(req FeedImportRequest, resp *FeedImportResponse) error {
	report, err := s.daemon.Service().ImportFeeds(s.ctx, req.Entries)
	*resp = report
	return err
}

func (s *service) Preferences(_ PreferencesRequest, resp *PreferencesResponse) error {
	prefs, err := s.daemon.Service().Preferences(s.ctx)
	if err != nil {
		return err
	}
	*resp = prefs
	return nil
}

func (s *service) SetPreferences(req api.Preferences, resp *PreferencesResponse) error {
	prefs, err := s.daemon.Service().SetPreferences(s.ctx, req)
	if err != nil {
		return err
	}
	*resp = prefs
	return nil
}
