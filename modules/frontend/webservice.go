package frontend

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/persistence"
	"github.com/lkarlslund/stixgraph/modules/ui"
)

type optionsetter func(ws *WebService) error

type WebService struct {
	engine *gin.Engine
	Router *gin.RouterGroup
	API    *gin.RouterGroup

	srv      http.Server
	protocol string

	db     *persistence.Database
	data   *collection.Collection
	status WebServiceStatus
	mutex  sync.RWMutex
}

func NewWebservice(options ...optionsetter) (*WebService, error) {
	gin.SetMode(gin.ReleaseMode) // Has to happen first
	ws := &WebService{
		engine:   gin.New(),
		protocol: "http",
	}
	ws.engine.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		logger := ui.Debug()
		switch {
		case c.Writer.Status() >= 500:
			logger = ui.Error()
		case c.Writer.Status() >= 400:
			logger = ui.Warn()
		}
		if anchor := c.Param("id"); anchor != "" {
			logger = logger.Str("anchor", anchor)
		}
		logger.Any("status", c.Writer.Status()).Any("duration", time.Since(start)).Msgf("%s %s, %v bytes", c.Request.Method, path, c.Writer.Size())
	})
	ws.engine.Use(gin.Recovery())
	ws.Router = ws.engine.Group("")
	ws.API = ws.Router.Group("/api")
	ws.API.Use(func(ctx *gin.Context) {
		ctx.Header(`Cache-Control`, `no-cache, no-store, no-transform, must-revalidate, private, max-age=0`)
		ctx.Next()
	})

	for _, option := range options {
		if err := option(ws); err != nil {
			return nil, err
		}
	}

	AddAPIEndpoints(ws)
	if ws.db != nil {
		AddQueryEndpoints(ws)
	}
	return ws, nil
}

// SetData swaps in a new collection and marks the service ready
func (ws *WebService) SetData(c *collection.Collection) {
	ws.mutex.Lock()
	ws.data = c
	ws.status = Ready
	ws.mutex.Unlock()
}

func (ws *WebService) SetStatus(status WebServiceStatus) {
	ws.mutex.Lock()
	ws.status = status
	ws.mutex.Unlock()
}

func (ws *WebService) Status() WebServiceStatus {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()
	return ws.status
}

func (ws *WebService) Data() *collection.Collection {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()
	return ws.data
}

func (ws *WebService) Handler() http.Handler {
	return ws.engine
}

// Run listens on bind until ctx is cancelled
func (ws *WebService) Run(ctx context.Context, bind string) error {
	ws.srv.Addr = bind
	ws.srv.Handler = ws.engine

	conn, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	served := make(chan error, 1)
	go func() {
		if ws.protocol == "https" {
			served <- ws.srv.ServeTLS(conn, "", "")
		} else {
			served <- ws.srv.Serve(conn)
		}
	}()
	ui.Info().Msgf("stixgraph web service listening at %v://%v/ ... (ctrl-c or similar to quit)", ws.protocol, conn.Addr())

	select {
	case err = <-served:
	case <-ctx.Done():
		shutdownctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = ws.srv.Shutdown(shutdownctx)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
