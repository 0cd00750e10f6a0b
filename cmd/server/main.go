package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bubblekit/bubblekit"
	"github.com/bubblekit/bubblekit/internal/config"
	"github.com/bubblekit/bubblekit/internal/logger"
	"github.com/bubblekit/bubblekit/internal/metrics"
	"github.com/bubblekit/bubblekit/server"
)

// Demo server: greets new conversations and echoes messages back with a
// character-by-character stream, exercising config patches along the way.
func main() {
	cfg := config.Load()
	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))
	gin.SetMode(cfg.GinMode)

	rt := bubblekit.New(log)
	registerHandlers(rt)

	m := metrics.New()
	ctrl := bubblekit.NewController(rt, bubblekit.ControllerConfig{
		Heartbeat:         time.Duration(cfg.HeartbeatSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
		FirstEventTimeout: time.Duration(cfg.FirstEventTimeoutSeconds) * time.Second,
		SinkBuffer:        cfg.SinkBufferSize,
	}, log, m)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(rt, ctrl, cfg, log, m).Router(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}

func registerHandlers(rt *bubblekit.Runtime) {
	rt.OnNewChat(func(c *bubblekit.Context) error {
		bubble, err := c.Bubble(bubblekit.WithName("Assistant"))
		if err != nil {
			return err
		}
		bubble.Set("Hello! Send a message and I will echo it back.")
		bubble.Done()
		return nil
	})

	rt.OnMessage(func(c *bubblekit.Context) error {
		// Echo the message into the user's own column first.
		user, err := c.Bubble(bubblekit.WithRole("user"))
		if err != nil {
			return err
		}
		user.Set(c.Message())
		user.Done()

		reply, err := c.Bubble(
			bubblekit.WithName("Echo"),
			bubblekit.WithHeaderBgColor("#4f46e5"),
			bubblekit.WithHeaderTextColor("#ffffff"),
		)
		if err != nil {
			return err
		}
		for i, r := range c.Message() {
			reply.Stream(string(r))
			if i%10 == 9 {
				if err := reply.Config(bubblekit.WithName(fmt.Sprintf("Echo %d", i+1))); err != nil {
					return err
				}
			}
			time.Sleep(30 * time.Millisecond)
		}
		reply.Done()
		return nil
	})

	rt.OnHistory(func(c *bubblekit.Context) ([]bubblekit.Record, error) {
		// No persistence in the demo; fall back to the live session.
		return nil, nil
	})
}
