package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	shutdownTimeout     = 30 * time.Second

	// gracefulEnv marks a child started by SIGUSR2; it inherits the
	// listener as fd 3.
	gracefulEnv      = "CAPTCHA_GRACEFUL"
	gracefulEnvValue = gracefulEnv + "=1"
	gracefulFD       = 3
)

// Server wraps http.Server with signal driven shutdown (SIGTERM, SIGINT)
// and zero-downtime restart (SIGUSR2).
type Server struct {
	*http.Server

	listener   net.Listener
	inherited  bool
	signals    chan os.Signal
	done       chan struct{}
	onShutdown []func()
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		inherited: os.Getenv(gracefulEnv) != "",
		signals:   make(chan os.Signal, 1),
		done:      make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server has drained.
func (srv *Server) OnShutdown(fn func()) {
	srv.onShutdown = append(srv.onShutdown, fn)
}

// ListenAndServe serves until a shutdown signal has been fully handled.
func (srv *Server) ListenAndServe() error {
	ln, err := srv.listen()
	if err != nil {
		return err
	}
	srv.listener = ln

	signal.Notify(srv.signals, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR2)
	go srv.handleSignals()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-srv.done
		return nil
	}
	signal.Stop(srv.signals)
	return err
}

func (srv *Server) listen() (net.Listener, error) {
	if srv.inherited {
		ln, err := net.FileListener(os.NewFile(gracefulFD, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	for sig := range srv.signals {
		switch sig {
		case syscall.SIGTERM, syscall.SIGINT:
			Logger.Info("shutting down HTTP server", zap.String("signal", sig.String()))
			srv.shutdown()
			return
		case syscall.SIGUSR2:
			pid, err := srv.fork()
			if err != nil {
				Logger.Error("graceful restart failed, continuing to serve", zap.Error(err))
				continue
			}
			Logger.Info("graceful restart: new process started, draining old one", zap.Int("pid", pid))
			srv.shutdown()
			return
		}
	}
}

func (srv *Server) shutdown() {
	signal.Stop(srv.signals)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	for _, fn := range srv.onShutdown {
		fn()
	}
	close(srv.done)
}

// fork starts a copy of this binary that inherits the listening socket.
func (srv *Server) fork() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not *net.TCPListener")
	}
	f, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer f.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			env = append(env, e)
		}
	}
	env = append(env, gracefulEnvValue)

	return syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), f.Fd()},
	})
}
