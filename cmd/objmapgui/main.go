// Command objmapgui opens the objmap UI in a native window. Closing the
// window saves the settings, like closing the browser page does.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	webview "github.com/webview/webview_go"

	"objmap/internal/app"
	"objmap/pkg/config"
	"objmap/pkg/logging"
	"objmap/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	runtime.LockOSThread()

	// Relative config and data paths are resolved next to the binary.
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if err := os.Chdir(filepath.Dir(exe)); err != nil {
		return err
	}

	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	cfg, err := config.Load("configs/objmap.yaml")
	if err != nil {
		return err
	}
	cleanup, err := logging.Init(&cfg.Log)
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// The window always talks to a private loopback port.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	w := webview.New(false)
	defer w.Destroy()
	w.SetTitle(windowTitle())
	w.SetSize(1280, 860, webview.HintNone)

	if err := w.Bind("objmapSave", func() error {
		return a.Settings.Save(context.Background())
	}); err != nil {
		slog.Warn("Failed to bind objmapSave", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var windowClosed atomic.Bool
	served := make(chan error, 1)
	go func() {
		served <- a.Serve(ctx, ln)
		// Server stopped on its own (POST /api/shutdown): close the window too.
		if !windowClosed.Load() {
			w.Dispatch(w.Terminate)
		}
	}()

	w.Navigate("http://" + ln.Addr().String())
	w.Run()

	windowClosed.Store(true)
	slog.Info("Window closed")
	cancel()
	return <-served
}

func windowTitle() string {
	return "objmap " + version.Version
}
