/*
Showroom loads the scene described by a TOML manifest, shows a progress
bar while the assets stream in and renders the result.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/showroom/engine"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/testbed"
)

func main() {
	configPath := flag.String("config", "scene.toml", "scene manifest to load")
	headless := flag.Bool("headless", false, "render without a window")
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 = no limit)")
	exitWhenLoaded := flag.Bool("exit-when-loaded", false, "stop once every asset has loaded or failed")
	logLevel := flag.String("log-level", "", "override the manifest's log level")
	flag.Parse()

	config, err := engine.LoadApplicationConfig(*configPath)
	if err != nil {
		core.LogFatal("failed to load %s: %s", *configPath, err)
	}
	// flags only override what was set explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "headless":
			config.Headless = *headless
		case "frames":
			config.FrameLimit = *frames
		case "exit-when-loaded":
			config.ExitWhenLoaded = *exitWhenLoaded
		case "log-level":
			config.LogLevel = *logLevel
		}
	})

	game := testbed.NewShowroomGame(config, os.Stdout)

	e, err := engine.New(game.Game)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("%s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		// capture sigterm and other system call here
		sig := <-sigCh
		core.LogInfo("received %s, stopping", sig)
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("%s", err)
	}
	if runErr != nil {
		core.LogFatal("%s", runErr)
	}
}
