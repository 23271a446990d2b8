package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/performia-monitor/internal/api"
	"github.com/yok-tottii/performia-monitor/internal/audio"
	"github.com/yok-tottii/performia-monitor/internal/config"
	"github.com/yok-tottii/performia-monitor/internal/engine"
	"github.com/yok-tottii/performia-monitor/internal/hotkey"
	"github.com/yok-tottii/performia-monitor/internal/i18n"
	"github.com/yok-tottii/performia-monitor/internal/logger"
	"github.com/yok-tottii/performia-monitor/internal/meter"
	"github.com/yok-tottii/performia-monitor/internal/notification"
	"github.com/yok-tottii/performia-monitor/internal/permissions"
	"github.com/yok-tottii/performia-monitor/internal/server"
	"github.com/yok-tottii/performia-monitor/internal/tray"
)

const (
	// elsewhereInterval throttles the signal-elsewhere notification
	elsewhereInterval = 30 * time.Second
	// deviceCheckTicks is how many meter ticks pass between checks for
	// device changes that need the menus rebuilt
	deviceCheckTicks = 30
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitor (default)",

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVarP(&argHeadless, "headless", "", false, "Run without the tray icon and hotkey")
	rootCmd.AddCommand(runCmd)
}

// App holds all application state
type App struct {
	logger     *logger.Logger
	config     *config.Config
	translator *i18n.Translator
	notifier   *notification.NotificationManager

	driver     *audio.PortAudioDriver
	engine     *engine.Engine
	levels     *meter.Loop
	httpServer *server.Server
	apiHandler *api.Handler
	hotkeyMgr  *hotkey.Manager
	trayMgr    *tray.Manager

	ctx      context.Context
	cancel   context.CancelFunc
	quitOnce sync.Once

	// touched only from the meter loop
	ticks         int
	lastElsewhere time.Time
	lastDevice    deviceKey
}

// deviceKey identifies a device configuration for menu rebuilds
type deviceKey struct {
	name     string
	inputs   int
	selected int
}

func runMonitor(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.logger.Close()

	app.logger.Info("Performia Monitor v%s starting", version)

	if err := app.startAudio(); err != nil {
		app.shutdown()
		return err
	}
	app.startServer()

	if argHeadless {
		app.logger.Info("Running headless, tray and hotkey disabled")
		app.waitForSignal()
		<-app.ctx.Done()
		app.shutdown()
		return nil
	}

	app.trayMgr = tray.NewManager(tray.Config{
		Translator:     app.translator,
		OnReady:        app.onTrayReady,
		OnPower:        app.handlePower,
		OnMode:         app.handleMode,
		OnInputDevice:  func(name string) { app.handleDevice(name, true) },
		OnOutputDevice: func(name string) { app.handleDevice(name, false) },
		OnChannel:      app.handleChannel,
		OnRefresh:      app.handleRefresh,
		OnQuit:         app.shutdown,
	})

	// systray.Run() is a blocking call
	app.trayMgr.Run()
	app.shutdown()
	return nil
}

// newApp loads the configuration and builds the logger, translator and
// notifier.
func newApp(parent context.Context) (*App, error) {
	configPath := argConfig
	if configPath == "" {
		configPath = config.GetConfigPath()
	} else {
		expanded, err := config.ExpandPath(configPath)
		if err != nil {
			return nil, err
		}
		configPath = expanded
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", configPath, err)
	}

	logConfig := logger.DefaultConfig()
	logConfig.Level, err = logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if argVerbose {
		logConfig.Level = logger.DEBUG
		logConfig.Console = os.Stderr
	}
	log, err := logger.New(logConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Info("Loaded configuration from %s", configPath)

	translator := i18n.NewDefault(i18n.Resolve(cfg.UILanguage))

	ctx, cancel := context.WithCancel(parent)
	return &App{
		logger:     log,
		config:     cfg,
		translator: translator,
		notifier:   notification.NewNotificationManager(tray.AppName, translator),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// engineConfig maps the configuration file onto the engine
func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.Stream.InputDevice = cfg.InputDevice
	ec.Stream.OutputDevice = cfg.OutputDevice
	ec.Stream.SampleRate = cfg.SampleRate
	ec.Stream.FramesPerBuffer = cfg.FramesPerBuffer
	ec.InputChannel = cfg.InputChannel
	return ec
}

// applyControls copies the startup control values to the engine
func applyControls(c *engine.Controls, cfg *config.Config) {
	c.SetInputGain(cfg.InputGain)
	c.SetOutputVolume(cfg.OutputVolume)
	c.SetTestFrequency(cfg.TestFrequency)
}

// startAudio opens the device, starts the stream and the meter loop
func (a *App) startAudio() error {
	checker := permissions.NewPermissionChecker()
	if checker.IsMicrophoneAuthorized() {
		a.logger.Info("Microphone permission: %s", checker.CheckMicrophonePermission())
	} else {
		a.logger.Warn("%s", checker.GetMissingPermissionsMessage(a.translator))
		a.notify(a.notifier.MicrophonePermissionDenied())
	}

	var err error
	a.driver, err = audio.NewPortAudioDriver()
	if err != nil {
		a.notify(a.notifier.AudioInitFailed(err.Error()))
		return err
	}

	a.engine = engine.New(a.driver, engineConfig(a.config), a.logger)
	applyControls(a.engine.Controls, a.config)

	if _, err := a.engine.Open(a.ctx); err != nil {
		a.logger.Error("Failed to open audio device: %v", err)
		a.notify(a.notifier.AudioInitFailed(err.Error()))
		return err
	}

	if err := a.engine.Start(); err != nil {
		a.logger.Error("Failed to start audio: %v", err)
		a.notify(a.notifier.AudioInitFailed(err.Error()))
		return err
	}
	go a.engine.Watch(a.ctx, a.driver.Events())

	a.levels = meter.NewLoop(a.engine, a.config.MeterInterval())
	a.levels.OnTick(a.onTick)
	go a.levels.Run(a.ctx)

	return nil
}

// startServer starts the control API. Failure leaves the monitor usable
// from the tray.
func (a *App) startServer() {
	serverConfig := server.DefaultConfig()
	serverConfig.Port = a.config.HTTPPort
	a.httpServer = server.New(serverConfig, a.logger)

	a.apiHandler = api.New(a.engine, a.levels, a.logger)
	a.apiHandler.OnChange(func() {
		a.refreshView()
		a.refreshMenus()
	})
	a.apiHandler.RegisterRoutes(a.httpServer.Mux())

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("Failed to start HTTP server: %v", err)
		return
	}
	fmt.Printf("Control API: %s/api/status\n", a.httpServer.URL())
}

// onTrayReady finishes startup once the tray owns the main loop
func (a *App) onTrayReady() {
	a.refreshView()
	a.refreshMenus()
	a.registerHotkey()
	a.waitForSignal()

	fmt.Println("Performia Monitor is running. Quit from the tray menu or press Ctrl+C.")
}

func (a *App) registerHotkey() {
	hkConfig, err := hotkey.ConfigFrom(a.config.Hotkey)
	if err != nil {
		a.logger.Error("Invalid hotkey configuration: %v", err)
		return
	}

	formatted := hotkey.FormatHotkey(hkConfig.Modifiers, hkConfig.Key)
	for _, c := range hotkey.CheckConflicts(hkConfig.Modifiers, hkConfig.Key) {
		a.logger.Warn("Hotkey %s conflicts with %s: %s", formatted, c.Name, c.Description)
	}

	a.hotkeyMgr = hotkey.New()
	if err := a.hotkeyMgr.Register(hkConfig); err != nil {
		a.logger.Error("Failed to register hotkey: %v", err)
		return
	}
	a.logger.Info("Test tone hotkey: %s", formatted)

	go hotkey.DriveTestTone(a.ctx, a.hotkeyMgr.Events(), a.engine, a.refreshView)
}

// waitForSignal quits on SIGINT or SIGTERM
func (a *App) waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			a.logger.Info("Received termination signal")
			a.shutdown()
			if a.trayMgr != nil {
				a.trayMgr.Quit()
			}
		case <-a.ctx.Done():
		}
	}()
}

// onTick runs on the meter loop after every tick
func (a *App) onTick(levels meter.Snapshot) {
	if a.engine.ReportFallbacks() > 0 && time.Since(a.lastElsewhere) > elsewhereInterval {
		a.lastElsewhere = time.Now()
		channel := a.engine.SelectedInputChannel()
		go func() { a.notify(a.notifier.SignalElsewhere(channel)) }()
	}

	if a.trayMgr == nil {
		return
	}
	a.trayMgr.Update(a.view(levels))

	a.ticks++
	if a.ticks%deviceCheckTicks != 0 {
		return
	}
	info := a.engine.DeviceInfo()
	key := deviceKey{name: info.Name, inputs: info.InputChannelCount, selected: info.SelectedChannel}
	if key != a.lastDevice {
		a.lastDevice = key
		a.refreshMenus()
	}
}

func (a *App) view(levels meter.Snapshot) tray.View {
	return tray.View{
		Power:     a.engine.Power(),
		Mode:      a.engine.Mode(),
		Frequency: a.engine.TestFrequency(),
		Channel:   a.engine.SelectedInputChannel(),
		Levels:    levels,
	}
}

// refreshView pushes the control state to the tray outside the meter tick
func (a *App) refreshView() {
	if a.trayMgr == nil {
		return
	}
	a.trayMgr.Update(a.view(a.levels.Snapshot()))
}

// refreshMenus rebuilds the device and channel submenus
func (a *App) refreshMenus() {
	if a.trayMgr == nil {
		return
	}

	devices, err := a.engine.ListDevices()
	if err != nil {
		a.logger.Warn("Failed to list devices: %v", err)
	}
	current := a.engine.DeviceInfo().Name
	inputs, outputs := trayDevices(devices, current)
	a.trayMgr.SetInputDevices(inputs)
	a.trayMgr.SetOutputDevices(outputs)
	a.trayMgr.SetChannels(a.engine.InputChannels(), a.engine.SelectedInputChannel())
}

// trayDevices splits host devices into input and output menu entries.
// current is the name of the open device, which may be a duplex name.
func trayDevices(devices []audio.Device, current string) (inputs, outputs []tray.Device) {
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, tray.Device{
				Name:      d.Name,
				IsDefault: d.IsDefaultInput,
				IsCurrent: d.Name == current,
			})
		}
		if d.MaxOutputChannels > 0 {
			outputs = append(outputs, tray.Device{
				Name:      d.Name,
				IsDefault: d.IsDefaultOutput,
				IsCurrent: d.Name == current,
			})
		}
	}
	return inputs, outputs
}

func (a *App) handlePower(on bool) {
	a.engine.SetPower(on)
	a.logger.Info("Power %v", on)
	a.refreshView()
}

func (a *App) handleMode(mode engine.Mode) {
	if !a.engine.SetMode(mode) {
		a.logger.Debug("Mode %s ignored while powered off", mode)
		return
	}
	a.logger.Info("Mode %s", mode)
	a.refreshView()
}

func (a *App) handleChannel(logical int) {
	if !a.engine.SelectInputChannel(logical) {
		a.logger.Warn("Input channel %d is not active", logical)
	}
	a.refreshView()
	a.refreshMenus()
}

// handleDevice switches devices off the tray's event goroutine
func (a *App) handleDevice(name string, isInput bool) {
	go func() {
		status, err := a.engine.SelectDevice(a.ctx, name, isInput)
		switch {
		case err != nil:
			a.notify(a.notifier.DeviceFailed(name))
		case engine.IsFallbackStatus(status):
			a.notify(a.notifier.DeviceFallback(name))
		default:
			a.notify(a.notifier.DeviceSelected(a.engine.DeviceInfo().Name))
		}
		a.refreshView()
		a.refreshMenus()
	}()
}

func (a *App) handleRefresh() {
	go func() {
		if _, err := a.engine.Refresh(a.ctx); err != nil {
			a.logger.Error("Failed to refresh devices: %v", err)
			a.notify(a.notifier.AudioInitFailed(err.Error()))
			return
		}
		a.notify(a.notifier.DevicesRefreshed())
		a.refreshMenus()
	}()
}

// notify logs notifications the desktop could not show
func (a *App) notify(err error) {
	if err != nil {
		a.logger.Debug("Notification not shown: %v", err)
	}
}

// shutdown stops every component once; later calls are no-ops
func (a *App) shutdown() {
	a.quitOnce.Do(func() {
		a.logger.Info("Shutting down")
		a.cancel()

		if a.hotkeyMgr != nil {
			if err := a.hotkeyMgr.Close(); err != nil {
				a.logger.Warn("Failed to unregister hotkey: %v", err)
			}
		}
		if a.httpServer != nil {
			if err := a.httpServer.Stop(); err != nil {
				a.logger.Warn("Failed to stop HTTP server: %v", err)
			}
		}
		if a.engine != nil {
			if err := a.engine.Shutdown(); err != nil {
				a.logger.Warn("Failed to stop audio: %v", err)
			}
		}
		if a.driver != nil {
			if err := a.driver.Close(); err != nil {
				a.logger.Warn("Failed to close audio driver: %v", err)
			}
		}
	})
}
