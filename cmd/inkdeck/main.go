// Command inkdeck runs the sketch-to-image editor: pen strokes draw, touch
// gestures select, drag and scale, and a drop on the corner trigger hands
// the captured sketch to the generative backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/example/inkdeck/internal/config"
	"github.com/example/inkdeck/internal/genai"
	"github.com/example/inkdeck/internal/notify"
	"github.com/example/inkdeck/internal/theme"
)

var (
	version            = "dev"
	configPathOverride = ""
)

type root struct {
	fs       *flag.FlagSet
	program  string
	config   *config.Config
	notifier *notify.Notifier
	log      *zap.Logger

	actionAlerts bool
	saveAlerts   bool
	copyAlerts   bool
	themeName    string
	saveDir      string
	chatModel    string
	imageModel   string
	width        int
	height       int

	activeTheme *theme.Theme
	planner     genai.Planner
	painter     genai.Painter
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("inkdeck", flag.ExitOnError),
		program:  "inkdeck",
		config:   cfg,
		notifier: notify.New(prefs, nil),
	}
	// The config path is pre-scanned in main before the config is loaded;
	// the flag exists so parsing accepts it and usage documents it.
	r.fs.String("config", configPathOverride, "path to the config file")
	r.fs.BoolVar(&r.actionAlerts, "notify-action", cfg.Notify.Action, "show a desktop notification when a generation or edit resolves")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving the scene")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.StringVar(&r.saveDir, "save-dir", cfg.SaveDir, "directory for exported scenes")
	r.fs.StringVar(&r.chatModel, "model", cfg.GenAI.ChatModel, "chat model used for sketch classification")
	r.fs.StringVar(&r.imageModel, "image-model", cfg.GenAI.ImageModel, "image model used for generation")
	r.fs.IntVar(&r.width, "width", 1200, "window width in pixels")
	r.fs.IntVar(&r.height, "height", 800, "window height in pixels")

	// Precedence: CLI > Env > Config > Default. The flag default stays
	// empty and the fallback chain runs in Run.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, or a .theme file)")
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	r.notifier.Enable(notify.EventAction, r.actionAlerts)
	r.notifier.Enable(notify.EventSave, r.saveAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)

	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()
	r.log = log

	name := r.themeName
	if name == "" {
		name = strings.TrimSpace(os.Getenv("INKDECK_THEME"))
	}
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		r.activeTheme = t
	} else {
		t, err := theme.NewLoader().Load(name)
		if err != nil {
			return fmt.Errorf("theme: %w", err)
		}
		r.activeTheme = t
	}

	apiKey := os.Getenv(r.config.GenAI.APIKeyEnv)
	if apiKey == "" {
		log.Warn("no API key set, running offline",
			zap.String("env", r.config.GenAI.APIKeyEnv))
		backend := offlineBackend{}
		r.planner, r.painter = backend, backend
	} else {
		client, err := genai.NewClient(genai.ClientConfig{
			APIKey:     apiKey,
			ChatModel:  r.chatModel,
			ImageModel: r.imageModel,
		}, log)
		if err != nil {
			return fmt.Errorf("backend client: %w", err)
		}
		r.planner, r.painter = client, client
	}

	return runUI(r)
}

func main() {
	args := os.Args[1:]
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			configPathOverride = args[i+1]
		}
	}
	if err := newRoot().Run(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
