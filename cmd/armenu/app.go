package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/0xmhha/armenu-panel/pkg/api"
	"github.com/0xmhha/armenu-panel/pkg/config"
	"github.com/0xmhha/armenu-panel/pkg/device"
	"github.com/0xmhha/armenu-panel/pkg/display"
	"github.com/0xmhha/armenu-panel/pkg/logger"
	"github.com/0xmhha/armenu-panel/pkg/store"
)

// publicHost prefixes a restaurant's public menu address.
const publicHost = "armenu.com"

// app holds global flags and the components shared by commands.
type app struct {
	configPath string
	format     string
	logLevel   string
	compact    bool

	cfg    *config.Config
	loader config.Loader
	log    logger.Logger
	store  store.Store
	client *api.Client

	stdin     *bufio.Reader
	stdinFile *os.File
	stdout    io.Writer
	stderr    io.Writer
	tty       bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	a := &app{
		stdin:  bufio.NewReader(in),
		stdout: out,
		stderr: errOut,
		log:    logger.Noop(),
	}
	if f, ok := in.(*os.File); ok {
		a.stdinFile = f
	}
	if f, ok := out.(*os.File); ok {
		a.tty = term.IsTerminal(int(f.Fd()))
	}
	return a
}

// loadConfig reads configuration and sets up logging.
func (a *app) loadConfig() error {
	a.loader = config.NewLoader(a.configPath)
	cfg, err := a.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	a.log.Debug("configuration loaded", "path", a.loader.Path())
	return nil
}

// open initializes the state store and the API client.
func (a *app) open() error {
	if a.client != nil {
		return nil
	}
	if a.cfg == nil {
		if err := a.loadConfig(); err != nil {
			return err
		}
	}

	st, err := store.New(store.Config{Path: a.cfg.Storage.StatePath}, a.log)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}

	client, err := api.New(api.Config{
		BaseURL:       a.cfg.API.BaseURL,
		Timeout:       a.cfg.API.Timeout,
		UploadTimeout: a.cfg.API.UploadTimeout,
		UserAgent:     "armenu/" + version,
	}, st, a.log)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to create API client: %w", err)
	}

	a.store = st
	a.client = client
	return nil
}

// cleanup closes resources.
func (a *app) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("failed to close state store", "error", err)
		}
		a.store = nil
	}
}

// deviceProvider opens cameras as configured.
func (a *app) deviceProvider() *device.Provider {
	return device.NewProvider(device.Config{
		DevDir:     a.cfg.Capture.DevDir,
		FFmpegPath: a.cfg.Capture.FFmpegPath,
	}, a.log)
}

// apiFailure turns a backend error into a command error. A rejected token
// gets a hint to log in again.
func apiFailure(action string, err error) error {
	msg := fmt.Sprintf("failed to %s: %s", action, api.MessageOf(err))
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		msg += "; run 'armenu login <restaurant>' to sign in again"
	}
	return errors.New(msg)
}

// requireAuth returns the current login.
func (a *app) requireAuth() (*store.AuthState, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	state, err := a.store.LoadAuth()
	if errors.Is(err, store.ErrNotLoggedIn) {
		return nil, errors.New("not logged in; run 'armenu login <restaurant>' first")
	}
	if err != nil {
		return nil, err
	}
	if base := a.client.BaseURL().String(); state.BaseURL != "" && state.BaseURL != base {
		a.log.Warn("login was made against a different backend", "login", state.BaseURL, "current", base)
	}
	return state, nil
}

func (a *app) formatter() (display.Formatter, error) {
	name := a.format
	if name == "" && a.cfg != nil {
		name = a.cfg.Display.DefaultFormat
	}
	f, err := display.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return display.New(display.Config{Format: f, Compact: a.compact}), nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.stdout, format, args...)
}

// readLine reads one line from stdin without the line ending.
func (a *app) readLine() (string, error) {
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a value on stderr and reads the answer.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.stderr, "%s: ", label)
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads a password without echo when stdin is a terminal.
func (a *app) readPassword(label string) (string, error) {
	fmt.Fprintf(a.stderr, "%s: ", label)
	if a.stdinFile != nil && term.IsTerminal(int(a.stdinFile.Fd())) {
		b, err := term.ReadPassword(int(a.stdinFile.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.stderr, "%s [y/N]: ", question)
	line, err := a.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func publicURL(name string) string {
	return publicHost + "/" + name
}

// progressWriter returns where loading indicators go, or nil when output is
// not a terminal.
func (a *app) progressWriter() io.Writer {
	if !a.tty {
		return nil
	}
	return a.stderr
}
