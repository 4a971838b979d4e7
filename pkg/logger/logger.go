package logx

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// Config is loaded with the LOG prefix. Writer takes precedence over Output
// and can only be set in code.
type Config struct {
	Debug        bool      `split_words:"true" default:"false"`
	PrettyFormat bool      `split_words:"true" default:"false"`
	Output       string    `split_words:"true" default:"stdout"`
	Writer       io.Writer `ignored:"true"`
}

var DefaultConfig = Config{
	Output: OutputStdout,
}

var (
	mu      sync.Mutex
	current = DefaultConfig
)

func Init(opts ...Config) {
	conf := DefaultConfig
	if len(opts) > 0 {
		conf = opts[0]
	}

	mu.Lock()
	defer mu.Unlock()
	apply(conf)
}

// SetOutput keeps the current level and format and sends logs to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	conf := current
	conf.Writer = w
	apply(conf)
}

func apply(conf Config) {
	out := resolveWriter(conf)
	if conf.PrettyFormat {
		dst := out
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = dst
		})
	}

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(out).
		Level(level).
		With().Timestamp().Caller().Stack().
		Logger()
	current = conf
}

func resolveWriter(conf Config) io.Writer {
	if conf.Writer != nil {
		return conf.Writer
	}
	if strings.EqualFold(strings.TrimSpace(conf.Output), OutputStderr) {
		return os.Stderr
	}
	return os.Stdout
}
