package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// L is the process logger. Request-scoped helpers below add request fields.
var L = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetOutput redirects all log output, mainly for tests.
func SetOutput(w io.Writer) { L.SetOutput(w) }

// Setup applies the level and, when file is set, tees output to it. The
// returned closer releases the file.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		L.Warnf("invalid log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	L.SetLevel(lvl)
	if file == "" {
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", file)
	}
	L.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

func entry(c *fiber.Ctx, kind, action string, fields map[string]any) *logrus.Entry {
	e := L.WithFields(logrus.Fields(fields)).WithField("action", action)
	if kind != "" {
		e = e.WithField("kind", kind)
	}
	if c != nil {
		e = e.WithFields(logrus.Fields{
			"ip":     c.IP(),
			"method": c.Method(),
			"path":   c.Path(),
			"status": c.Response().StatusCode(),
		})
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.WithField("req_id", rid)
		}
		if uid, ok := c.Locals("user_id").(int64); ok {
			e = e.WithField("user_id", uid)
		}
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, "", action, fields).Info(action)
}

// Audit records a state change made by an identity.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, "audit", action, fields).Info(action)
}

// Security records a refused or suspicious request.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, "security", action, fields).Warn(action)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	entry(c, "", action, fields).WithError(err).Error(action)
}
