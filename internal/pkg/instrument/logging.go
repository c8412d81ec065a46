package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/phone"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskedValue = "***"

var maskKeyReplacer = strings.NewReplacer("_", "", "-", "", " ", "")

// MaskKey folds "otpCode", "otp_code" and "OTP-Code" to the same key. Callers
// masking outside slog use it to match the configured mask fields.
func MaskKey(k string) string {
	return maskKeyReplacer.Replace(strings.ToLower(k))
}

// phoneKeys are always rendered with phone.Mask, whatever the config says.
var phoneKeys = map[string]struct{}{"phone": {}, "phonenumber": {}}

func initLogging(serviceName, level string, lp *sdklog.LoggerProvider, maskFields []string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, serviceName, level, lp, maskFields)))
}

func newHandler(w io.Writer, serviceName, level string, lp *sdklog.LoggerProvider, maskFields []string) slog.Handler {
	var out slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if lp != nil {
		out = fanout{out, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	keys := make(map[string]struct{}, len(maskFields))
	for _, f := range maskFields {
		if k := MaskKey(f); k != "" {
			keys[k] = struct{}{}
		}
	}

	return &otpHandler{next: out, service: serviceName, masker: masker(keys)}
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}
	return a
}

// otpHandler masks sensitive attributes and stamps the correlation id and
// service name on every record.
type otpHandler struct {
	next    slog.Handler
	service string
	masker  masker
}

func (h *otpHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *otpHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.masker.attr(a))
		return true
	})
	if cid := GetCorrelationID(ctx); cid != "" {
		out.AddAttrs(slog.String("correlation_id", cid))
	}
	if h.service != "" {
		out.AddAttrs(slog.String("service", h.service))
	}
	return h.next.Handle(ctx, out)
}

func (h *otpHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.masker.attr(a)
	}
	return &otpHandler{next: h.next.WithAttrs(masked), service: h.service, masker: h.masker}
}

func (h *otpHandler) WithGroup(name string) slog.Handler {
	return &otpHandler{next: h.next.WithGroup(name), service: h.service, masker: h.masker}
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// masker holds the folded keys whose values never reach the log output.
type masker map[string]struct{}

func (m masker) attr(a slog.Attr) slog.Attr {
	key := MaskKey(a.Key)
	if _, ok := m[key]; ok {
		return slog.String(a.Key, maskedValue)
	}
	if _, ok := phoneKeys[key]; ok && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, phone.Mask(a.Value.String()))
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, g := range group {
			out[i] = m.attr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if s, ok := m.jsonText([]byte(a.Value.String())); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			return slog.Any(a.Key, m.value(v))
		case map[string]string:
			conv := make(map[string]any, len(v))
			for k, s := range v {
				conv[k] = s
			}
			return slog.Any(a.Key, m.value(conv))
		case []byte:
			if s, ok := m.jsonText(v); ok {
				return slog.String(a.Key, s)
			}
		}
	}
	return a
}

// jsonText masks a JSON object or array carried as text.
func (m masker) jsonText(b []byte) (string, bool) {
	if len(b) == 0 || (b[0] != '{' && b[0] != '[') {
		return "", false
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.value(v))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			key := MaskKey(k)
			if _, ok := m[key]; ok {
				out[k] = maskedValue
				continue
			}
			if _, ok := phoneKeys[key]; ok {
				if s, isStr := inner.(string); isStr {
					out[k] = phone.Mask(s)
					continue
				}
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}
