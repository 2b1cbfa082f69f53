package docstoreapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/docstore"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

const defaultKeepAlive = 20 * time.Second

// StreamHandlers exposes the change feed as server-sent events.
// Each collection maps to the scopes that may read it; a caller needs any one of them.
type StreamHandlers struct {
	feed      docstore.Feed
	access    map[string][]string
	keepAlive time.Duration
	base      context.Context
}

func NewStreamHandlers(feed docstore.Feed, access map[string][]string) *StreamHandlers {
	return &StreamHandlers{feed: feed, access: access, keepAlive: defaultKeepAlive, base: context.Background()}
}

// WithBaseContext ties every open stream to ctx so shutdown closes them
func (h *StreamHandlers) WithBaseContext(ctx context.Context) *StreamHandlers {
	h.base = ctx
	return h
}

// WithKeepAlive sets the interval of the comment frames that keep idle proxies from closing the stream
func (h *StreamHandlers) WithKeepAlive(d time.Duration) *StreamHandlers {
	if d > 0 {
		h.keepAlive = d
	}
	return h
}

func (h *StreamHandlers) RegisterRoutes(router fiber.Router, authMiddleware *auth.AuthMiddleware) {
	router.Get("/stream", authMiddleware.Authenticate(), h.Stream)
}

// Collections resolves the requested collection list against the caller's scopes.
// An empty request means every collection the caller can read.
func (h *StreamHandlers) Collections(ac *kernel.AuthContext, requested string) ([]string, error) {
	if strings.TrimSpace(requested) == "" {
		out := make([]string, 0, len(h.access))
		for name, required := range h.access {
			if ac.HasAnyScope(required...) {
				out = append(out, name)
			}
		}
		if len(out) == 0 {
			return nil, iam.ErrForbidden().WithDetail("reason", "no readable collections")
		}
		sort.Strings(out)
		return out, nil
	}

	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, name := range strings.Split(requested, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		required, ok := h.access[name]
		if !ok {
			return nil, errx.New("unknown collection", errx.TypeValidation).WithDetail("collection", name)
		}
		if !ac.HasAnyScope(required...) {
			return nil, iam.ErrForbidden().WithDetail("collection", name)
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return h.Collections(ac, "")
	}
	return out, nil
}

// Stream maneja GET /stream?collections=a,b
func (h *StreamHandlers) Stream(c *fiber.Ctx) error {
	ac, err := auth.Principal(c)
	if err != nil {
		return err
	}
	collections, err := h.Collections(ac, c.Query("collections"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(h.base)
	changes, err := h.feed.Subscribe(ctx, collections...)
	if err != nil {
		cancel()
		return errx.Wrap(err, "failed to subscribe to change feed", errx.TypeInternal)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	actor := ac.Actor()
	keepAlive := h.keepAlive
	logx.WithFields(logx.Fields{"user_id": actor, "collections": collections}).Debug("stream opened")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		if err := WriteStream(ctx, w, changes, keepAlive); err != nil {
			logx.WithFields(logx.Fields{"user_id": actor}).Debugf("stream closed: %v", err)
		}
	})
	return nil
}

// WriteStream copies changes to w as SSE frames until the feed closes or a write fails
func WriteStream(ctx context.Context, w *bufio.Writer, changes <-chan docstore.Change, keepAlive time.Duration) error {
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := writeEvent(w, change); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

func writeEvent(w *bufio.Writer, change docstore.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s:%d\nevent: %s\ndata: %s\n\n", change.ID, change.Version, change.Op, payload)
	return err
}
