package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/infrastructure/realtime"
	"golang.org/x/sync/errgroup"
)

// RecipientResolver enumerates the accounts a message is addressed to.
type RecipientResolver interface {
	Resolve(ctx context.Context) ([]string, error)
}

// Recipients is a fixed recipient set.
type Recipients []string

func (r Recipients) Resolve(context.Context) ([]string, error) { return r, nil }

// ResolverFunc adapts a function to RecipientResolver.
type ResolverFunc func(ctx context.Context) ([]string, error)

func (f ResolverFunc) Resolve(ctx context.Context) ([]string, error) { return f(ctx) }

// Dispatch persists one record per recipient, then emits it over the
// realtime channel and sends it to the recipient's push endpoints.
// Per-recipient failures are counted and logged; only a failure to resolve
// the recipient set is returned. The fan-out outlives the caller's
// cancellation: once started, every recipient is attempted.
func (s *service) Dispatch(ctx context.Context, recipients RecipientResolver, msg Message) (*DispatchResult, error) {
	ctx = context.WithoutCancel(ctx)
	ids, err := recipients.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve recipients: %w", err)
	}
	ids = dedupe(ids)

	now := s.now().UTC().Truncate(time.Second)
	expiresAt := msg.ExpiresAt
	if expiresAt.IsZero() && s.cfg.TTL > 0 {
		expiresAt = now.Add(s.cfg.TTL)
	}
	payload := pushPayload(msg)

	var written, sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, userID := range ids {
		g.Go(func() error {
			n := newRecord(userID, msg, now, expiresAt)
			err := s.store.Put(gctx, n)
			recordWrite(err)
			if err != nil {
				slog.Error("notification persist failed", "user_id", userID, "kind", msg.Kind, "err", err)
			} else {
				written.Add(1)
			}

			if err := s.emitter.EmitToUser(gctx, userID, realtime.EventNotificationNew, n); err != nil {
				s.logEmitFailure(userID, err)
			}

			if s.push != nil {
				p := payload
				p.Data = withNotificationID(payload.Data, n.NotificationID)
				res := s.push.SendToUser(gctx, userID, p)
				sent.Add(int64(res.Sent))
				failed.Add(int64(res.Failed))
			}
			// Never fail: a returned error would cancel gctx for the others.
			return nil
		})
	}
	_ = g.Wait()

	res := &DispatchResult{
		Recipients:     len(ids),
		RecordsWritten: int(written.Load()),
		PushSent:       int(sent.Load()),
		PushFailed:     int(failed.Load()),
	}
	slog.Info("notification dispatched",
		"kind", msg.Kind,
		"recipients", res.Recipients,
		"records_written", res.RecordsWritten,
		"push_sent", res.PushSent,
		"push_failed", res.PushFailed,
	)
	return res, nil
}

func pushPayload(msg Message) domain.PushPayload {
	url := msg.Link
	if url == "" {
		url = "/dashboard"
	}
	data := map[string]any{
		"type": string(msg.Kind),
		"url":  url,
	}
	if msg.AnnouncementID != "" {
		data["announcementId"] = msg.AnnouncementID
	}
	if msg.RegistrationID != "" {
		data["registrationId"] = msg.RegistrationID
	}
	return domain.NewPushPayload(msg.Title, msg.Body, string(msg.Kind), data)
}

func withNotificationID(data map[string]any, notificationID string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["notificationId"] = notificationID
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, uid := range ids {
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}
