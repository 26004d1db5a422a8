package notify

import (
	"context"
	"io"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// PushSender delivers one Web Push message and reports the push service's
// status code.
type PushSender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription) (int, error)
}

// VAPIDSender sends notifications signed with a VAPID key pair.
type VAPIDSender struct {
	PrivateKey string
	PublicKey  string
	Subject    string
	TTL        int
}

func (s *VAPIDSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      s.Subject,
		VAPIDPrivateKey: s.PrivateKey,
		VAPIDPublicKey:  s.PublicKey,
		TTL:             s.TTL,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
