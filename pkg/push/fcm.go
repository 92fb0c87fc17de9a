package push

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMSender sends notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFCMSender initializes the Firebase app from a service-account file and
// returns a ready Sender. One-time initialization; safe for concurrent use.
func NewFCMSender(ctx context.Context, logger *zap.Logger, credentialsFile string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("FCM messaging client initialized")
	return &FCMSender{client: client, logger: logger}, nil
}

func (s *FCMSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (Result, error) {
	if len(tokens) == 0 {
		return Result{}, nil
	}

	msg := &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return Result{}, err
	}

	out := Result{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
		Responses:    make([]TokenResult, 0, len(resp.Responses)),
	}
	for idx, r := range resp.Responses {
		tr := TokenResult{
			Token:     tokens[idx],
			Success:   r.Success,
			MessageID: r.MessageID,
		}
		if r.Error != nil {
			tr.Error = r.Error.Error()
		}
		out.Responses = append(out.Responses, tr)
	}
	return out, nil
}
