package service

import (
	"context"
	"encoding/json"
	"strconv"

	"incorpo/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Pusher delivers a notification to a single registered device.
type Pusher interface {
	Push(ctx context.Context, deviceToken string, msg PushMessage) error
}

// PushMessage is what a referrer sees on their phone. Kind is one of the
// domain.Notification* constants and doubles as the collapse key, so a burst
// of status changes shows up as a single entry.
type PushMessage struct {
	Kind  string
	Title string
	Body  string
	Data  map[string]interface{}
}

type fcmPusher struct {
	client *messaging.Client
	log    logger.Logger
}

// NewFCMPusher returns nil when no service account is configured or the
// Firebase app cannot be created; callers treat a nil Pusher as "push off".
func NewFCMPusher(ctx context.Context, serviceAccountPath string, log logger.Logger) Pusher {
	if serviceAccountPath == "" {
		return nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Error("push disabled: firebase app", "error", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Error("push disabled: messaging client", "error", err)
		return nil
	}
	return &fcmPusher{client: client, log: log}
}

func (p *fcmPusher) Push(ctx context.Context, deviceToken string, msg PushMessage) error {
	if deviceToken == "" {
		return nil
	}
	id, err := p.client.Send(ctx, msg.fcm(deviceToken))
	if err != nil {
		return err
	}
	p.log.Debug("push sent", "kind", msg.Kind, "message_id", id)
	return nil
}

func (m PushMessage) fcm(deviceToken string) *messaging.Message {
	return &messaging.Message{
		Token:        deviceToken,
		Notification: &messaging.Notification{Title: m.Title, Body: m.Body},
		Data:         m.stringData(),
		Android: &messaging.AndroidConfig{
			CollapseKey: m.Kind,
			Priority:    "normal",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-collapse-id": m.Kind},
		},
	}
}

// stringData flattens Data for FCM, which only carries string values.
func (m PushMessage) stringData() map[string]string {
	out := make(map[string]string, len(m.Data)+1)
	for k, v := range m.Data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case uint:
			out[k] = strconv.FormatUint(uint64(val), 10)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			b, _ := json.Marshal(v)
			out[k] = string(b)
		}
	}
	out["kind"] = m.Kind
	return out
}
