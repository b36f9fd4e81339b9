package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WorkshopsPubSub fans out capacity changes so read-side caches (the public
// availability view, the calendar projection) can refresh.
type WorkshopsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewWorkshopsPubSub(rdb *redis.Client) *WorkshopsPubSub {
	return &WorkshopsPubSub{
		rdb:     rdb,
		channel: ChannelWorkshopsChanged(),
	}
}

type workshopChangedMsg struct {
	Type       string `json:"type"`
	WorkshopID string `json:"workshop_id"`
	TsUnix     int64  `json:"ts_unix"`
}

func (p *WorkshopsPubSub) PublishWorkshopChanged(ctx context.Context, workshopID uuid.UUID) error {
	msg := workshopChangedMsg{
		Type:       "workshop_changed",
		WorkshopID: workshopID.String(),
		TsUnix:     time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *WorkshopsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, workshopID uuid.UUID)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev workshopChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				continue
			}
			id, err := uuid.Parse(ev.WorkshopID)
			if err == nil {
				handler(ctx, id)
			}
		}
	}
}
