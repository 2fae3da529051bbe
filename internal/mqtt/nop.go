package mqtt

import "github.com/sweeney/sunrise-clock/internal/alarm"

// NopPublisher discards everything. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(alarm.Event) error       { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
