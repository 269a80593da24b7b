package worker

// EventSubscriber is a service that reacts to chat events.
type EventSubscriber interface {
	RegisterHandlers()
}

// StartEventWorkers registers every subscriber with the dispatcher.
func StartEventWorkers(subscribers ...EventSubscriber) {
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.RegisterHandlers()
	}
}
