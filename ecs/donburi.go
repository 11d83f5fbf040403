package ecs

import (
	"github.com/phanxgames/orrery"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType is the Donburi event type for orrery scene events.
var SceneEventType = events.NewEventType[orrery.SceneEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Scene events are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) orrery.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event orrery.SceneEvent) {
	SceneEventType.Publish(s.world, event)
}

// SubscribePortalChanges calls fn with the portal name each time the viewer
// enters a portal.
func SubscribePortalChanges(world donburi.World, fn func(name string, entityID uint32)) {
	SceneEventType.Subscribe(world, func(w donburi.World, e orrery.SceneEvent) {
		if e.Type == orrery.EventPortalEnter {
			fn(e.Name, e.EntityID)
		}
	})
}
