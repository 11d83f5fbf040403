// Package ecs provides ECS adapters for orrery scene events.
//
// The primary adapter is [NewDonburiStore], which bridges portal enter/exit
// and animation-finished events into a [Donburi] world as typed events.
// Subscribe to [SceneEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
