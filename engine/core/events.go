package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * se := data.Data.(*SystemEvent)
	 * se.WindowWidth, se.WindowHeight
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// A model finished loading and is now part of the scene.
	/* Context usage:
	 * obj := data.Data.(*systems.LoadedObject)
	 */
	EVENT_CODE_ASSET_LOADED SystemEventCode = 0x20

	// A model or the environment map failed to load.
	/* Context usage:
	 * err := data.Data.(error) // *AssetLoadError or *EnvironmentLoadError
	 */
	EVENT_CODE_ASSET_LOAD_FAILED SystemEventCode = 0x21

	// The environment map is loaded and applied to the scene.
	EVENT_CODE_ENVIRONMENT_LOADED SystemEventCode = 0x22

	// Combined loading progress went past the hide threshold.
	EVENT_CODE_LOADING_COMPLETE SystemEventCode = 0x23

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// SystemEvent carries the payload of EVENT_CODE_RESIZED.
type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	id       uint64
	callback FnOnEvent
}

// EventSystem dispatches events synchronously to the listeners of a code.
type EventSystem struct {
	mu         sync.RWMutex
	nextID     uint64
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

// Register listens for events sent with the provided code. The returned id
// is used to unregister.
func (es *EventSystem) Register(code SystemEventCode, onEvent FnOnEvent) uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.nextID++
	es.registered[code] = append(es.registered[code], &registeredEvent{
		id:       es.nextID,
		callback: onEvent,
	})
	return es.nextID
}

// Unregister stops the listener with the given id. Returns false if nothing matched.
func (es *EventSystem) Unregister(code SystemEventCode, id uint64) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.id == id {
			es.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to listeners of the given code. If a handler returns
// true, the event is considered handled and is not passed on.
func (es *EventSystem) Fire(context EventContext) bool {
	es.mu.RLock()
	events := es.registered[context.Type]
	es.mu.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}

func (es *EventSystem) Shutdown() error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[SystemEventCode][]*registeredEvent)
	return nil
}

var onceEvent sync.Once
var eventState *EventSystem

func EventSystemInitialize() bool {
	onceEvent.Do(func() {
		eventState = NewEventSystem()
	})
	return eventState != nil
}

func EventSystemShutdown() error {
	if eventState == nil {
		return nil
	}
	return eventState.Shutdown()
}

// Events returns the process-wide event system.
func Events() *EventSystem {
	EventSystemInitialize()
	return eventState
}

func EventRegister(code SystemEventCode, onEvent FnOnEvent) uint64 {
	return Events().Register(code, onEvent)
}

func EventUnregister(code SystemEventCode, id uint64) bool {
	return Events().Unregister(code, id)
}

func EventFire(context EventContext) bool {
	return Events().Fire(context)
}
