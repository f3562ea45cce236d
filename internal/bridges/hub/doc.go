// Package hub adapts a local home-automation hub into roomdash devices.
//
// The hub is expected to expose a REST state endpoint:
//
//	GET {base_url}/api/states/{entity_id}
//	Authorization: Bearer {token}
//
// which returns one entity:
//
//	{
//	  "entity_id": "climate.living_room",
//	  "state": "cool",
//	  "attributes": {"temperature": 24, "current_temperature": 26, "friendly_name": "Living Room"},
//	  "last_changed": "...",
//	  "last_updated": "..."
//	}
//
// The adapter represents exactly one pre-identified climate entity, so every
// successful fetch yields a single RoomDevice of type "ac".
package hub
