// Package device defines the normalised device record served to the dashboard.
//
// Every upstream provider (the local hub, the cloud registry) maps its raw
// payloads into RoomDevice values. The record is rebuilt on every request and
// never cached; the package therefore carries only types, constructors and
// validation, with no I/O of its own.
//
// # Key Types
//
//   - RoomDevice: one device as the front-end sees it
//   - Type: coarse classification (ac, purifier, device)
//   - Summary: lightweight listing entry used by the diagnostic snapshot
//
// # Absent vs zero
//
// Optional readings (power, set point, current temperature) are pointers so
// that "upstream did not report it" serialises as an omitted key rather than
// false or 0. Mode is omitted when empty.
package device
