// Package rotation decides which payment destination a user sees at an instant.
//
// Every function here is a pure function of a configuration snapshot and a
// wall-clock time. Independent pollers that share a reasonably synchronized
// clock and the same snapshot always agree on the selected destination, so
// no scheduler process is needed.
//
// Resolution order:
//
//  1. An active user-specific window for the user. Among overlapping windows
//     the latest StartsAt wins.
//  2. Otherwise global rotation. Active global sets that have started are
//     sorted by StartsAt; the earliest is the anchor, time after the anchor is
//     cut into fixed slots and slot i shows candidate i mod len(candidates).
package rotation
