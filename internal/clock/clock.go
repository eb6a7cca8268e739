// Package clock provides the time source used for output timestamps and
// job bookkeeping, replaceable in tests.
package clock

import "time"

// NowFunc supplies the current time. Tests override it for deterministic
// timestamps.
var NowFunc = time.Now

// Now reports the current time via NowFunc.
func Now() time.Time { return NowFunc() }
