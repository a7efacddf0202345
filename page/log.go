package page

import (
	"github.com/golang/glog"
)


// Logging convention in the `page` package:
// Info:
//     abnormal behavior. Silent on normal operation except one time session events.
//     this includes:
//     - transport faults (dial, read, write, snapshot fetch)
//     - dropped frames and rejected operations
// Error:
//     unexpected panics, even if handled and suppressed for partial operation
// V(LogLevelLifecycle):
//     session lifecycle with the session instance id as the filter key
// V(LogLevelTrace):
//     every frame, operation and send. Use `Trace*` for timings.
//
// Tags:
//     [s]  session
//     [sr] session receive
//     [ss] session send
//     [a]  http api


const LogLevelLifecycle glog.Level = 1
const LogLevelTrace glog.Level = 2
