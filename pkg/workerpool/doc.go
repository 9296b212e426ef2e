// Package workerpool provides a fixed-size worker pool with an explicit
// open/close lifecycle, owned by the host application rather than hidden in
// a process-wide singleton.
//
// Work crosses the worker boundary as plain data: a Task carries a closed
// enum Kind and a payload, and the pool dispatches it to the handler
// registered for that kind. Panics inside handlers are recovered and
// surfaced as *PanicError results instead of crashing the pool.
package workerpool
