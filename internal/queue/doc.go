// Package queue provides recyclable, growable containers for short-lived
// feature candidates such as detected corners.
//
// A Queue owns an array of pre-allocated element slots and a size cursor.
// Slots in [0, Size()) are the active, externally visible elements. Slots in
// [Size(), MaxSize()) are allocated but logically absent and are overwritten by
// the next Add. Reset only moves the cursor, so a detector that runs once per
// video frame reuses the same element instances frame after frame instead of
// allocating new ones.
//
// # Element Identity
//
// Each slot holds a *T created once by the queue's factory. Growth copies the
// existing pointers into the larger slot array and constructs new elements only
// for the added slots, so a pointer returned by Get stays attached to its slot
// for the lifetime of the queue (unless Resize shrinks past it).
//
//	corners := queue.NewCorners(20)
//	corners.Add(1, 2)
//	p, _ := corners.Get(0)
//	corners.Reset()
//	corners.Add(1, 2)
//	q, _ := corners.Get(0) // q == p
//
// # Thread Safety
//
// Queues are meant for a single owner, typically one detector loop. Callers
// that share a queue between goroutines must synchronize access themselves.
package queue
