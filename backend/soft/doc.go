// Package soft is a software device for the frame loop.
//
// Each queue is a goroutine timeline that runs submissions, fence signals
// and GPU-side waits one after another in issue order. Fences notify
// waiters as their value is reached. Command lists record drawing into
// back buffers, which are *image.RGBA images owned by a present engine;
// presents are ordered on the queue like any other work and delivered to
// the surface, scaled to its size.
//
// Importing the package registers it as the "software" backend:
//
//	import _ "github.com/delivron/3dandelion/backend/soft"
package soft
