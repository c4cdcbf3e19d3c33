// Package physics wraps a Chipmunk2D space for the page's falling
// elements.
//
// A [World] holds static boundaries around the page and one dynamic box
// per element, addressed by [BodyID]. Every method takes the world's lock,
// so a [Runner] may step it on its own goroutine while other goroutines
// read poses or apply impulses:
//
//	w := physics.NewWorld(opts)
//	w.AddBoundaries(pageWidth, pageHeight, 1000)
//	ids, _ := w.AddBoxes(boxes)
//	r := physics.NewRunner(w, 60)
//	r.Start(ctx)
//	defer r.Stop()
//
// Units are CSS pixels and seconds; y grows downward.
package physics
